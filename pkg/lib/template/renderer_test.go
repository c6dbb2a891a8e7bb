//go:build unit || !integration

package template

import (
	"strings"
	"testing"
	"testing/fstest"
	"text/template"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"hello.tmpl": {Data: []byte(`Hello, {{ upper .Name }}!`)},
		"other.txt":  {Data: []byte(`ignored`)},
	}
}

func TestRender(t *testing.T) {
	r, err := NewRenderer(RendererParams{
		FS:       testFS(),
		Patterns: []string{"*.tmpl"},
		Funcs:    template.FuncMap{"upper": strings.ToUpper},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"hello.tmpl"}, r.Names())

	out, err := r.Render("hello.tmpl", map[string]string{"Name": "world"})
	require.NoError(t, err)
	assert.Equal(t, "Hello, WORLD!", string(out))
}

func TestRenderMissingKey(t *testing.T) {
	r, err := NewRenderer(RendererParams{
		FS:       testFS(),
		Patterns: []string{"*.tmpl"},
		Funcs:    template.FuncMap{"upper": strings.ToUpper},
	})
	require.NoError(t, err)
	_, err = r.Render("hello.tmpl", map[string]string{})
	assert.Error(t, err)

	_, err = r.Render("missing.tmpl", nil)
	assert.Error(t, err)
}

func TestNewRendererErrors(t *testing.T) {
	_, err := NewRenderer(RendererParams{})
	assert.Error(t, err)

	_, err = NewRenderer(RendererParams{FS: testFS(), Patterns: []string{"*.tmpl"}})
	assert.Error(t, err, "undefined function")
}
