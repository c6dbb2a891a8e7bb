package codegen

import (
	"embed"
	"sync"
	texttemplate "text/template"

	"github.com/B3Pay/ic-reactor-sub004/pkg/config"
	"github.com/B3Pay/ic-reactor-sub004/pkg/idl"
	"github.com/B3Pay/ic-reactor-sub004/pkg/lib/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const (
	templateReactor = "reactor.ts"
	templateIndex   = "index.ts"
	templateClients = "clients.ts"
)

var (
	rendererOnce sync.Once
	renderer     *template.Renderer
	rendererErr  error
)

func getRenderer() (*template.Renderer, error) {
	rendererOnce.Do(func() {
		renderer, rendererErr = template.NewRenderer(template.RendererParams{
			FS:       templateFS,
			Patterns: []string{"templates/*.tmpl"},
			Funcs: texttemplate.FuncMap{
				"quote":  quoteTS,
				"camel":  ToCamelCase,
				"pascal": ToPascalCase,
			},
		})
	})
	return renderer, rendererErr
}

// ReactorFileData feeds the reactor file template.
type ReactorFileData struct {
	CanisterName      string
	CanisterID        string
	DidFile           string
	PascalName        string
	ReactorName       string
	ServiceName       string
	ReactorClass      string
	Mode              config.ReactorMode
	ExplicitMode      bool
	ClientManagerPath string
	DeclarationsPath  string
	Methods           []idl.MethodInfo
	Queries           []idl.MethodInfo
	Mutations         []idl.MethodInfo
}

// NewReactorFileData derives the template data of a canister from the
// configuration. didFile is the path shown in the file header.
func NewReactorFileData(cfg *config.Config, name, didFile string, methods []idl.MethodInfo) ReactorFileData {
	canister := cfg.Canisters[name]
	mode, explicit := cfg.ResolveMode(name)
	queries, mutations := idl.Split(methods)
	return ReactorFileData{
		CanisterName:      name,
		CanisterID:        canister.CanisterID,
		DidFile:           didFile,
		PascalName:        ToPascalCase(name),
		ReactorName:       ReactorName(name),
		ServiceName:       ServiceTypeName(name),
		ReactorClass:      mode.ReactorClass(),
		Mode:              mode,
		ExplicitMode:      explicit,
		ClientManagerPath: cfg.ClientManagerPathFor(name),
		DeclarationsPath:  "./" + DeclarationsDir + "/" + DeclarationsBaseName(canister.DidFile),
		Methods:           methods,
		Queries:           queries,
		Mutations:         mutations,
	}
}

// RenderReactorFile renders index.generated.ts.
func RenderReactorFile(data ReactorFileData) ([]byte, error) {
	r, err := getRenderer()
	if err != nil {
		return nil, err
	}
	return r.Render(templateReactor, data)
}

// RenderIndexFile renders the index.ts wrapper.
func RenderIndexFile() ([]byte, error) {
	r, err := getRenderer()
	if err != nil {
		return nil, err
	}
	return r.Render(templateIndex, nil)
}

// RenderClientFile renders the default client manager module.
func RenderClientFile() ([]byte, error) {
	r, err := getRenderer()
	if err != nil {
		return nil, err
	}
	return r.Render(templateClients, nil)
}
