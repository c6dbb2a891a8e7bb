//go:build unit || !integration

package schema_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"

	cmdtesting "github.com/B3Pay/ic-reactor-sub004/cmd/testing"
	"github.com/B3Pay/ic-reactor-sub004/pkg/config"
)

type SchemaSuite struct {
	cmdtesting.BaseSuite
}

func TestSchemaSuite(t *testing.T) {
	suite.Run(t, new(SchemaSuite))
}

func (s *SchemaSuite) TestPrintsSchema() {
	_, out, err := cmdtesting.ExecuteTestCobraCommand("schema")
	s.Require().NoError(err)

	var doc map[string]any
	s.Require().NoError(json.Unmarshal([]byte(out), &doc))
	s.Equal(config.SchemaURL, doc["$id"])
}

func (s *SchemaSuite) TestCheck() {
	s.Project("service : {}", "backend")

	out, err := s.Execute("schema", "--check")
	s.Require().NoError(err)
	s.Contains(out, "ic-reactor.json is valid")

	s.WriteFile(config.FileName, `{"outDir": 3, "canisters": {}}`)
	_, err = s.Execute("schema", "--check")
	s.ErrorContains(err, "invalid ic-reactor.json")
}
