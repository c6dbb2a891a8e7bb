//go:build unit || !integration

package generate_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	cmdtesting "github.com/B3Pay/ic-reactor-sub004/cmd/testing"
	"github.com/B3Pay/ic-reactor-sub004/pkg/config"
)

const greetDid = `service : {
  greet: (text) -> (text) query;
  set_greeting: (text) -> ();
}`

type GenerateSuite struct {
	cmdtesting.BaseSuite
}

func TestGenerateSuite(t *testing.T) {
	suite.Run(t, new(GenerateSuite))
}

func (s *GenerateSuite) TestGeneratesAllCanisters() {
	s.Project(greetDid, "backend", "frontend")

	out, err := s.Execute("generate")
	s.Require().NoError(err)
	s.Contains(out, "Success: 2")
	s.Contains(out, "Failed:  0")

	for _, name := range []string{"backend", "frontend"} {
		s.FileExists(filepath.Join(s.Root, "src/declarations", name, "index.generated.ts"))
		s.FileExists(filepath.Join(s.Root, "src/declarations", name, "index.ts"))
	}
	s.Equal(map[string][]string{
		"backend":  {"greet", "set_greeting"},
		"frontend": {"greet", "set_greeting"},
	}, s.LoadConfig().GeneratedHooks)
}

func (s *GenerateSuite) TestAliasAndCanisterFlag() {
	s.Project(greetDid, "backend", "frontend")

	_, err := s.Execute("g", "-c", "frontend")
	s.Require().NoError(err)
	s.NoDirExists(filepath.Join(s.Root, "src/declarations/backend"))
	s.FileExists(filepath.Join(s.Root, "src/declarations/frontend/index.generated.ts"))
}

func (s *GenerateSuite) TestUnknownCanister() {
	s.Project(greetDid, "backend")

	_, err := s.Execute("generate", "-c", "ghost")
	s.ErrorContains(err, `canister "ghost" not found`)
}

func (s *GenerateSuite) TestNoCanisters() {
	s.SaveConfig(config.Default())

	_, err := s.Execute("generate")
	s.ErrorContains(err, "no canisters configured")
}

func (s *GenerateSuite) TestReportsFailures() {
	cfg := s.Project(greetDid, "backend")
	cfg.Canisters["broken"] = config.CanisterConfig{Name: "broken", DidFile: "broken.did"}
	s.WriteFile("broken.did", "service : { oops }")
	s.SaveConfig(cfg)

	out, err := s.Execute("generate")
	s.ErrorContains(err, "generation failed")
	s.Contains(out, "Errors encountered:")
	s.Contains(out, "broken:")
	s.Contains(out, "Success: 1")
	s.Contains(out, "Failed:  1")
	s.Contains(s.LoadConfig().GeneratedHooks, "backend")
	s.NotContains(s.LoadConfig().GeneratedHooks, "broken")
}

func (s *GenerateSuite) TestMissingConfig() {
	_, err := s.Execute("generate")
	s.Error(err)
}
