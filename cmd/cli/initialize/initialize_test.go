//go:build unit || !integration

package initialize_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	cmdtesting "github.com/B3Pay/ic-reactor-sub004/cmd/testing"
	"github.com/B3Pay/ic-reactor-sub004/pkg/codegen"
	"github.com/B3Pay/ic-reactor-sub004/pkg/config"
)

type InitSuite struct {
	cmdtesting.BaseSuite
}

func TestInitSuite(t *testing.T) {
	suite.Run(t, new(InitSuite))
}

func (s *InitSuite) TestCreatesDefaults() {
	out, err := s.Execute("init")
	s.Require().NoError(err)
	s.Contains(out, "Created ic-reactor.json")
	s.Contains(out, "Created src/clients.ts")
	s.Contains(out, "ic-reactor generate")

	cfg := s.LoadConfig()
	s.Equal(config.SchemaURL, cfg.Schema)
	s.Equal(config.DefaultOutDir, cfg.OutDir)
	s.Equal(config.DefaultClientManagerPath, cfg.ClientManagerPath)
	s.Empty(cfg.Canisters)

	s.DirExists(filepath.Join(s.Root, config.DefaultOutDir))
	s.Contains(s.ReadFile(codegen.ClientFileName), "new ClientManager")
}

func (s *InitSuite) TestAddsCanister() {
	s.WriteFile("src/backend/backend.did", "service : {}")

	_, err := s.Execute("init", "-o", "src/gen", "--canister", "backend", "--did", "src/backend/backend.did", "--no-client")
	s.Require().NoError(err)

	cfg := s.LoadConfig()
	s.Equal("src/gen", cfg.OutDir)
	s.Equal(config.CanisterConfig{Name: "backend", DidFile: "src/backend/backend.did"}, cfg.Canisters["backend"])
	s.NoFileExists(filepath.Join(s.Root, codegen.ClientFileName))
}

func (s *InitSuite) TestCanisterNameFromDidFile() {
	s.WriteFile("ledger.did", "service : {}")

	_, err := s.Execute("init", "--did", "ledger.did")
	s.Require().NoError(err)
	s.Contains(s.LoadConfig().Canisters, "ledger")
}

func (s *InitSuite) TestRejectsInvalidCanister() {
	s.WriteFile("backend.did", "service : {}")

	for _, tc := range []struct {
		name string
		args []string
		err  string
	}{
		{name: "bad name", args: []string{"--canister", "1backend", "--did", "backend.did"}, err: "invalid canister name"},
		{name: "missing did", args: []string{"--canister", "backend", "--did", "nope.did"}, err: "File not found: nope.did"},
		{name: "no did", args: []string{"--canister", "backend"}, err: "--did is required"},
	} {
		s.Run(tc.name, func() {
			_, err := s.Execute(append([]string{"init"}, tc.args...)...)
			s.ErrorContains(err, tc.err)
			s.NoFileExists(s.ConfigPath())
		})
	}
}

func (s *InitSuite) TestRefusesOverwrite() {
	_, err := s.Execute("init", "-o", "first")
	s.Require().NoError(err)

	_, err = s.Execute("init", "-o", "second")
	s.ErrorContains(err, "already exists")
	s.Equal("first", s.LoadConfig().OutDir)

	_, err = s.Execute("init", "-o", "second", "--force")
	s.Require().NoError(err)
	s.Equal("second", s.LoadConfig().OutDir)
}

func (s *InitSuite) TestKeepsExistingClientFile() {
	s.WriteFile(codegen.ClientFileName, "// mine\n")

	out, err := s.Execute("init")
	s.Require().NoError(err)
	s.NotContains(out, "Created src/clients.ts")
	s.Equal("// mine\n", s.ReadFile(codegen.ClientFileName))
}
