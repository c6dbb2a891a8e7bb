package cmdtesting

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/suite"

	"github.com/B3Pay/ic-reactor-sub004/cmd/cli"
	"github.com/B3Pay/ic-reactor-sub004/cmd/util"
	"github.com/B3Pay/ic-reactor-sub004/pkg/config"
	"github.com/B3Pay/ic-reactor-sub004/pkg/logger"
)

// BaseSuite runs commands against a project in a temporary directory.
type BaseSuite struct {
	suite.Suite
	Root string
}

// before each test
func (s *BaseSuite) SetupTest() {
	logger.ConfigureTestLogging(s.T())
	util.Fatal = util.FakeFatalErrorHandler
	color.NoColor = true
	s.Root = s.T().TempDir()
}

// ConfigPath is the project config of the suite.
func (s *BaseSuite) ConfigPath() string {
	return filepath.Join(s.Root, config.FileName)
}

// Execute runs the CLI with --config pointing at the suite project.
func (s *BaseSuite) Execute(args ...string) (string, error) {
	_, out, err := ExecuteTestCobraCommand(append(args, "--config", s.ConfigPath())...)
	return out, err
}

// Project writes a config with one canister per name, each with its own
// Candid file holding did.
func (s *BaseSuite) Project(did string, names ...string) *config.Config {
	cfg := config.Default()
	for _, name := range names {
		s.WriteFile(name+".did", did)
		cfg.Canisters[name] = config.CanisterConfig{Name: name, DidFile: name + ".did"}
	}
	s.SaveConfig(cfg)
	return cfg
}

// WriteFile writes a project file relative to Root.
func (s *BaseSuite) WriteFile(rel, content string) string {
	path := filepath.Join(s.Root, rel)
	s.Require().NoError(os.MkdirAll(filepath.Dir(path), 0o755))
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o644))
	return path
}

// ReadFile reads a project file relative to Root.
func (s *BaseSuite) ReadFile(rel string) string {
	data, err := os.ReadFile(filepath.Join(s.Root, rel))
	s.Require().NoError(err)
	return string(data)
}

// LoadConfig loads the suite project config.
func (s *BaseSuite) LoadConfig() *config.Config {
	cfg, err := config.Load(s.ConfigPath())
	s.Require().NoError(err)
	return cfg
}

// SaveConfig writes cfg as the suite project config.
func (s *BaseSuite) SaveConfig(cfg *config.Config) {
	s.Require().NoError(config.Save(cfg, s.ConfigPath()))
}

// ExecuteTestCobraCommand runs a fresh root command with args and returns
// its combined output.
func ExecuteTestCobraCommand(args ...string) (c *cobra.Command, output string, err error) {
	return ExecuteTestCobraCommandWithContext(context.Background(), args...)
}

func ExecuteTestCobraCommandWithContext(ctx context.Context, args ...string) (c *cobra.Command, output string, err error) {
	buf := new(bytes.Buffer)
	root := cli.NewRootCmd()
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)

	c, err = root.ExecuteContextC(ctx)
	return c, buf.String(), err
}
