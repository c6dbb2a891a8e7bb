//go:build unit || !integration

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ConfigSuite struct {
	suite.Suite
	dir string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigSuite))
}

func (s *ConfigSuite) SetupTest() {
	s.dir = s.T().TempDir()
}

func (s *ConfigSuite) write(rel, content string) string {
	path := filepath.Join(s.dir, rel)
	s.Require().NoError(os.MkdirAll(filepath.Dir(path), 0o755))
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (s *ConfigSuite) TestFindWalksParents() {
	path := s.write(FileName, `{"outDir": "src/declarations", "canisters": {}}`)
	nested := filepath.Join(s.dir, "src", "app", "deep")
	s.Require().NoError(os.MkdirAll(nested, 0o755))

	found, err := Find(nested)
	s.Require().NoError(err)
	s.Equal(path, found)
	s.Equal(s.dir, ProjectRoot(nested))
}

func (s *ConfigSuite) TestFindMissing() {
	_, err := Find(s.dir)
	s.ErrorIs(err, ErrNotFound)
	s.Equal(s.dir, ProjectRoot(s.dir))
}

func (s *ConfigSuite) TestSaveLoadRoundTrip() {
	path := filepath.Join(s.dir, FileName)
	cfg := Default()
	cfg.Canisters["Backend"] = CanisterConfig{Name: "Backend", DidFile: "backend.did"}
	cfg.GeneratedHooks = map[string][]string{"Backend": {"greet"}}
	s.Require().NoError(Save(cfg, path))

	data, err := os.ReadFile(path)
	s.Require().NoError(err)
	s.Equal(byte('\n'), data[len(data)-1])
	s.Contains(string(data), "\n  \"outDir\": \"src/declarations\"")

	loaded, err := Load(path)
	s.Require().NoError(err)
	s.Equal(cfg, loaded)
}

func (s *ConfigSuite) TestLoadAppliesDefaults() {
	path := s.write(FileName, `{"canisters": {"ledger": {"didFile": "ledger.did"}}}`)

	cfg, err := Load(path)
	s.Require().NoError(err)
	s.Equal(DefaultOutDir, cfg.OutDir)
	s.Equal("ledger", cfg.Canisters["ledger"].Name)
	s.Equal("src/declarations/ledger", cfg.CanisterOutDir("ledger"))
	s.Equal(DefaultClientManagerPath, cfg.ClientManagerPathFor("ledger"))
}

func (s *ConfigSuite) TestLoadEnvironmentOverrides() {
	s.T().Setenv("IC_REACTOR_OUTDIR", "generated")
	s.T().Setenv("IC_REACTOR_REACTOR_DEFAULTMODE", "raw")
	path := s.write(FileName, `{"outDir": "src/declarations", "canisters": {"a": {"name": "a", "didFile": "a.did"}}}`)

	cfg, err := Load(path)
	s.Require().NoError(err)
	s.Equal("generated", cfg.OutDir)
	mode, explicit := cfg.ResolveMode("a")
	s.True(explicit)
	s.Equal(ModeRaw, mode)
}

func (s *ConfigSuite) TestLoadRejectsUnknownMode() {
	path := s.write(FileName, `{"outDir": "out", "canisters": {"a": {"name": "a", "didFile": "a.did", "mode": "fancy"}}}`)
	_, err := Load(path)
	s.ErrorContains(err, "unknown reactor mode")
}

func (s *ConfigSuite) TestLoadInvalidJSON() {
	path := s.write(FileName, `{"outDir": `)
	_, err := Load(path)
	s.ErrorContains(err, "failed to parse")
}

func TestResolveMode(t *testing.T) {
	yes, no := true, false
	testCases := []struct {
		name         string
		cfg          Config
		wantMode     ReactorMode
		wantExplicit bool
	}{
		{
			name:     "default",
			cfg:      Config{Canisters: map[string]CanisterConfig{"c": {}}},
			wantMode: ModeDisplay,
		},
		{
			name:         "canister mode wins",
			cfg:          Config{Canisters: map[string]CanisterConfig{"c": {Mode: ModeRaw, UseDisplayReactor: &yes}}, Reactor: &ReactorConfig{DefaultMode: ModeDisplay}},
			wantMode:     ModeRaw,
			wantExplicit: true,
		},
		{
			name:         "reactor override",
			cfg:          Config{Canisters: map[string]CanisterConfig{"c": {}}, Reactor: &ReactorConfig{DefaultMode: ModeDisplay, Canisters: map[string]ReactorMode{"c": ModeRaw}}},
			wantMode:     ModeRaw,
			wantExplicit: true,
		},
		{
			name:         "useDisplayReactor false",
			cfg:          Config{Canisters: map[string]CanisterConfig{"c": {UseDisplayReactor: &no}}},
			wantMode:     ModeRaw,
			wantExplicit: true,
		},
		{
			name:         "reactor default",
			cfg:          Config{Canisters: map[string]CanisterConfig{"c": {}}, Reactor: &ReactorConfig{DefaultMode: ModeRaw}},
			wantMode:     ModeRaw,
			wantExplicit: true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mode, explicit := tc.cfg.ResolveMode("c")
			assert.Equal(t, tc.wantMode, mode)
			assert.Equal(t, tc.wantExplicit, explicit)
		})
	}
}

func TestRelativeImport(t *testing.T) {
	rel, err := RelativeImport("/p/src/declarations/backend/index.ts", "/p/src/clients")
	require.NoError(t, err)
	assert.Equal(t, "../../clients", rel)

	rel, err = RelativeImport("/p/src/index.ts", "/p/src/clients")
	require.NoError(t, err)
	assert.Equal(t, "./clients", rel)
}

func TestCanisterNames(t *testing.T) {
	cfg := Config{Canisters: map[string]CanisterConfig{"b": {}, "a": {}}}

	names, err := cfg.CanisterNames("")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	names, err = cfg.CanisterNames("b")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, names)

	_, err = cfg.CanisterNames("missing")
	assert.ErrorContains(t, err, `canister "missing" not found`)
}

func TestSchemaValidation(t *testing.T) {
	schema, err := JSONSchema()
	require.NoError(t, err)
	assert.Contains(t, string(schema), `"enum"`)
	assert.Contains(t, string(schema), SchemaURL)

	valid := []byte(`{"$schema": "x", "outDir": "src/declarations", "canisters": {"b": {"name": "b", "didFile": "b.did", "mode": "raw"}}}`)
	assert.NoError(t, Validate(valid))

	badMode := []byte(`{"outDir": "src/declarations", "canisters": {"b": {"name": "b", "didFile": "b.did", "mode": "fancy"}}}`)
	assert.ErrorContains(t, Validate(badMode), "invalid "+FileName)

	missingDid := []byte(`{"outDir": "src/declarations", "canisters": {"b": {"name": "b"}}}`)
	assert.Error(t, Validate(missingDid))
}

func TestSetGeneratedHooks(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.SetGeneratedHooks("backend", []string{"greet"}))
	assert.False(t, cfg.SetGeneratedHooks("backend", []string{"greet"}))
	assert.True(t, cfg.SetGeneratedHooks("backend", []string{"greet", "set_greeting"}))
	assert.Equal(t, []string{"greet", "set_greeting"}, cfg.GeneratedHooks["backend"])
}
