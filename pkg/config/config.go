package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/imdario/mergo"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const environmentVariablePrefix = "IC_REACTOR"

var (
	environmentVariableReplace = strings.NewReplacer(".", "_")
	configDecoderHook          = viper.DecodeHook(mapstructure.TextUnmarshallerHookFunc())
)

// ErrNotFound is returned by Find when no config file exists up to the
// file system root.
var ErrNotFound = errors.Errorf("%s not found", FileName)

// Find walks from startDir up to the root and returns the first config file.
func Find(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNotFound
		}
		dir = parent
	}
}

// overrides are the settings that can be replaced from the environment,
// e.g. IC_REACTOR_OUTDIR or IC_REACTOR_REACTOR_DEFAULTMODE.
type overrides struct {
	OutDir            string `mapstructure:"outdir"`
	ClientManagerPath string `mapstructure:"clientmanagerpath"`
	Reactor           struct {
		DefaultMode ReactorMode `mapstructure:"defaultmode"`
	} `mapstructure:"reactor"`
}

// Load reads a config file and applies environment overrides and defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	// viper folds key case and canister names are case sensitive, so the
	// document itself is decoded directly.
	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}

	ov, err := loadOverrides(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s", path)
	}
	cfg.OutDir = ov.OutDir
	cfg.ClientManagerPath = ov.ClientManagerPath
	if ov.Reactor.DefaultMode != "" {
		if cfg.Reactor == nil {
			cfg.Reactor = &ReactorConfig{}
		}
		cfg.Reactor.DefaultMode = ov.Reactor.DefaultMode
	}

	if err := mergo.Merge(cfg, Default()); err != nil {
		return nil, errors.Wrap(err, "failed to apply config defaults")
	}
	for name, canister := range cfg.Canisters {
		if canister.Name == "" {
			canister.Name = name
			cfg.Canisters[name] = canister
		}
	}
	return cfg, nil
}

func loadOverrides(data []byte) (overrides, error) {
	v := viper.New()
	v.SetConfigType("json")
	v.SetEnvPrefix(environmentVariablePrefix)
	v.SetEnvKeyReplacer(environmentVariableReplace)
	v.AutomaticEnv()
	for _, key := range []string{"outDir", "clientManagerPath", "reactor.defaultMode"} {
		if err := v.BindEnv(key); err != nil {
			return overrides{}, err
		}
	}
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return overrides{}, err
	}

	var ov overrides
	if err := v.Unmarshal(&ov, configDecoderHook); err != nil {
		return overrides{}, err
	}
	return ov, nil
}

// Save writes cfg as indented JSON with a trailing newline.
func Save(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode config")
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

// ProjectRoot is the directory holding the config file found from
// startDir, or startDir itself.
func ProjectRoot(startDir string) string {
	path, err := Find(startDir)
	if err != nil {
		return startDir
	}
	return filepath.Dir(path)
}

func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

// RelativeImport is the import path of to as seen from the file from,
// always starting with "./" or "../".
func RelativeImport(from, to string) (string, error) {
	rel, err := filepath.Rel(filepath.Dir(from), to)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if !strings.HasPrefix(rel, ".") {
		rel = "./" + rel
	}
	return rel, nil
}

// Resolve makes path absolute against the project root.
func Resolve(projectRoot, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(projectRoot, path)
}
