package util

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/B3Pay/ic-reactor-sub004/pkg/config"
)

// ConfigPathKey holds the --config flag, also set by IC_REACTOR_CONFIG.
const ConfigPathKey = "config"

func ConfigPath() string {
	return viper.GetString(ConfigPathKey)
}

// Project is a loaded ic-reactor.json with the directory it lives in.
type Project struct {
	Root       string
	ConfigPath string
	Config     *config.Config
}

// FindConfigPath returns configPath made absolute, or the config found
// from the working directory upwards when it is empty.
func FindConfigPath(configPath string) (string, error) {
	if configPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		configPath, err = config.Find(wd)
		if errors.Is(err, config.ErrNotFound) {
			return "", errors.Errorf("no %s found, run 'ic-reactor init' first", config.FileName)
		}
		if err != nil {
			return "", err
		}
	}
	return filepath.Abs(configPath)
}

// LoadProject loads the config at configPath, or the one found from the
// working directory upwards.
func LoadProject(configPath string) (*Project, error) {
	configPath, err := FindConfigPath(configPath)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return &Project{
		Root:       filepath.Dir(configPath),
		ConfigPath: configPath,
		Config:     cfg,
	}, nil
}

// Save writes the project config back to its file.
func (p *Project) Save() error {
	return config.Save(p.Config, p.ConfigPath)
}

// Rel shortens path for display relative to the project root.
func (p *Project) Rel(path string) string {
	rel, err := filepath.Rel(p.Root, path)
	if err != nil {
		return path
	}
	return rel
}
