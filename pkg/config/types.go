package config

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const (
	FileName = "ic-reactor.json"

	SchemaURL = "https://raw.githubusercontent.com/B3Pay/ic-reactor/main/packages/cli/schema.json"

	DefaultOutDir            = "src/declarations"
	DefaultClientManagerPath = "../../clients"
)

// ReactorMode selects the reactor class used by generated files.
type ReactorMode string

const (
	ModeDisplay ReactorMode = "display"
	ModeRaw     ReactorMode = "raw"
)

// ReactorModes lists the accepted modes.
func ReactorModes() []string {
	return []string{string(ModeDisplay), string(ModeRaw)}
}

// UnmarshalText accepts the mode names and the reactor class names they
// stand for.
func (m *ReactorMode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "display", "DisplayReactor":
		*m = ModeDisplay
	case "raw", "Reactor":
		*m = ModeRaw
	case "":
		*m = ""
	default:
		return errors.Errorf("unknown reactor mode %q, expected one of %v", string(text), ReactorModes())
	}
	return nil
}

// ReactorClass is the TypeScript class generated for the mode.
func (m ReactorMode) ReactorClass() string {
	if m == ModeRaw {
		return "Reactor"
	}
	return "DisplayReactor"
}

// Config is the content of ic-reactor.json.
type Config struct {
	Schema            string                    `json:"$schema,omitempty"`
	OutDir            string                    `json:"outDir"`
	ClientManagerPath string                    `json:"clientManagerPath,omitempty"`
	Reactor           *ReactorConfig            `json:"reactor,omitempty"`
	Canisters         map[string]CanisterConfig `json:"canisters"`
	// GeneratedHooks records the methods hooks were generated for, per canister.
	GeneratedHooks map[string][]string `json:"generatedHooks,omitempty"`
}

// ReactorConfig sets the reactor mode for all canisters, with per-canister
// overrides.
type ReactorConfig struct {
	DefaultMode ReactorMode            `json:"defaultMode,omitempty"`
	Canisters   map[string]ReactorMode `json:"canisters,omitempty"`
}

type CanisterConfig struct {
	Name              string      `json:"name"`
	DidFile           string      `json:"didFile"`
	OutDir            string      `json:"outDir,omitempty"`
	ClientManagerPath string      `json:"clientManagerPath,omitempty"`
	UseDisplayReactor *bool       `json:"useDisplayReactor,omitempty"`
	Mode              ReactorMode `json:"mode,omitempty"`
	CanisterID        string      `json:"canisterId,omitempty"`
}

// Default returns the configuration written by init.
func Default() *Config {
	return &Config{
		Schema:    SchemaURL,
		OutDir:    DefaultOutDir,
		Canisters: map[string]CanisterConfig{},
	}
}

// ResolveMode picks the reactor mode of a canister. The first setting found
// wins: the canister's mode, the reactor override for the canister, the
// canister's useDisplayReactor flag, the reactor default. explicit reports
// whether any setting was found.
func (c *Config) ResolveMode(name string) (mode ReactorMode, explicit bool) {
	canister := c.Canisters[name]
	if canister.Mode != "" {
		return canister.Mode, true
	}
	if c.Reactor != nil {
		if m, ok := c.Reactor.Canisters[name]; ok && m != "" {
			return m, true
		}
	}
	if canister.UseDisplayReactor != nil {
		if *canister.UseDisplayReactor {
			return ModeDisplay, true
		}
		return ModeRaw, true
	}
	if c.Reactor != nil && c.Reactor.DefaultMode != "" {
		return c.Reactor.DefaultMode, true
	}
	return ModeDisplay, false
}

// CanisterOutDir is the output directory of a canister relative to the
// project root.
func (c *Config) CanisterOutDir(name string) string {
	if canister, ok := c.Canisters[name]; ok && canister.OutDir != "" {
		return canister.OutDir
	}
	return c.OutDir + "/" + name
}

// ClientManagerPathFor is the client manager import used by a canister's
// generated file.
func (c *Config) ClientManagerPathFor(name string) string {
	if canister, ok := c.Canisters[name]; ok && canister.ClientManagerPath != "" {
		return canister.ClientManagerPath
	}
	if c.ClientManagerPath != "" {
		return c.ClientManagerPath
	}
	return DefaultClientManagerPath
}

// CanisterNames returns the configured names, or only name when it is set.
func (c *Config) CanisterNames(name string) ([]string, error) {
	if name != "" {
		if _, ok := c.Canisters[name]; !ok {
			return nil, errors.Errorf("canister %q not found in %s", name, FileName)
		}
		return []string{name}, nil
	}
	names := maps.Keys(c.Canisters)
	slices.Sort(names)
	return names, nil
}

// SetGeneratedHooks records the methods generated for a canister and
// reports whether the record changed.
func (c *Config) SetGeneratedHooks(name string, methods []string) bool {
	if slices.Equal(c.GeneratedHooks[name], methods) {
		return false
	}
	if c.GeneratedHooks == nil {
		c.GeneratedHooks = map[string][]string{}
	}
	c.GeneratedHooks[name] = slices.Clone(methods)
	return true
}
