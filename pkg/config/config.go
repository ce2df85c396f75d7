// Package config holds the runtime-tunable sizes for an EdgeMCP instance:
// tool capacity, execution-context capacity, bytecode limits, and the
// on-disk location of the persistent KV store. It is loaded once at
// startup via a Provider and is otherwise read-only for the life of the
// process; callers that need to change it go through UpdateConfig so the
// change is persisted back to disk.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// Config holds the persisted, user-tunable settings for one EdgeMCP
// instance.
type Config struct {
	// MaxToolCount bounds the tool registry's fixed-capacity slot vector.
	MaxToolCount int `yaml:"maxToolCount"`
	// ExecutionContextCapacity bounds the number of variables an
	// execution context may hold.
	ExecutionContextCapacity int `yaml:"executionContextCapacity"`
	// BytecodeStackDepth bounds the bytecode interpreter's operand stack.
	BytecodeStackDepth int `yaml:"bytecodeStackDepth"`
	// BytecodeStepBudget bounds the bytecode interpreter's instruction
	// count before a run fails with Timeout.
	BytecodeStepBudget int `yaml:"bytecodeStepBudget"`
	// KVStorePath is the sqlite database file backing persistent tool
	// and auth state.
	KVStorePath string `yaml:"kvStorePath"`
	// AuthStrictMode, when true, rejects a caller presenting auth method
	// "none" once a non-none auth method has been configured (spec
	// §4.I open question, resolved in SPEC_FULL.md: default true).
	AuthStrictMode bool `yaml:"authStrictMode"`
	// HTTPListenAddr is the loopback address the optional httpframe
	// transport binds to. Empty disables the HTTP transport.
	HTTPListenAddr string `yaml:"httpListenAddr"`
}

// defaultConfig returns the built-in defaults. The execution-context
// capacity, bytecode stack depth, and bytecode step budget are literals
// equal to the values the lower layers fall back to when a zero value is
// passed in; MaxToolCount has no such fallback.
func defaultConfig() *Config {
	return &Config{
		MaxToolCount:              256,
		ExecutionContextCapacity:  32,
		BytecodeStackDepth:        256,
		BytecodeStepBudget:        100_000,
		KVStorePath:               defaultKVStorePath(),
		AuthStrictMode:            true,
		HTTPListenAddr:            "",
	}
}

func defaultKVStorePath() string {
	path, err := xdg.DataFile("edgemcp/state.db")
	if err != nil {
		return "edgemcp-state.db"
	}
	return path
}

// Provider abstracts where a Config comes from and where updates to it
// are persisted. DefaultProvider is the on-device singleton location;
// PathProvider targets an explicit file (used by tests and the --config
// flag).
type Provider interface {
	GetConfig() *Config
	LoadOrCreateConfig() (*Config, error)
	UpdateConfig(updateFn func(*Config)) error
}

// DefaultProvider reads and writes the XDG config file at
// $XDG_CONFIG_HOME/edgemcp/config.yaml.
type DefaultProvider struct{}

// NewDefaultProvider returns a Provider backed by the XDG config location.
func NewDefaultProvider() *DefaultProvider { return &DefaultProvider{} }

func (*DefaultProvider) path() (string, error) {
	return xdg.ConfigFile("edgemcp/config.yaml")
}

// GetConfig loads the config, falling back to defaults on any read error.
func (p *DefaultProvider) GetConfig() *Config {
	cfg, err := p.LoadOrCreateConfig()
	if err != nil {
		return defaultConfig()
	}
	return cfg
}

// LoadOrCreateConfig reads the config file, creating it with defaults if
// it does not yet exist.
func (p *DefaultProvider) LoadOrCreateConfig() (*Config, error) {
	path, err := p.path()
	if err != nil {
		return nil, fmt.Errorf("config: resolving path: %w", err)
	}
	return LoadOrCreateConfigFromPath(path)
}

// UpdateConfig loads the config, applies updateFn, and saves the result.
func (p *DefaultProvider) UpdateConfig(updateFn func(*Config)) error {
	path, err := p.path()
	if err != nil {
		return fmt.Errorf("config: resolving path: %w", err)
	}
	return UpdateConfigAtPath(path, updateFn)
}

// PathProvider targets an explicit config file path, bypassing XDG
// resolution. Used by the --config flag and by tests that need isolation
// from the real on-device config file.
type PathProvider struct {
	configPath string
}

// NewPathProvider returns a Provider backed by configPath.
func NewPathProvider(configPath string) *PathProvider {
	return &PathProvider{configPath: configPath}
}

// GetConfig loads the config, falling back to defaults on any read error.
func (p *PathProvider) GetConfig() *Config {
	cfg, err := LoadOrCreateConfigFromPath(p.configPath)
	if err != nil {
		return defaultConfig()
	}
	return cfg
}

// LoadOrCreateConfig reads the config file, creating it with defaults if
// it does not yet exist.
func (p *PathProvider) LoadOrCreateConfig() (*Config, error) {
	return LoadOrCreateConfigFromPath(p.configPath)
}

// UpdateConfig loads the config, applies updateFn, and saves the result.
func (p *PathProvider) UpdateConfig(updateFn func(*Config)) error {
	return UpdateConfigAtPath(p.configPath, updateFn)
}

// LoadOrCreateConfigFromPath reads the yaml config at path, or writes out
// the default config if no file exists there yet.
func LoadOrCreateConfigFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := defaultConfig()
		if err := cfg.saveToPath(path); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// UpdateConfigAtPath loads the config at path, applies updateFn, and
// writes the result back.
func UpdateConfigAtPath(path string, updateFn func(*Config)) error {
	cfg, err := LoadOrCreateConfigFromPath(path)
	if err != nil {
		return err
	}
	updateFn(cfg)
	return cfg.saveToPath(path)
}

func (c *Config) saveToPath(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: creating directory %s: %w", dir, err)
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshaling: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: writing %s: %w", path, err)
	}
	return nil
}
