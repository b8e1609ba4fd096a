package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// FileName is the optional configuration file looked up under the home directory.
const FileName = "xvm.yaml"

// Config captures the directories and behaviour knobs of the version manager.
type Config struct {
	Home  string     `mapstructure:"home" yaml:"home,omitempty"`
	Data  string     `mapstructure:"data" yaml:"data,omitempty"`
	Subos string     `mapstructure:"subos" yaml:"subos,omitempty"`
	Log   LogConfig  `mapstructure:"log" yaml:"log"`
	Shim  ShimConfig `mapstructure:"shim" yaml:"shim"`
}

// LogConfig controls console verbosity and the optional log file.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  bool   `mapstructure:"file" yaml:"file"`
}

// ShimConfig controls shim creation.
type ShimConfig struct {
	// Dispatcher is the binary hard-linked or copied for every shim.
	// Empty means the running executable.
	Dispatcher string `mapstructure:"dispatcher" yaml:"dispatcher,omitempty"`
}

var envBindings = map[string]string{
	"home":            "XLINGS_HOME",
	"data":            "XLINGS_DATA",
	"subos":           "XLINGS_SUBOS",
	"log.level":       "XVM_LOG_LEVEL",
	"log.file":        "XVM_LOG_FILE",
	"shim.dispatcher": "XVM_SHIM_DISPATCHER",
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// DefaultHome returns XLINGS_HOME or ~/.xlings.
func DefaultHome() (string, error) {
	if home := strings.TrimSpace(os.Getenv("XLINGS_HOME")); home != "" {
		return filepath.Abs(home)
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("detect user home: %w", err)
	}
	return filepath.Join(userHome, ".xlings"), nil
}

// DefaultPath returns the config file location used when no path is given.
func DefaultPath() (string, error) {
	home, err := DefaultHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, FileName), nil
}

// Load reads configuration from path (or DefaultPath when empty), overlays
// environment variables, fills derived directories and validates the result.
// A missing file yields the defaults.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return Config{}, err
		}
	}

	v := viper.New()
	v.SetConfigType("yaml")
	defaults := Default()
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.file", defaults.Log.File)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if explicit || !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("stat config: %w", err)
	}

	cfg := defaults
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.ApplyDefaults(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills the directory fields that were left empty.
func (c *Config) ApplyDefaults() error {
	if strings.TrimSpace(c.Home) == "" {
		home, err := DefaultHome()
		if err != nil {
			return err
		}
		c.Home = home
	}
	if strings.TrimSpace(c.Data) == "" {
		c.Data = filepath.Join(c.Home, "data")
	}
	if strings.TrimSpace(c.Subos) == "" {
		c.Subos = filepath.Join(c.Home, "subos", "default")
	}
	for _, dir := range []*string{&c.Home, &c.Data, &c.Subos} {
		abs, err := filepath.Abs(*dir)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", *dir, err)
		}
		*dir = abs
	}
	if strings.TrimSpace(c.Log.Level) == "" {
		c.Log.Level = Default().Log.Level
	}
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	return nil
}

// Marshal renders the configuration to YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
