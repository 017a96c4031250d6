package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/viper"
)

// Output formats understood by the CLI.
const (
	FormatText = "text"
	FormatEnv  = "env"
	FormatJSON = "json"
)

const envPrefix = "PROGNAME"

// Config captures every knob of a program-name run.
type Config struct {
	// Prefix tags every name, e.g. "OS-303".
	Prefix string `mapstructure:"prefix"`
	// Variable is the build variable that receives the name.
	Variable string `mapstructure:"variable"`
	// VersionOption is the project option the version is read from.
	VersionOption string `mapstructure:"version_option"`
	// ProjectVersion, when set, is used instead of the project file value.
	ProjectVersion string `mapstructure:"project_version"`

	RepoDir     string `mapstructure:"repo_dir"`
	ProjectFile string `mapstructure:"project_file"`
	// Environment selects the [env:NAME] section; PIOENV is honoured when unset.
	Environment string `mapstructure:"environment"`

	// FallbackRevision replaces the git revision when the lookup fails.
	// Empty means a failed lookup fails the run.
	FallbackRevision string `mapstructure:"fallback_revision"`

	EnvFile  string `mapstructure:"env_file"`
	Manifest string `mapstructure:"manifest"`
	Format   string `mapstructure:"format"`

	Git     GitConfig     `mapstructure:"git"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// GitConfig controls how the working copy is queried.
type GitConfig struct {
	Binary     string   `mapstructure:"binary"`
	TimeoutSec int      `mapstructure:"timeout_sec"`
	Ignore     []string `mapstructure:"ignore"`
}

// LoggingConfig describes log destination and verbosity.
type LoggingConfig struct {
	File   string `mapstructure:"file"`
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// keys lists every setting so viper binds a PROGNAME_* variable for each.
var keys = []string{
	"prefix",
	"variable",
	"version_option",
	"project_version",
	"repo_dir",
	"project_file",
	"environment",
	"fallback_revision",
	"env_file",
	"manifest",
	"format",
	"git.binary",
	"git.timeout_sec",
	"git.ignore",
	"logging.file",
	"logging.level",
	"logging.format",
}

// DefaultPath returns the config path honoring PROGNAME_CONFIG.
func DefaultPath() string {
	if override := os.Getenv("PROGNAME_CONFIG"); override != "" {
		return override
	}
	return ".progname.yaml"
}

// Load reads the config file (YAML, JSON or TOML by extension), applies
// PROGNAME_* environment overrides, defaults and validation. The file at
// DefaultPath may be absent; any other path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if path != "" {
		_, statErr := os.Stat(path)
		switch {
		case statErr == nil:
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config: %w", err)
			}
		case errors.Is(statErr, fs.ErrNotExist) && path == DefaultPath():
		default:
			return nil, fmt.Errorf("read config: %w", statErr)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnvOverrides()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the run cannot work with.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Prefix) == "":
		return errors.New("prefix is required")
	case strings.TrimSpace(c.Variable) == "":
		return errors.New("variable is required")
	case strings.TrimSpace(c.VersionOption) == "":
		return errors.New("version_option is required")
	case c.Git.TimeoutSec < 0:
		return errors.New("git.timeout_sec must not be negative")
	}
	switch c.Format {
	case FormatText, FormatEnv, FormatJSON:
	default:
		return fmt.Errorf("unknown format %q (want text, env or json)", c.Format)
	}
	for _, pattern := range c.Git.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("git.ignore: invalid pattern %q", pattern)
		}
	}
	return nil
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Prefix == "" {
		c.Prefix = "OS-303"
	}
	if c.Variable == "" {
		c.Variable = "PROGNAME"
	}
	if c.VersionOption == "" {
		c.VersionOption = "project_version"
	}
	if c.RepoDir == "" {
		c.RepoDir = "."
	}
	if c.Format == "" {
		c.Format = FormatText
	}
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	if c.Git.Binary == "" {
		c.Git.Binary = "git"
	}
	if c.Git.TimeoutSec == 0 {
		c.Git.TimeoutSec = 10
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "warn"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
}

// ProjectPath is ProjectFile, or platformio.ini inside RepoDir when unset.
func (c *Config) ProjectPath() string {
	if c.ProjectFile != "" {
		return c.ProjectFile
	}
	return filepath.Join(c.RepoDir, "platformio.ini")
}

func (c *Config) applyEnvOverrides() {
	// PlatformIO exports the active environment to extra scripts.
	if c.Environment == "" {
		if v := os.Getenv("PIOENV"); v != "" {
			c.Environment = v
		}
	}
	if c.Logging.File == "" {
		if v := os.Getenv("LOG_FILE"); v != "" {
			c.Logging.File = v
		}
	}
}
