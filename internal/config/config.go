package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"repodump/models"
)

const (
	DefaultConfigDir  = ".repodump"
	DefaultConfigFile = "config.yaml"
	DefaultHistoryDB  = ".repodump/history.db"
	DefaultLogDir     = ".repodump/logs"
)

// Load reads the config file and returns a populated, validated Config.
// A missing file yields the defaults. configPath may override the default
// location (~/.repodump/config.yaml).
func Load(configPath string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("cannot determine home directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("REPODUMP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(filepath.Join(home, DefaultConfigDir))
	}

	setDefaults(v, home)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !isNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// No config yet — defaults apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Credentials.GitHubToken = ExpandEnv(cfg.Credentials.GitHubToken)
	cfg.Credentials.GitLabToken = ExpandEnv(cfg.Credentials.GitLabToken)
	expandPaths(&cfg, home)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the config to disk as YAML.
func Save(cfg *Config, configPath string) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("cannot determine home directory: %w", err)
	}

	if configPath == "" {
		configPath = filepath.Join(home, DefaultConfigDir, DefaultConfigFile)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("serialising config: %w", err)
	}

	return os.WriteFile(configPath, data, 0o600)
}

// Validate checks the invariants the engine and clients rely on.
func (c *Config) Validate() error {
	if c.Download.MaxParallel < 1 || c.Download.MaxParallel > 20 {
		return fmt.Errorf("download.max_parallel must be between 1 and 20, got %d",
			c.Download.MaxParallel)
	}
	switch c.History.Driver {
	case "", "sqlite", "sqlite3", "mysql":
	default:
		return fmt.Errorf("history.driver %q not supported (sqlite, mysql)", c.History.Driver)
	}
	for i, t := range c.Targets {
		if !models.Platform(t.Platform).Valid() {
			return fmt.Errorf("targets[%d]: unsupported platform %q", i, t.Platform)
		}
		if t.Username == "" {
			return fmt.Errorf("targets[%d]: username is required", i)
		}
	}
	return nil
}

// ConfigPath returns the effective config file path.
func ConfigPath(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DefaultConfigDir, DefaultConfigFile), nil
}

// LogDir returns ~/.repodump/logs, creating it if needed.
func LogDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, DefaultLogDir)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("creating log directory %s: %w", dir, err)
	}
	return dir, nil
}

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ExpandEnv resolves ${VAR} references against the environment. Unset
// variables are left as-is so a missing secret is visible, not silently
// emptied.
func ExpandEnv(value string) string {
	return envPattern.ReplaceAllStringFunc(value, func(match string) string {
		name := match[2 : len(match)-1]
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return match
	})
}

// setDefaults populates viper with sensible out-of-the-box values.
func setDefaults(v *viper.Viper, home string) {
	v.SetDefault("download.base_directory", "./repos")
	v.SetDefault("download.max_parallel", 5)
	v.SetDefault("download.include_forks", true)
	v.SetDefault("download.include_private", true)

	v.SetDefault("history.driver", "sqlite")
	v.SetDefault("history.path", filepath.Join(home, DefaultHistoryDB))
	v.SetDefault("history.dsn", "")
}

// expandPaths resolves ~ in configured paths.
func expandPaths(cfg *Config, home string) {
	cfg.Download.BaseDirectory = expandHome(cfg.Download.BaseDirectory, home)
	cfg.History.Path = expandHome(cfg.History.Path, home)
}

func expandHome(path, home string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

func isNotExist(err error) bool {
	return os.IsNotExist(err) || strings.Contains(err.Error(), "no such file")
}
