package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	configDir  = ".queryreport"
	configFile = "config"
	configType = "yaml"
	envPrefix  = "QUERYREPORT"
)

// Load reads the configuration from path, or from ~/.queryreport/config.yaml
// when path is empty. A .env file in the working directory is loaded first;
// QUERYREPORT_* variables override file values.
// Returns a config with defaults if the default file does not exist.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigType(configType)

	// Defaults
	v.SetDefault("preferences.theme", "default")
	v.SetDefault("preferences.default_connection", "")
	v.SetDefault("preferences.log_level", "info")
	v.SetDefault("report.catalog", "")
	v.SetDefault("report.preview_length", 100)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		dir, err := configDirPath()
		if err != nil {
			return nil, fmt.Errorf("config dir: %w", err)
		}
		v.SetConfigName(configFile)
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to path, or to ~/.queryreport/config.yaml
// when path is empty. Passwords are never written.
func Save(cfg *Config, path string) error {
	if path == "" {
		dir, err := configDirPath()
		if err != nil {
			return fmt.Errorf("config dir: %w", err)
		}
		path = filepath.Join(dir, configFile+"."+configType)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	conns := make([]map[string]any, len(cfg.Connections))
	for i, c := range cfg.Connections {
		conns[i] = map[string]any{
			"name":     c.Name,
			"driver":   c.Driver,
			"host":     c.Host,
			"port":     c.Port,
			"database": c.Database,
			"username": c.Username,
			"sslmode":  c.SSLMode,
		}
	}

	v := viper.New()
	v.SetConfigType(configType)
	v.Set("connections", conns)
	v.Set("preferences", map[string]any{
		"theme":              cfg.Preferences.Theme,
		"default_connection": cfg.Preferences.DefaultConnection,
		"log_level":          cfg.Preferences.LogLevel,
	})
	v.Set("report", map[string]any{
		"catalog":        cfg.Report.Catalog,
		"preview_length": cfg.Report.PreviewLength,
	})

	return v.WriteConfigAs(path)
}

// DefaultConnection returns the default connection from config, or the first one.
func DefaultConnection(cfg *Config) *Connection {
	if len(cfg.Connections) == 0 {
		return nil
	}

	if cfg.Preferences.DefaultConnection != "" {
		if c, ok := cfg.Lookup(cfg.Preferences.DefaultConnection); ok {
			return c
		}
	}

	return &cfg.Connections[0]
}

// Select picks the connection for a run: a DSN wins over a profile name,
// which wins over the default profile.
func Select(cfg *Config, dsn, name string) (Connection, error) {
	if dsn != "" {
		return ParseDSN(dsn)
	}

	if name != "" {
		c, ok := cfg.Lookup(name)
		if !ok {
			return Connection{}, fmt.Errorf("%w: no profile named %q", ErrNoConnection, name)
		}
		return *c, nil
	}

	if c := DefaultConnection(cfg); c != nil {
		return *c, nil
	}
	return Connection{}, ErrNoConnection
}

func configDirPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configDir), nil
}
