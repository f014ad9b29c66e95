// Package config loads the todo client settings and persists the login
// session between runs.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/sethvargo/go-envconfig"
)

const (
	DefaultAPIURL = "http://localhost:8000/api"

	appDirName      = "todo"
	configFileName  = "config.toml"
	sessionFileName = "session.toml"
)

// Config is read from config.toml; environment variables override the file.
type Config struct {
	APIURL string `toml:"api_url" env:"TODO_API_URL, overwrite"`

	// Dir holds config.toml and session.toml.
	Dir string `toml:"-" env:"TODO_CONFIG_DIR, overwrite"`
}

// SessionPath is where the login session is stored.
func (c *Config) SessionPath() string {
	return filepath.Join(c.Dir, sessionFileName)
}

// Load resolves the configuration directory, decodes config.toml if present,
// then applies environment overrides.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith is Load with an explicit lookuper, used by tests.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	cfg := &Config{}

	// The directory may itself come from the environment.
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: env: %w", err)
	}
	if cfg.Dir == "" {
		dir, err := defaultDir()
		if err != nil {
			return nil, err
		}
		cfg.Dir = dir
	}

	path := filepath.Join(cfg.Dir, configFileName)
	if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: loading %s: %w", path, err)
	}

	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: env: %w", err)
	}

	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	return cfg, nil
}

func defaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return "", fmt.Errorf("config: no config directory: %w", err)
		}
		return filepath.Join(home, "."+appDirName), nil
	}
	return filepath.Join(base, appDirName), nil
}
