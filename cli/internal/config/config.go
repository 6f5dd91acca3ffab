// Package config loads staticsql settings from .staticsql.yaml, STATICSQL_*
// environment variables and .env files.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/satishbabariya/staticsql/generator/codegen"
)

// AppFs is the filesystem configuration, input and output go through.
var AppFs = afero.NewOsFs()

const (
	// FileName is the config file name without extension.
	FileName = ".staticsql"
	// EnvPrefix prefixes environment overrides, e.g. STATICSQL_PACKAGE.
	EnvPrefix = "STATICSQL"
)

// Config holds the application configuration
type Config struct {
	Queries       string
	Output        string
	Package       string
	Migration     string
	RuntimeImport string
	Strict        bool
	Models        bool
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetFs(AppFs)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("queries", "queries.sql")
	v.SetDefault("output", "./db")
	v.SetDefault("package", "db")
	v.SetDefault("migration", "")
	v.SetDefault("runtime_import", codegen.DefaultRuntimeImport)
	v.SetDefault("strict", false)
	v.SetDefault("models", true)
	return v
}

// LoadConfig loads configuration from configFile, or from .staticsql.yaml in
// the working directory, the home directory or ~/.config/staticsql.
func LoadConfig(configFile string) (*Config, error) {
	loadDotEnv()

	v := newViper()
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", configFile, err)
		}
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return nil, fmt.Errorf("failed to find home directory: %w", err)
		}
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(home)
		v.AddConfigPath(filepath.Join(home, ".config", "staticsql"))

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	return &Config{
		Queries:       v.GetString("queries"),
		Output:        v.GetString("output"),
		Package:       v.GetString("package"),
		Migration:     v.GetString("migration"),
		RuntimeImport: v.GetString("runtime_import"),
		Strict:        v.GetBool("strict"),
		Models:        v.GetBool("models"),
	}, nil
}

// loadDotEnv loads .env and then .env.local, which wins. Missing or
// unreadable files are ignored.
func loadDotEnv() {
	if _, err := AppFs.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
	if _, err := AppFs.Stat(".env.local"); err == nil {
		_ = godotenv.Overload(".env.local")
	}
}

// SaveConfig writes cfg to path as YAML.
func SaveConfig(cfg *Config, path string) error {
	v := viper.New()
	v.SetFs(AppFs)
	v.Set("queries", cfg.Queries)
	v.Set("output", cfg.Output)
	v.Set("package", cfg.Package)
	if cfg.Migration != "" {
		v.Set("migration", cfg.Migration)
	}
	if cfg.RuntimeImport != "" && cfg.RuntimeImport != codegen.DefaultRuntimeImport {
		v.Set("runtime_import", cfg.RuntimeImport)
	}
	v.Set("strict", cfg.Strict)
	v.Set("models", cfg.Models)

	if dir := filepath.Dir(path); dir != "." {
		if err := AppFs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
