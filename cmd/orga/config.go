package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/metalagman/orgarhythm/internal/config"
	"github.com/spf13/viper"
)

const (
	defaultConfigPath = ".orga/config.yaml"
	envPrefix         = "ORGA"
)

// loadConfig merges defaults, the config file, ORGA_* environment variables
// and flags, in increasing precedence. A missing default config file is not
// an error.
func loadConfig(repoRoot string) (config.Config, error) {
	for key, value := range config.Defaults() {
		viper.SetDefault(key, value)
	}
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	requested := viper.GetString("config")
	if requested == "" {
		requested = defaultConfigPath
	}
	path := resolveConfigPath(repoRoot, requested)
	if err := mergeConfigFile(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) || requested != defaultConfigPath {
			return config.Config{}, err
		}
	}

	var cfg config.Config
	if err := viper.Unmarshal(&cfg, viper.DecodeHook(config.DecodeHook())); err != nil {
		return config.Config{}, fmt.Errorf("parse config: %w", err)
	}
	if !filepath.IsAbs(cfg.DB.Path) && cfg.DB.Path != ":memory:" {
		cfg.DB.Path = filepath.Join(repoRoot, cfg.DB.Path)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// mergeConfigFile validates the file against the config schema before
// merging it, so env and flag overrides are not subject to the schema.
func mergeConfigFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	fileViper := viper.New()
	fileViper.SetConfigFile(path)
	if err := fileViper.ReadInConfig(); err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	settings := fileViper.AllSettings()
	if err := config.ValidateSettings(settings); err != nil {
		return err
	}
	if err := viper.MergeConfigMap(settings); err != nil {
		return fmt.Errorf("merge config: %w", err)
	}
	return nil
}

// resolveConfigPath makes path absolute against repoRoot. When the requested
// YAML file does not exist but a JSON twin does, the JSON file is used.
func resolveConfigPath(repoRoot, path string) string {
	if !filepath.IsAbs(path) {
		path = filepath.Join(repoRoot, path)
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	ext := filepath.Ext(path)
	if ext == ".yaml" || ext == ".yml" {
		alt := strings.TrimSuffix(path, ext) + ".json"
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}
	return path
}
