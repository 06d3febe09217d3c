package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/metalagman/orgarhythm/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a new orga project",
		Long:  "Initialize a new orga project by creating the .orga directory, the task database and a default config.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			repoRoot, err := os.Getwd()
			if err != nil {
				return err
			}

			orgaDir := filepath.Join(repoRoot, ".orga")
			log.Info().Str("dir", orgaDir).Msg("creating orga directory")
			if err := os.MkdirAll(orgaDir, 0o755); err != nil {
				return fmt.Errorf("create orga dir: %w", err)
			}

			configPath := filepath.Join(repoRoot, defaultConfigPath)
			if _, err := os.Stat(configPath); err == nil {
				log.Info().Msg("config.yaml already exists, skipping")
			} else {
				log.Info().Str("path", configPath).Msg("installing default config")
				data, err := yaml.Marshal(nestedDefaults())
				if err != nil {
					return fmt.Errorf("encode default config: %w", err)
				}
				if err := os.WriteFile(configPath, data, 0o644); err != nil {
					return fmt.Errorf("write default config: %w", err)
				}
			}

			_, closeFn, err := openStores(cmd)
			if err != nil {
				return err
			}
			defer closeFn()
			log.Info().Str("path", configFrom(cmd).DB.Path).Msg("database ready")
			return nil
		},
	}
}

// nestedDefaults expands the dotted default keys into config file sections.
func nestedDefaults() map[string]any {
	out := map[string]any{}
	for key, value := range config.Defaults() {
		section, field, _ := strings.Cut(key, ".")
		sub, ok := out[section].(map[string]any)
		if !ok {
			sub = map[string]any{}
			out[section] = sub
		}
		sub[field] = value
	}
	return out
}
