package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/metalagman/orgarhythm/internal/config"
	"github.com/metalagman/orgarhythm/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var version = "dev"

type configKey struct{}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var debug bool
	cmd := &cobra.Command{
		Use:           "orga",
		Short:         "orga scores task dependency graphs for iterative planning",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadDotEnv(); err != nil {
				return err
			}
			repoRoot, err := os.Getwd()
			if err != nil {
				return err
			}
			cfg, err := loadConfig(repoRoot)
			if err != nil {
				return err
			}
			logging.Init(debug, cfg.Log.Format)
			cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("config", defaultConfigPath, "config file path")
	flags.BoolVar(&debug, "debug", false, "enable debug logging")
	flags.String("db", "", "database path (overrides db.path)")
	flags.String("log-format", "", "log format: console or json (overrides log.format)")
	mustBind("config", flags.Lookup("config"))
	mustBind("db.path", flags.Lookup("db"))
	mustBind("log.format", flags.Lookup("log-format"))

	cmd.AddCommand(initCmd())
	cmd.AddCommand(taskCmd())
	cmd.AddCommand(importCmd())
	cmd.AddCommand(exportCmd())
	cmd.AddCommand(analyzeCmd())
	cmd.AddCommand(planCmd())
	cmd.AddCommand(nextCmd())
	cmd.AddCommand(browseCmd())
	cmd.AddCommand(serveCmd())
	cmd.AddCommand(mcpCmd())
	return cmd
}

func mustBind(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("bind %s flag: %v", key, err))
	}
}

// loadDotEnv loads ORGA_* variables from a .env file in the working
// directory when one exists.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// configFrom returns the config loaded for the running command.
func configFrom(cmd *cobra.Command) config.Config {
	if cfg, ok := cmd.Context().Value(configKey{}).(config.Config); ok {
		return cfg
	}
	return config.Config{}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, strings.TrimSpace("orga: "+err.Error()))
}
