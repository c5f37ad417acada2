// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the resource-curator CLI.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/resource-curator/internal/logger"
	"github.com/pdiddy/resource-curator/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// secretsDir holds one file per API key.
const secretsDir = ".secrets/"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets secrets.Secrets

// rootCmd is the base command for the resource-curator CLI.
var rootCmd = &cobra.Command{
	Use:   "resource-curator",
	Short: "Search, clean, and store teaching resources",
	Long: `resource-curator finds teaching resources on the web for a topic,
strips navigation and advertising noise, keeps the educational passages,
and stores them either one record per source or as a single synthesized
lesson report.

Run "serve" for the HTTP API, or use the curate, resources, and exercises
subcommands directly from the shell.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log, err := logger.New(viper.GetString("log.env"), viper.GetString("log.level"))
		if err != nil {
			return err
		}
		s, err := loadSecrets(secretsDir, log, os.Stderr)
		if err != nil {
			return err
		}
		loadedSecrets = s
		return nil
	},
}

// loadSecrets reads the key files in dir and lists the loaded key names
// on w. Unreadable files are reported through log.
func loadSecrets(dir string, log *zap.Logger, w io.Writer) (secrets.Secrets, error) {
	s, err := secrets.Load(dir, log)
	if err != nil {
		return nil, err
	}
	if len(s) > 0 {
		keys := make([]string, 0, len(s))
		for k := range s {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(w, "Loaded secrets: %v\n", keys)
	}
	return s, nil
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./resource-curator.yaml or ~/.config/resource-curator/resource-curator.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("resource-curator")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "resource-curator"))
		}
	}

	configureEnv(viper.GetViper())
	if err := registerDefaults(viper.GetViper()); err != nil {
		fmt.Fprintln(os.Stderr, "Registering config defaults:", err)
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
