// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the notescan CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/notescan/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the notescan CLI.
var rootCmd = &cobra.Command{
	Use:   "notescan",
	Short: "Entity and relationship scanning for live-edited notes",
	Long: `notescan maintains decoration spans over note files and extracts
entity relationships into a local knowledge graph. Scan runs a full
extraction pass over note files; realign recovers previously cached
annotation spans after the files have been edited.

Configuration is read from notescan.yaml (or NOTESCAN_* environment
variables); flags override both.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./notescan.yaml or ~/.config/notescan/config.yaml)")
	rootCmd.PersistentFlags().String("data-dir", "", "directory for graph.db and spans.db (default: .notescan)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("notescan")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "notescan"))
		}
	}

	viper.SetDefault("store.data_dir", ".notescan")
	viper.SetDefault("engine.max_retries", 3)

	viper.SetEnvPrefix("NOTESCAN")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig assembles the root config from viper with flag overrides.
func loadConfig(cmd *cobra.Command) types.Config {
	cfg := types.Config{
		Engine: types.EngineConfig{
			Model:      viper.GetString("engine.model"),
			APIKey:     viper.GetString("engine.api_key"),
			BaseURL:    viper.GetString("engine.base_url"),
			MaxRetries: viper.GetInt("engine.max_retries"),
		},
		Store: types.StoreConfig{
			DataDir: viper.GetString("store.data_dir"),
		},
		Coordinator: types.CoordinatorConfig{
			OpenDebounce: viper.GetDuration("coordinator.open_debounce"),
			Bus: types.BusConfig{
				IdleTimeout: viper.GetDuration("coordinator.idle_timeout"),
			},
		},
	}

	if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
		cfg.Store.DataDir = dataDir
	}
	if model, _ := cmd.Flags().GetString("model"); model != "" {
		cfg.Engine.Model = model
	}
	return cfg
}

// buildLogger returns a console logger, debug-leveled with --verbose.
func buildLogger(cmd *cobra.Command) *zap.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	if !verbose {
		return zap.NewNop()
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
