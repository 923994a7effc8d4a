// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the hlameta CLI.
// See docs/ARCHITECTURE § Pipeline Interface, § Project Structure.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the hlameta CLI.
var rootCmd = &cobra.Command{
	Use:   "hlameta",
	Short: "Progressive metadata enrichment for immunopeptidomics datasets",
	Long: `hlameta enriches dataset metadata collected from proteomics repositories.
Raw repository payloads are normalized into a shared record model, classified
by HLA class, sample origin, and disease, filled in by pattern inference,
reconciled against a secondary authority, and scored for completeness.

Each pipeline stage is a subcommand: normalize, classify, infer, reconcile,
and score operate snapshot to snapshot; run executes all stages in order.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./hlameta.yaml or ~/.config/hlameta/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("hlameta")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "hlameta"))
		}
	}

	viper.SetDefault("data_dir", "data")

	viper.SetEnvPrefix("HLAMETA")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
