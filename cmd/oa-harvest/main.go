// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the oa-harvest CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/oa-harvest/internal/logging"
	"github.com/pdiddy/oa-harvest/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// loadedSecrets holds credentials loaded from .secrets/ at startup.
	loadedSecrets = secrets.Secrets{}

	// logger is the operator log, configured in PersistentPreRunE.
	logger = zerolog.Nop()
)

// rootCmd is the base command for the oa-harvest CLI.
var rootCmd = &cobra.Command{
	Use:   "oa-harvest",
	Short: "Harvest open-access PDFs for a research topic",
	Long: `oa-harvest collects a bounded number of validated open-access PDFs for a
research topic. It searches the Crossref metadata index, resolves each DOI
through Unpaywall, and downloads only files that really are PDFs.

Use acquire for a single keyword query, run to expand a free-text description
into sub-topics first, and serve to accept jobs over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.New(loadConfig().Logging)

		dir := viper.GetString("secrets_dir")
		s, err := secrets.Load(dir, logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug().Strs("keys", keys).Str("dir", dir).Msg("loaded secrets")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./oa-harvest.yaml or ~/.config/oa-harvest/config.yaml)")
	pf.String("log-level", "", "log level: debug, info, warn, error (default info)")
	pf.String("log-format", "", "log format: console or json (default console)")
	pf.String("secrets-dir", ".secrets/", "directory of credential files")

	viper.BindPFlag("logging.level", pf.Lookup("log-level"))
	viper.BindPFlag("logging.format", pf.Lookup("log-format"))
	viper.BindPFlag("secrets_dir", pf.Lookup("secrets-dir"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("oa-harvest")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "oa-harvest"))
		}
	}

	setDefaults()
	viper.SetEnvPrefix("OA_HARVEST")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Conventional provider variables work without the prefix.
	viper.BindEnv("keys.anthropic", "ANTHROPIC_API_KEY")
	viper.BindEnv("keys.openai", "OPENAI_API_KEY")
	viper.BindEnv("keys.gemini", "GEMINI_API_KEY")

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
