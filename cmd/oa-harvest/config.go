// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/oa-harvest/internal/acquire"
	"github.com/pdiddy/oa-harvest/internal/expand"
	"github.com/pdiddy/oa-harvest/internal/secrets"
	"github.com/pdiddy/oa-harvest/internal/server"
	"github.com/pdiddy/oa-harvest/pkg/types"
)

// appConfig is the merged view of defaults, config file, environment, and
// flags bound through viper.
type appConfig struct {
	Harvest types.HarvestConfig
	AI      types.AIConfig
	Server  types.ServerConfig
	Logging types.LoggingConfig
}

func setDefaults() {
	viper.SetDefault("email", "")

	viper.SetDefault("http.timeout", 60*time.Second)
	viper.SetDefault("http.user_agent", "oa-harvest/"+version)
	viper.SetDefault("http.requests_per_second", 10.0)
	viper.SetDefault("http.max_retries", 5)

	viper.SetDefault("harvest.start_date", types.DefaultStartDate)
	viper.SetDefault("harvest.end_date", types.DefaultEndDate)
	viper.SetDefault("harvest.page_size", acquire.DefaultPageSize)
	viper.SetDefault("harvest.pause", acquire.DefaultPause)
	viper.SetDefault("harvest.submit_delay", acquire.DefaultSubmitDelay)
	viper.SetDefault("harvest.chunk_delay", time.Duration(0))
	viper.SetDefault("harvest.item_timeout", acquire.DefaultItemTimeout)
	viper.SetDefault("harvest.filter_publishers", false)
	viper.SetDefault("harvest.publishers", types.DefaultPublishers)

	viper.SetDefault("ai.provider", "")
	viper.SetDefault("ai.model", "")
	viper.SetDefault("ai.base_url", "")
	viper.SetDefault("ai.timeout", 30*time.Second)

	viper.SetDefault("server.addr", server.DefaultAddr)
	viper.SetDefault("server.max_concurrent_jobs", 3)
	viper.SetDefault("server.work_dir", "")
	viper.SetDefault("server.shutdown_timeout", server.DefaultShutdownTimeout)
	viper.SetDefault("server.jobs.backend", "memory")
	viper.SetDefault("server.jobs.path", "oa-harvest-jobs.db")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "console")
}

func loadConfig() appConfig {
	httpCfg := types.HTTPConfig{
		Timeout:           viper.GetDuration("http.timeout"),
		UserAgent:         viper.GetString("http.user_agent"),
		RequestsPerSecond: viper.GetFloat64("http.requests_per_second"),
		MaxRetries:        viper.GetInt("http.max_retries"),
	}
	return appConfig{
		Harvest: types.HarvestConfig{
			HTTPConfig:       httpCfg,
			Email:            loadedSecrets.Or(secrets.ContactEmail, viper.GetString("email")),
			StartDate:        viper.GetString("harvest.start_date"),
			EndDate:          viper.GetString("harvest.end_date"),
			PageSize:         viper.GetInt("harvest.page_size"),
			Pause:            viper.GetDuration("harvest.pause"),
			SubmitDelay:      viper.GetDuration("harvest.submit_delay"),
			ChunkDelay:       viper.GetDuration("harvest.chunk_delay"),
			ItemTimeout:      viper.GetDuration("harvest.item_timeout"),
			FilterPublishers: viper.GetBool("harvest.filter_publishers"),
			Publishers:       viper.GetStringSlice("harvest.publishers"),
		},
		AI: resolveAI(types.AIConfig{
			Provider: viper.GetString("ai.provider"),
			Model:    viper.GetString("ai.model"),
			APIKey:   viper.GetString("ai.api_key"),
			BaseURL:  viper.GetString("ai.base_url"),
			Timeout:  viper.GetDuration("ai.timeout"),
		}),
		Server: types.ServerConfig{
			Addr:              viper.GetString("server.addr"),
			MaxConcurrentJobs: viper.GetInt("server.max_concurrent_jobs"),
			WorkDir:           viper.GetString("server.work_dir"),
			ShutdownTimeout:   viper.GetDuration("server.shutdown_timeout"),
			Jobs: types.JobStoreConfig{
				Backend: viper.GetString("server.jobs.backend"),
				Path:    viper.GetString("server.jobs.path"),
			},
		},
		Logging: types.LoggingConfig{
			Level:  viper.GetString("logging.level"),
			Format: viper.GetString("logging.format"),
		},
	}
}

// resolveAI fills the provider and key. Without an explicit provider the
// first one with a key wins, in the order anthropic, openai, gemini.
func resolveAI(cfg types.AIConfig) types.AIConfig {
	keyFor := func(provider string) string {
		if k := loadedSecrets.APIKey(provider); k != "" {
			return k
		}
		switch strings.ToLower(provider) {
		case expand.ProviderAnthropic, "claude":
			return viper.GetString("keys.anthropic")
		case expand.ProviderOpenAI:
			return viper.GetString("keys.openai")
		case expand.ProviderGemini:
			return viper.GetString("keys.gemini")
		}
		return ""
	}

	if cfg.Provider == "" {
		for _, p := range []string{expand.ProviderAnthropic, expand.ProviderOpenAI, expand.ProviderGemini} {
			if keyFor(p) != "" {
				cfg.Provider = p
				break
			}
		}
	}
	if cfg.APIKey == "" && cfg.Provider != "" {
		cfg.APIKey = keyFor(cfg.Provider)
	}
	return cfg
}

// stringSetting returns the flag value when the user set it, otherwise the
// configured value.
func stringSetting(cmd *cobra.Command, flag, fallback string) string {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetString(flag)
		return v
	}
	return fallback
}

func boolSetting(cmd *cobra.Command, flag string, fallback bool) bool {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetBool(flag)
		return v
	}
	return fallback
}
