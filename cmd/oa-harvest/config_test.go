// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/oa-harvest/internal/secrets"
	"github.com/pdiddy/oa-harvest/pkg/types"
)

func withSecrets(t *testing.T, s secrets.Secrets) {
	t.Helper()
	old := loadedSecrets
	loadedSecrets = s
	t.Cleanup(func() { loadedSecrets = old })
}

func TestResolveAI(t *testing.T) {
	t.Cleanup(viper.Reset)

	tests := []struct {
		name    string
		secrets secrets.Secrets
		env     map[string]string
		in      types.AIConfig
		want    types.AIConfig
	}{
		{
			name: "nothing configured",
			want: types.AIConfig{},
		},
		{
			name:    "first available provider wins",
			secrets: secrets.Secrets{secrets.OpenAIAPIKey: "sk-o", secrets.GeminiAPIKey: "g"},
			want:    types.AIConfig{Provider: "openai", APIKey: "sk-o"},
		},
		{
			name:    "explicit provider picks its key",
			secrets: secrets.Secrets{secrets.AnthropicAPIKey: "sk-a", secrets.GeminiAPIKey: "g"},
			in:      types.AIConfig{Provider: "gemini"},
			want:    types.AIConfig{Provider: "gemini", APIKey: "g"},
		},
		{
			name:    "explicit key is kept",
			secrets: secrets.Secrets{secrets.AnthropicAPIKey: "sk-a"},
			in:      types.AIConfig{Provider: "anthropic", APIKey: "from-config"},
			want:    types.AIConfig{Provider: "anthropic", APIKey: "from-config"},
		},
		{
			name: "conventional environment variable",
			env:  map[string]string{"GEMINI_API_KEY": "env-g"},
			want: types.AIConfig{Provider: "gemini", APIKey: "env-g"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			for _, k := range []string{"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY"} {
				t.Setenv(k, tt.env[k])
			}
			viper.BindEnv("keys.anthropic", "ANTHROPIC_API_KEY")
			viper.BindEnv("keys.openai", "OPENAI_API_KEY")
			viper.BindEnv("keys.gemini", "GEMINI_API_KEY")
			withSecrets(t, tt.secrets)

			assert.Equal(t, tt.want, resolveAI(tt.in))
		})
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	setDefaults()
	withSecrets(t, secrets.Secrets{secrets.ContactEmail: "lab@example.org"})

	cfg := loadConfig()
	assert.Equal(t, "lab@example.org", cfg.Harvest.Email)
	assert.Equal(t, types.DefaultStartDate, cfg.Harvest.StartDate)
	assert.Equal(t, types.DefaultEndDate, cfg.Harvest.EndDate)
	assert.Equal(t, 20, cfg.Harvest.PageSize)
	assert.Equal(t, types.DefaultPublishers, cfg.Harvest.Publishers)
	assert.Equal(t, ":5000", cfg.Server.Addr)
	assert.Equal(t, 3, cfg.Server.MaxConcurrentJobs)
	assert.Equal(t, "memory", cfg.Server.Jobs.Backend)

	viper.Set("email", "flag@example.org")
	viper.Set("harvest.filter_publishers", true)
	cfg = loadConfig()
	assert.Equal(t, "flag@example.org", cfg.Harvest.Email, "secrets only fill an unset email")
	assert.True(t, cfg.Harvest.FilterPublishers)
}
