// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package expand

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/oa-harvest/pkg/types"
)

// Provider names accepted in AIConfig.Provider.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
)

const defaultAITimeout = 30 * time.Second

// NewBackend selects a Completer from cfg. An empty provider or missing API
// key returns nil, which Expander treats as "no expansion".
func NewBackend(cfg types.AIConfig) (Completer, error) {
	if cfg.APIKey == "" || cfg.Provider == "" {
		return nil, nil
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultAITimeout
	}
	hc := &http.Client{Timeout: timeout}

	switch strings.ToLower(cfg.Provider) {
	case ProviderAnthropic, "claude":
		return NewClaudeBackend(cfg.APIKey, cfg.Model, cfg.BaseURL, hc), nil
	case ProviderOpenAI:
		return NewOpenAIBackend(cfg.APIKey, cfg.Model, cfg.BaseURL, hc), nil
	case ProviderGemini:
		g, err := NewGeminiBackend(cfg.APIKey, cfg.Model, cfg.BaseURL, hc)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q (want anthropic, openai, or gemini)", cfg.Provider)
	}
}
