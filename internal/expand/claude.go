// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package expand

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultClaudeModel = "claude-sonnet-4-5"

// ClaudeBackend completes prompts with the Anthropic Messages API.
type ClaudeBackend struct {
	client anthropic.Client
	model  string
}

// NewClaudeBackend builds a Claude backend. baseURL and hc are optional.
func NewClaudeBackend(apiKey, model, baseURL string, hc *http.Client) *ClaudeBackend {
	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(2)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if hc != nil {
		opts = append(opts, option.WithHTTPClient(hc))
	}
	if model == "" {
		model = defaultClaudeModel
	}
	return &ClaudeBackend{client: anthropic.NewClient(opts...), model: model}
}

// Name returns "anthropic".
func (c *ClaudeBackend) Name() string { return ProviderAnthropic }

// Complete sends prompt as a single user message and returns the text blocks.
func (c *ClaudeBackend) Complete(ctx context.Context, prompt string) (string, error) {
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("calling Claude API: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no text content in Claude API response")
	}
	return sb.String(), nil
}
