// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package expand

import (
	"context"
	"fmt"
	"net/http"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIBackend completes prompts with the OpenAI Chat Completions API. Any
// compatible endpoint works through baseURL.
type OpenAIBackend struct {
	client openai.Client
	model  string
}

// NewOpenAIBackend builds an OpenAI backend. baseURL and hc are optional.
func NewOpenAIBackend(apiKey, model, baseURL string, hc *http.Client) *OpenAIBackend {
	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(2)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if hc != nil {
		opts = append(opts, option.WithHTTPClient(hc))
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIBackend{client: openai.NewClient(opts...), model: model}
}

// Name returns "openai".
func (o *OpenAIBackend) Name() string { return ProviderOpenAI }

// Complete sends prompt as a single user message and returns the first choice.
func (o *OpenAIBackend) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("calling OpenAI API: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("OpenAI API returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
