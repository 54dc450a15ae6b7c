// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package expand

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/oa-harvest/pkg/types"
)

func TestClaudeBackendComplete(t *testing.T) {
	var gotKey string
	var gotBody map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/messages", r.URL.Path)
		gotKey = r.Header.Get("X-Api-Key")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
		  "id": "msg_01", "type": "message", "role": "assistant", "model": "claude-test",
		  "content": [{"type": "text", "text": "{\"topic\": \"a, b\"}"}],
		  "stop_reason": "end_turn", "stop_sequence": null,
		  "usage": {"input_tokens": 10, "output_tokens": 5}
		}`)
	}))
	defer ts.Close()

	c := NewClaudeBackend("sk-test", "claude-test", ts.URL, ts.Client())
	text, err := c.Complete(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, `{"topic": "a, b"}`, text)
	assert.Equal(t, "sk-test", gotKey)
	assert.Equal(t, "claude-test", gotBody["model"])
	assert.Equal(t, ProviderAnthropic, c.Name())
}

func TestOpenAIBackendComplete(t *testing.T) {
	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
		  "id": "chatcmpl-1", "object": "chat.completion", "created": 1, "model": "gpt-test",
		  "choices": [{"index": 0, "finish_reason": "stop",
		               "message": {"role": "assistant", "content": "keywords, here"}}]
		}`)
	}))
	defer ts.Close()

	o := NewOpenAIBackend("sk-openai", "gpt-test", ts.URL+"/v1", ts.Client())
	text, err := o.Complete(context.Background(), "hello")
	require.NoError(t, err)

	assert.Equal(t, "keywords, here", text)
	assert.Equal(t, "Bearer sk-openai", gotAuth)
}

func TestGeminiBackendComplete(t *testing.T) {
	var gotPath, gotKey string
	var gotBody struct {
		Contents []struct {
			Role  string `json:"role"`
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"contents"`
	}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Goog-Api-Key")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates": [{"content": {"role": "model", "parts": [{"text": "  {\"t\": \"k\"}  "}]}}]}`)
	}))
	defer ts.Close()

	g, err := NewGeminiBackend("g-key", "", ts.URL, ts.Client())
	require.NoError(t, err)
	text, err := g.Complete(context.Background(), "describe")
	require.NoError(t, err)

	assert.Equal(t, `{"t": "k"}`, text)
	assert.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", gotPath)
	assert.Equal(t, "g-key", gotKey)
	require.Len(t, gotBody.Contents, 1)
	require.Len(t, gotBody.Contents[0].Parts, 1)
	assert.Equal(t, "describe", gotBody.Contents[0].Parts[0].Text)
	assert.Equal(t, ProviderGemini, g.Name())
}

func TestGeminiBackendDefaultBase(t *testing.T) {
	var hits int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates": [{"content": {"parts": [{"text": "a, b"}]}}]}`)
	}))
	defer ts.Close()

	old := geminiAPIBase
	geminiAPIBase = ts.URL + "/"
	defer func() { geminiAPIBase = old }()

	g, err := NewGeminiBackend("k", "gemini-test", "", ts.Client())
	require.NoError(t, err)
	text, err := g.Complete(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "a, b", text)
	assert.Equal(t, 1, hits)
}

func TestGeminiBackendErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"HTTP error", http.StatusBadRequest, `{"error": {"code": 400, "message": "bad key", "status": "INVALID_ARGUMENT"}}`},
		{"no candidates", http.StatusOK, `{"candidates": []}`},
		{"malformed", http.StatusOK, `nope`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer ts.Close()

			g, err := NewGeminiBackend("k", "", ts.URL, ts.Client())
			require.NoError(t, err)
			_, err = g.Complete(context.Background(), "p")
			assert.Error(t, err)
		})
	}
}

func TestNewBackend(t *testing.T) {
	tests := []struct {
		cfg      types.AIConfig
		wantName string
		wantNil  bool
		wantErr  bool
	}{
		{cfg: types.AIConfig{Provider: "anthropic", APIKey: "k"}, wantName: ProviderAnthropic},
		{cfg: types.AIConfig{Provider: "Claude", APIKey: "k"}, wantName: ProviderAnthropic},
		{cfg: types.AIConfig{Provider: "openai", APIKey: "k"}, wantName: ProviderOpenAI},
		{cfg: types.AIConfig{Provider: "gemini", APIKey: "k"}, wantName: ProviderGemini},
		{cfg: types.AIConfig{Provider: "gemini"}, wantNil: true},
		{cfg: types.AIConfig{APIKey: "k"}, wantNil: true},
		{cfg: types.AIConfig{Provider: "llama", APIKey: "k"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.cfg.Provider, func(t *testing.T) {
			b, err := NewBackend(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, b)
				return
			}
			require.NotNil(t, b)
			assert.Equal(t, tt.wantName, b.Name())
		})
	}
}
