// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package expand

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/oa-harvest/internal/metrics"
	"github.com/pdiddy/oa-harvest/pkg/types"
)

func TestParseTopics(t *testing.T) {
	tests := []struct {
		name           string
		text           string
		want           []types.Topic
		wantStructured bool
	}{
		{
			name: "object keeps key order",
			text: `{"skin lesion imaging": "dermatology, CNN, dark skin",
			        "rare disease datasets": "India, rare disease, dataset",
			        "a literature review": "systematic review, survey"}`,
			want: []types.Topic{
				{Name: "skin lesion imaging", Keywords: "dermatology, CNN, dark skin"},
				{Name: "rare disease datasets", Keywords: "India, rare disease, dataset"},
				{Name: "a literature review", Keywords: "systematic review, survey"},
			},
			wantStructured: true,
		},
		{
			name:           "fenced JSON",
			text:           "```json\n{\"graph learning\": \"GNN, message passing\"}\n```",
			want:           []types.Topic{{Name: "graph learning", Keywords: "GNN, message passing"}},
			wantStructured: true,
		},
		{
			name:           "list values are joined",
			text:           `{"vision": ["CNN", " ViT "]}`,
			want:           []types.Topic{{Name: "vision", Keywords: "CNN, ViT"}},
			wantStructured: true,
		},
		{
			name: "malformed text becomes main_topic",
			text: "Here are some keywords:\n\ndeep learning,\n\nmedical imaging,,\nIndia\n",
			want: []types.Topic{{Name: MainTopic, Keywords: "Here are some keywords:, deep learning, medical imaging, India"}},
		},
		{
			name: "truncated JSON falls back to text",
			text: `{"a": "x, y"`,
			want: []types.Topic{{Name: MainTopic, Keywords: `{"a": "x, y"`}},
		},
		{
			name: "JSON array is not an object",
			text: `["a", "b"]`,
			want: []types.Topic{{Name: MainTopic, Keywords: `["a", "b"]`}},
		},
		{
			name: "empty object falls back to text",
			text: `{}`,
			want: []types.Topic{{Name: MainTopic, Keywords: `{}`}},
		},
		{
			name: "blank",
			text: " \n\n ",
		},
		{
			name: "only separators",
			text: ",\n,\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, structured := ParseTopics(tt.text)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantStructured, structured)
		})
	}
}

func TestParseTopicsCollapsesCommas(t *testing.T) {
	got, _ := ParseTopics("alpha\n\n\nbeta")
	require.Len(t, got, 1)
	assert.Equal(t, "alpha, beta", got[0].Keywords)

	got, _ = ParseTopics("alpha,\nbeta")
	require.Len(t, got, 1)
	assert.Equal(t, "alpha, beta", got[0].Keywords, "a comma before a newline collapses with the inserted one")
}

type fakeCompleter struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeCompleter) Name() string { return "fake" }

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.reply, f.err
}

func TestExpand(t *testing.T) {
	const desc = "  CNNs for skin lesions on dark skin in India  "
	main := []types.Topic{{Name: MainTopic, Keywords: strings.TrimSpace(desc)}}

	tests := []struct {
		name    string
		backend Completer
		want    []types.Topic
		wantLog string
		result  string
	}{
		{
			name:    "structured reply",
			backend: &fakeCompleter{reply: `{"lesions": "CNN, dermoscopy", "population": "India, Fitzpatrick"}`},
			want: []types.Topic{
				{Name: "lesions", Keywords: "CNN, dermoscopy"},
				{Name: "population", Keywords: "India, Fitzpatrick"},
			},
			result: "json",
		},
		{
			name:    "malformed reply yields exactly one topic",
			backend: &fakeCompleter{reply: "CNN\nskin lesion\ndark skin"},
			want:    []types.Topic{{Name: MainTopic, Keywords: "CNN, skin lesion, dark skin"}},
			result:  "fallback",
		},
		{
			name:    "backend error",
			backend: &fakeCompleter{err: errors.New("HTTP 503")},
			want:    main,
			wantLog: "Error generating keywords: HTTP 503",
			result:  "error",
		},
		{
			name:    "empty reply",
			backend: &fakeCompleter{reply: "   "},
			want:    main,
			wantLog: "No structured keywords generated",
			result:  "empty",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := metrics.NewMetrics("test", prometheus.NewRegistry())
			e := &Expander{Backend: tt.backend, Metrics: m}
			var log bytes.Buffer

			got := e.Expand(context.Background(), desc, &log)
			assert.Equal(t, tt.want, got)
			if tt.wantLog != "" {
				assert.Contains(t, log.String(), tt.wantLog)
			}
			assert.Equal(t, float64(1), testutil.ToFloat64(m.ExpansionsTotal.WithLabelValues("fake", tt.result)))
		})
	}
}

func TestExpandSendsDescriptionInPrompt(t *testing.T) {
	f := &fakeCompleter{reply: `{"x": "y"}`}
	(&Expander{Backend: f}).Expand(context.Background(), "quantum error correction", io.Discard)
	assert.Contains(t, f.prompt, `"quantum error correction"`)
	assert.Contains(t, f.prompt, "Only return the JSON object, nothing else.")
}

func TestExpandWithoutBackend(t *testing.T) {
	got := (&Expander{}).Expand(context.Background(), "topic", io.Discard)
	assert.Equal(t, []types.Topic{{Name: MainTopic, Keywords: "topic"}}, got)
}
