// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package expand turns a free-text research description into an ordered
// list of sub-topics with keyword queries by asking a text-completion
// backend. Expansion never fails: malformed output degrades to a single
// "main_topic" built from the text, and backend errors degrade to the
// description itself.
package expand

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/pdiddy/oa-harvest/internal/metrics"
	"github.com/pdiddy/oa-harvest/pkg/types"
)

// MainTopic is the topic name used when the response carries no structure.
const MainTopic = "main_topic"

// Completer sends one prompt to a text-completion service.
type Completer interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// Expander expands descriptions through a Completer. A nil Backend skips
// the call and uses the description as the only topic.
type Expander struct {
	Backend Completer
	Metrics *metrics.Metrics
}

// Expand returns at least one topic for description. Diagnostics go to w.
func (e *Expander) Expand(ctx context.Context, description string, w io.Writer) []types.Topic {
	description = strings.TrimSpace(description)
	fallback := []types.Topic{{Name: MainTopic, Keywords: description}}

	if e.Backend == nil {
		fmt.Fprintln(w, "No keyword expansion backend configured, using original description")
		return fallback
	}
	provider := e.Backend.Name()

	prompt, err := renderPrompt(description)
	if err != nil {
		fmt.Fprintf(w, "Error generating keywords: %v\n", err)
		e.Metrics.RecordExpansion(provider, "error")
		return fallback
	}

	text, err := e.Backend.Complete(ctx, prompt)
	if err != nil {
		fmt.Fprintf(w, "Error generating keywords: %v\n", err)
		e.Metrics.RecordExpansion(provider, "error")
		return fallback
	}

	topics, structured := ParseTopics(text)
	if len(topics) == 0 {
		fmt.Fprintln(w, "No structured keywords generated, using original description")
		e.Metrics.RecordExpansion(provider, "empty")
		return fallback
	}
	if structured {
		e.Metrics.RecordExpansion(provider, "json")
	} else {
		e.Metrics.RecordExpansion(provider, "fallback")
	}
	return topics
}

var (
	codeFence   = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
	newlineRuns = regexp.MustCompile(`\n+`)
	commaRuns   = regexp.MustCompile(`,+`)
)

// ParseTopics reads a completion. A JSON object yields one topic per key in
// document order, with the bool result true. Anything else is cleaned into
// a single MainTopic keyword string (newline runs become ", ", repeated
// commas collapse, surrounding commas and spaces are trimmed). Empty input
// yields no topics.
func ParseTopics(text string) ([]types.Topic, bool) {
	text = strings.TrimSpace(text)
	if m := codeFence.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	if text == "" {
		return nil, false
	}

	if topics, err := decodeObject(text); err == nil && len(topics) > 0 {
		return topics, true
	}

	kw := newlineRuns.ReplaceAllString(text, ", ")
	kw = commaRuns.ReplaceAllString(kw, ",")
	kw = strings.Trim(kw, ", ")
	if kw == "" {
		return nil, false
	}
	return []types.Topic{{Name: MainTopic, Keywords: kw}}, false
}

// decodeObject walks a JSON object with a token stream so key order is kept.
// String values are used as-is; arrays of strings are joined with ", ".
func decodeObject(text string) ([]types.Topic, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected JSON object, got %v", tok)
	}

	var topics []types.Topic
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, _ := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		keywords, err := keywordString(raw)
		if err != nil {
			return nil, fmt.Errorf("topic %q: %w", name, err)
		}
		name = strings.TrimSpace(name)
		if name == "" || keywords == "" {
			continue
		}
		topics = append(topics, types.Topic{Name: name, Keywords: keywords})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after JSON object")
	}
	return topics, nil
}

func keywordString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		for i := range list {
			list[i] = strings.TrimSpace(list[i])
		}
		return strings.Join(list, ", "), nil
	}
	return "", fmt.Errorf("keywords must be a string or list of strings")
}
