// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/oa-harvest/pkg/types"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"WARN":    zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"":        zerolog.InfoLevel,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, ParseLevel(in))
		})
	}
}

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	log := WithJob(NewWithWriter(types.LoggingConfig{Level: "info", Format: "json"}, &buf), "j-1")

	log.Debug().Msg("hidden")
	log.Info().Int("pdfs", 3).Msg("job finished")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "job finished", entry["message"])
	assert.Equal(t, "j-1", entry["job_id"])
	assert.Equal(t, "oa-harvest", entry["service"])
	assert.EqualValues(t, 3, entry["pdfs"])
}

func TestNewWithWriterConsole(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(types.LoggingConfig{Format: "console"}, &buf)
	log.Warn().Msg("slow upstream")

	assert.Contains(t, buf.String(), "slow upstream")
	assert.NotContains(t, buf.String(), "{")
}
