// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/oa-harvest/internal/acquire"
	"github.com/pdiddy/oa-harvest/pkg/types"
)

func TestReportAcquire(t *testing.T) {
	res := types.TopicResult{Downloaded: 2, Requested: 10, Attempts: 7, OutputDir: "out"}

	tests := []struct {
		name        string
		err         error
		wantErr     error
		wantSummary bool
	}{
		{name: "completed"},
		{name: "interrupted", err: context.Canceled, wantSummary: true},
		{name: "deadline", err: fmt.Errorf("searching: %w", context.DeadlineExceeded), wantSummary: true},
		{name: "bad email", err: acquire.ErrInvalidEmail, wantErr: acquire.ErrInvalidEmail},
		{name: "bad target", err: acquire.ErrInvalidTarget, wantErr: acquire.ErrInvalidTarget},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := reportAcquire(&out, res, tt.err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, out.String())
				return
			}
			require.NoError(t, err)
			if tt.wantSummary {
				assert.Equal(t, "Interrupted: kept 2 of 10 requested PDF(s) in out\n", out.String())
			} else {
				assert.Empty(t, out.String())
			}
		})
	}
}

func TestReportAcquireOtherErrors(t *testing.T) {
	err := reportAcquire(&bytes.Buffer{}, types.TopicResult{}, errors.New("creating output directory: denied"))
	assert.Error(t, err)
}

func TestAcquireFlags(t *testing.T) {
	kw := acquireCmd.Flags().Lookup("keywords")
	require.NotNil(t, kw)
	assert.Equal(t, []string{"true"}, kw.Annotations[cobra.BashCompOneRequiredFlag])

	email := acquireCmd.Flags().Lookup("email")
	require.NotNil(t, email)
	assert.Equal(t, "e", email.Shorthand)
	assert.Contains(t, email.Usage, "required by Unpaywall")
	assert.Contains(t, email.Usage, "falls back")
}
