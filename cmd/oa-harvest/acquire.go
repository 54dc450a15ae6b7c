// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/oa-harvest/internal/acquire"
	"github.com/pdiddy/oa-harvest/pkg/types"
)

var acquireCmd = &cobra.Command{
	Use:   "acquire",
	Short: "Download open-access PDFs for one keyword query",
	Long: `Acquire searches Crossref for journal articles matching the keywords,
resolves each DOI through Unpaywall, and downloads validated PDFs into the
output directory until --max files are saved or the candidate budget runs out.`,
	Example: `  oa-harvest acquire -k "graph neural networks traffic" -e you@example.org -m 10`,
	RunE: runAcquire,
}

func init() {
	f := acquireCmd.Flags()
	f.StringP("keywords", "k", "", "search keywords (e.g. 'India rare disease dark skin CNN literature review')")
	f.StringP("email", "e", "", "your email, required by Unpaywall (falls back to the email config key or the contact-email secret)")
	f.IntP("max", "m", 20, "maximum number of PDFs to download")
	f.StringP("outdir", "o", "downloaded_pdfs", "output directory")
	f.String("start-date", "", "publication window start, YYYY-MM-DD (default 2024-01-01)")
	f.String("end-date", "", "publication window end, YYYY-MM-DD (default 2025-12-31)")
	f.Float64("pause", 0, "seconds to pause between result pages (default 2)")
	f.Bool("filter-publishers", false, "only keep works from preferred publishers (Springer, IEEE, Scopus, Elsevier)")
	acquireCmd.MarkFlagRequired("keywords")

	rootCmd.AddCommand(acquireCmd)
}

func runAcquire(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	h := cfg.Harvest

	keywords, _ := cmd.Flags().GetString("keywords")
	target, _ := cmd.Flags().GetInt("max")
	outdir, _ := cmd.Flags().GetString("outdir")
	email := stringSetting(cmd, "email", h.Email)
	h.StartDate = stringSetting(cmd, "start-date", h.StartDate)
	h.EndDate = stringSetting(cmd, "end-date", h.EndDate)
	h.FilterPublishers = boolSetting(cmd, "filter-publishers", h.FilterPublishers)
	if cmd.Flags().Changed("pause") {
		secs, _ := cmd.Flags().GetFloat64("pause")
		h.Pause = time.Duration(secs * float64(time.Second))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	sched := newScheduler(h, nil)
	res, err := sched.Acquire(ctx, acquire.Request{
		Topic:            strings.TrimSpace(keywords),
		Query:            keywords,
		Email:            email,
		Target:           target,
		OutputDir:        outdir,
		StartDate:        h.StartDate,
		EndDate:          h.EndDate,
		FilterPublishers: h.FilterPublishers,
		Publishers:       h.Publishers,
	}, os.Stdout)
	return reportAcquire(os.Stdout, res, err)
}

// reportAcquire finishes an acquire run. Configuration errors are returned;
// an interrupted run still ends normally with a summary of what it saved.
func reportAcquire(w io.Writer, res types.TopicResult, err error) error {
	interrupted := errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
	if err != nil && !interrupted {
		return err
	}
	if interrupted {
		fmt.Fprintf(w, "Interrupted: kept %d of %d requested PDF(s) in %s\n", res.Downloaded, res.Requested, res.OutputDir)
	}
	logger.Info().
		Int("downloaded", res.Downloaded).
		Int("requested", res.Requested).
		Int("attempts", res.Attempts).
		Str("dir", res.OutputDir).
		Bool("interrupted", interrupted).
		Msg("acquire finished")
	return nil
}
