// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/oa-harvest/internal/harvest"
)

var runCmd = &cobra.Command{
	Use:   "run <description>",
	Short: "Expand a description and harvest PDFs for every sub-topic",
	Long: `Run performs one job in the foreground: the description is expanded into
sub-topics, each topic is harvested in turn with an even share of --max, and
all PDFs are merged into one directory together with a manifest.yaml.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runJob,
}

func init() {
	f := runCmd.Flags()
	f.StringP("email", "e", "", "your email (required by Unpaywall)")
	f.IntP("max", "m", 20, "total number of PDFs requested")
	f.String("work-dir", "", "parent directory for the job output (default system temp)")
	f.Bool("filter-publishers", false, "only keep works from preferred publishers")

	rootCmd.AddCommand(runCmd)
}

func runJob(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	h := cfg.Harvest
	h.FilterPublishers = boolSetting(cmd, "filter-publishers", h.FilterPublishers)
	email := stringSetting(cmd, "email", h.Email)
	requested, _ := cmd.Flags().GetInt("max")
	workDir := stringSetting(cmd, "work-dir", cfg.Server.WorkDir)

	exp, err := newExpander(cfg.AI, nil)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	description := strings.Join(args, " ")
	fmt.Println("Starting PDF scraping job...")
	topics := exp.Expand(ctx, description, os.Stdout)

	res, err := newHarvester(h, workDir, nil).Run(ctx, harvest.Request{
		Topics:    topics,
		Email:     email,
		Requested: requested,
	}, os.Stdout)
	if err != nil {
		return err
	}

	fmt.Printf("\nResults: %s\n", res.OutputDir)
	fmt.Printf("Manifest: %s\n", filepath.Join(res.OutputDir, harvest.ManifestName))
	return nil
}
