//go:build mage

package main

import (
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Dev groups targets that run the built binary locally.
type Dev mg.Namespace

// Serve builds and starts the job service with a SQLite job store under var/jobs.
func (Dev) Serve() error {
	mg.Deps(Build, Init)
	return sh.RunWithV(map[string]string{"OA_HARVEST_LOGGING_FORMAT": "console"},
		"bin/oa-harvest", "serve", "--job-store", "sqlite", "--job-db", "var/jobs/jobs.db")
}

// Smoke downloads two PDFs for a fixed query. Set OA_HARVEST_EMAIL first.
func (Dev) Smoke() error {
	mg.Deps(Build)
	email := os.Getenv("OA_HARVEST_EMAIL")
	if email == "" {
		return mg.Fatal(1, "set OA_HARVEST_EMAIL to a contact address Unpaywall accepts")
	}
	return sh.RunV("bin/oa-harvest", "acquire",
		"--keywords", "graph neural networks traffic forecasting",
		"--email", email,
		"--max", "2",
		"--outdir", "downloaded_pdfs/smoke")
}
