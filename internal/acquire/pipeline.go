// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pdiddy/oa-harvest/pkg/types"
)

// Resolver finds the open-access location of a DOI.
type Resolver interface {
	Lookup(ctx context.Context, doi, email string) (Resolution, error)
}

// Downloader fetches and validates one URL into dest.
type Downloader interface {
	Fetch(ctx context.Context, rawURL, dest string) types.Outcome
}

// Item is one unit of work for the item pipeline.
type Item struct {
	Work      types.WorkRecord
	Email     string
	OutputDir string

	// FilterPublishers rejects works whose publisher is not in Publishers.
	FilterPublishers bool
	Publishers       []string
}

// ItemProcessor turns one Item into an Outcome. Implementations never panic
// or return errors: every failure is an Outcome.
type ItemProcessor interface {
	Process(ctx context.Context, it Item, w io.Writer) types.Outcome
}

// Pipeline is the production ItemProcessor: publisher filter, identifier
// check, OA resolution, then fetch and validate.
type Pipeline struct {
	Resolver   Resolver
	Downloader Downloader
}

// Process runs one item to a terminal outcome, writing progress lines to w.
func (p *Pipeline) Process(ctx context.Context, it Item, w io.Writer) (out types.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = types.Failed(types.ReasonInternal, "Error processing item %s: %v", it.Work.DOI, r)
		}
	}()

	work := it.Work
	doi := strings.TrimSpace(work.DOI)

	if it.FilterPublishers && !slices.Contains(it.Publishers, work.Publisher) {
		return types.Failed(types.ReasonPublisherExcluded,
			"Skipping %s - Publisher %s not in preferred list", doi, work.Publisher)
	}
	if doi == "" {
		return types.Failed(types.ReasonMissingIdentifier, "No DOI found")
	}

	fmt.Fprintf(w, "Checking DOI: %s | %s | %s | %s | Publisher: %s\n",
		doi, work.Title, work.Journal, work.Published, work.Publisher)

	res, err := p.Resolver.Lookup(ctx, doi, it.Email)
	if err != nil {
		fmt.Fprintf(w, "  Unpaywall lookup failed for DOI %s: %v\n", doi, err)
	}
	if !res.Found() {
		return types.Failed(types.ReasonNoOALocation, "No OA PDF reported by Unpaywall for DOI: %s", doi)
	}

	if res.Confirmed {
		fmt.Fprintf(w, "  Found URL: %s\n", res.URL)
	} else {
		fmt.Fprintf(w, "  Found URL: %s (unconfirmed, may be a landing page)\n", res.URL)
	}

	dest := filepath.Join(it.OutputDir, PDFFilename(work))
	return p.Downloader.Fetch(ctx, res.URL, dest)
}
