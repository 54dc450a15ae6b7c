// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries the scholarly metadata index for candidate works.
// Pagination is offset based: the caller advances Query.Offset and stops on
// an empty page.
package search

import (
	"context"

	"github.com/pdiddy/oa-harvest/pkg/types"
)

// DefaultRows is the page size used when Query.Rows is zero.
const DefaultRows = 20

// Searcher returns one page of works for a query. Crossref is the production
// implementation; the acquisition scheduler depends only on this interface.
type Searcher interface {
	Search(ctx context.Context, q Query) ([]types.WorkRecord, error)
}

// Query holds the search parameters for one page.
type Query struct {
	Text string

	// From and Until bound the publication date, formatted YYYY-MM-DD.
	From  string
	Until string

	Rows   int
	Offset int

	// Publishers, when non-empty, restricts results to these publisher names.
	Publishers []string

	// Mailto is the contact address for the index's polite pool.
	Mailto string
}

func (q Query) rows() int {
	if q.Rows <= 0 {
		return DefaultRows
	}
	return q.Rows
}
