// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/oa-harvest/internal/httputil"
	"github.com/pdiddy/oa-harvest/pkg/types"
)

// crossrefWorksBase is the Crossref works endpoint. Declared as a var so
// tests can substitute an httptest server.
var crossrefWorksBase = "https://api.crossref.org/works"

// workTypeFilter restricts results to journal articles.
const workTypeFilter = "type:journal-article"

// Crossref queries the Crossref works index.
type Crossref struct {
	Client *httputil.Client

	// BaseURL overrides the works endpoint.
	BaseURL string
}

// Search returns one page of journal articles matching q. An empty slice
// means the index has no more results at this offset. Transport and non-2xx
// failures are returned to the caller unretried (429 pacing aside).
func (c *Crossref) Search(ctx context.Context, q Query) ([]types.WorkRecord, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, fmt.Errorf("empty Crossref query")
	}

	params := url.Values{
		"query":  {q.Text},
		"filter": {BuildFilter(q)},
		"rows":   {strconv.Itoa(q.rows())},
		"offset": {strconv.Itoa(q.Offset)},
	}
	if q.Mailto != "" {
		params.Set("mailto", q.Mailto)
	}

	base := c.BaseURL
	if base == "" {
		base = crossrefWorksBase
	}
	resp, err := c.Client.Get(ctx, base+"?"+params.Encode(), "application/json")
	if err != nil {
		return nil, fmt.Errorf("Crossref API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("Crossref API returned HTTP %d", resp.StatusCode)
	}

	var cr crossrefResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("parsing Crossref response: %w", err)
	}

	works := make([]types.WorkRecord, 0, len(cr.Message.Items))
	for _, item := range cr.Message.Items {
		works = append(works, item.record())
	}
	return works, nil
}

// BuildFilter renders the Crossref filter expression for q: the publication
// window, the journal-article restriction, and, when an allow-list is given,
// a disjunction over publisher names.
func BuildFilter(q Query) string {
	parts := []string{
		"from-pub-date:" + q.From,
		"until-pub-date:" + q.Until,
		workTypeFilter,
	}
	if len(q.Publishers) > 0 {
		alts := make([]string, len(q.Publishers))
		for i, p := range q.Publishers {
			alts[i] = "publisher-name:" + p
		}
		parts = append(parts, "("+strings.Join(alts, " OR ")+")")
	}
	return strings.Join(parts, ",")
}

// Crossref API JSON structures.
type crossrefResponse struct {
	Message struct {
		Items []crossrefItem `json:"items"`
	} `json:"message"`
}

type crossrefItem struct {
	DOI             string        `json:"DOI"`
	Title           []string      `json:"title"`
	ContainerTitle  []string      `json:"container-title"`
	Publisher       string        `json:"publisher"`
	PublishedPrint  *crossrefDate `json:"published-print"`
	PublishedOnline *crossrefDate `json:"published-online"`
	Created         *crossrefDate `json:"created"`
}

type crossrefDate struct {
	DateParts [][]int `json:"date-parts"`
}

func (it crossrefItem) record() types.WorkRecord {
	return types.WorkRecord{
		DOI:       strings.TrimSpace(it.DOI),
		Title:     first(it.Title),
		Journal:   first(it.ContainerTitle),
		Published: publicationDate(it.PublishedPrint, it.PublishedOnline, it.Created),
		Publisher: it.Publisher,
	}
}

// publicationDate picks the first date field present, in the order given,
// and joins its first date-parts entry with "-". Missing or empty fields
// yield types.UnknownDate.
func publicationDate(candidates ...*crossrefDate) string {
	for _, d := range candidates {
		if d == nil {
			continue
		}
		if len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 {
			return types.UnknownDate
		}
		parts := make([]string, len(d.DateParts[0]))
		for i, p := range d.DateParts[0] {
			parts[i] = strconv.Itoa(p)
		}
		return strings.Join(parts, "-")
	}
	return types.UnknownDate
}

func first(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return strings.TrimSpace(s[0])
}
