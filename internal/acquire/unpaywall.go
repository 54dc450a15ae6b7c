// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package acquire

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/oa-harvest/internal/httputil"
	"github.com/pdiddy/oa-harvest/internal/metrics"
)

// unpaywallAPIBase is the Unpaywall v2 endpoint. Declared as a var so tests
// can substitute an httptest server.
var unpaywallAPIBase = "https://api.unpaywall.org/v2/"

// Resolution is the open-access location chosen for a DOI.
type Resolution struct {
	URL string

	// Confirmed is true when the URL came from a url_for_pdf field. A
	// generic url may be a landing page rather than the PDF itself.
	Confirmed bool
}

// Found reports whether a location was chosen.
func (r Resolution) Found() bool { return r.URL != "" }

// Unpaywall resolves DOIs to open-access locations.
type Unpaywall struct {
	Client  *httputil.Client
	Metrics *metrics.Metrics

	// BaseURL overrides the v2 endpoint; it must end with a slash.
	BaseURL string
}

// unpaywallResponse captures the fields we need from an Unpaywall record.
type unpaywallResponse struct {
	BestOALocation *unpaywallLocation  `json:"best_oa_location"`
	OALocations    []unpaywallLocation `json:"oa_locations"`
}

type unpaywallLocation struct {
	URLForPDF string `json:"url_for_pdf"`
	URL       string `json:"url"`
}

// Lookup queries Unpaywall for doi. A record without any OA location yields
// a zero Resolution and a nil error; transport, status and decoding failures
// are returned so the caller can log them.
func (u *Unpaywall) Lookup(ctx context.Context, doi, email string) (Resolution, error) {
	base := u.BaseURL
	if base == "" {
		base = unpaywallAPIBase
	}
	apiURL := base + url.QueryEscape(doi) + "?email=" + url.QueryEscape(email)

	resp, err := u.Client.Get(ctx, apiURL, "application/json")
	if err != nil {
		u.Metrics.RecordResolution("error")
		return Resolution{}, fmt.Errorf("Unpaywall API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		u.Metrics.RecordResolution("error")
		return Resolution{}, fmt.Errorf("Unpaywall API returned HTTP %d", resp.StatusCode)
	}

	var rec unpaywallResponse
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		u.Metrics.RecordResolution("error")
		return Resolution{}, fmt.Errorf("parsing Unpaywall response: %w", err)
	}

	res := rec.choose()
	switch {
	case !res.Found():
		u.Metrics.RecordResolution("miss")
	case res.Confirmed:
		u.Metrics.RecordResolution("pdf")
	default:
		u.Metrics.RecordResolution("landing")
	}
	return res, nil
}

// ResolvePDFURL returns the preferred OA URL for doi, or false when none is
// reported or the lookup failed.
func (u *Unpaywall) ResolvePDFURL(ctx context.Context, doi, email string) (string, bool) {
	res, err := u.Lookup(ctx, doi, email)
	if err != nil || !res.Found() {
		return "", false
	}
	return res.URL, true
}

// choose applies the preference order: the best location's PDF URL, the
// best location's generic URL, then the first URL among all locations.
func (r unpaywallResponse) choose() Resolution {
	if best := r.BestOALocation; best != nil {
		if u := strings.TrimSpace(best.URLForPDF); u != "" {
			return Resolution{URL: u, Confirmed: true}
		}
		if u := strings.TrimSpace(best.URL); u != "" {
			return Resolution{URL: u}
		}
	}
	for _, loc := range r.OALocations {
		if u := strings.TrimSpace(loc.URLForPDF); u != "" {
			return Resolution{URL: u, Confirmed: true}
		}
		if u := strings.TrimSpace(loc.URL); u != "" {
			return Resolution{URL: u}
		}
	}
	return Resolution{}
}
