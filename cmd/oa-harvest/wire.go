// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"net/http"

	"github.com/pdiddy/oa-harvest/internal/acquire"
	"github.com/pdiddy/oa-harvest/internal/expand"
	"github.com/pdiddy/oa-harvest/internal/harvest"
	"github.com/pdiddy/oa-harvest/internal/httputil"
	"github.com/pdiddy/oa-harvest/internal/metrics"
	"github.com/pdiddy/oa-harvest/internal/search"
	"github.com/pdiddy/oa-harvest/pkg/types"
)

// newScheduler wires search, resolution, and download for one process.
// Crossref and Unpaywall share a paced client; PDF hosts are many and
// unrelated, so downloads are bounded only by the per-item timeout.
func newScheduler(cfg types.HarvestConfig, m *metrics.Metrics) *acquire.Scheduler {
	api := httputil.NewClient(nil, cfg.HTTPConfig)

	dlCfg := cfg.HTTPConfig
	dlCfg.RequestsPerSecond = 0
	downloads := httputil.NewClient(&http.Client{}, dlCfg)

	pipeline := &acquire.Pipeline{
		Resolver:   &acquire.Unpaywall{Client: api, Metrics: m},
		Downloader: &acquire.Fetcher{Client: downloads, ChunkDelay: cfg.ChunkDelay},
	}
	return acquire.NewScheduler(&search.Crossref{Client: api}, pipeline, cfg, m)
}

func newExpander(cfg types.AIConfig, m *metrics.Metrics) (*expand.Expander, error) {
	backend, err := expand.NewBackend(cfg)
	if err != nil {
		return nil, err
	}
	return &expand.Expander{Backend: backend, Metrics: m}, nil
}

func newHarvester(cfg types.HarvestConfig, workDir string, m *metrics.Metrics) *harvest.Harvester {
	return &harvest.Harvester{
		Acquirer: newScheduler(cfg, m),
		Config:   cfg,
		WorkDir:  workDir,
		Metrics:  m,
	}
}
