// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// TopicResult aggregates one Acquisition Scheduler run.
type TopicResult struct {
	// Topic is the sub-topic name the run was started for.
	Topic string `json:"topic" yaml:"topic"`

	// Query is the keyword string sent to the metadata search.
	Query string `json:"query" yaml:"query"`

	// OutputDir is the directory the run wrote validated PDFs into. It is
	// owned by the run until merged into a JobResult.
	OutputDir string `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`

	// Log is the accumulated progress text for the run.
	Log string `json:"log,omitempty" yaml:"-"`

	// Downloaded is the number of validated PDFs. Never exceeds Requested.
	Downloaded int `json:"pdf_count" yaml:"pdf_count"`

	// Requested is the target count for the run.
	Requested int `json:"requested_count" yaml:"requested_count"`

	// Attempts is the number of identifiers submitted to the item pipeline.
	Attempts int `json:"attempts" yaml:"attempts"`

	// Files lists the validated PDF filenames (base names within OutputDir).
	Files []string `json:"pdf_files" yaml:"pdf_files"`

	// Error records a failure of the whole topic. Empty on normal runs,
	// including runs that fall short of Requested.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Shortfall reports whether fewer PDFs were validated than requested.
func (r TopicResult) Shortfall() bool {
	return r.Downloaded < r.Requested
}

// JobResult aggregates every topic of one user request.
type JobResult struct {
	// OutputDir holds the merged PDFs of every topic.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Log is the concatenated per-topic log.
	Log string `json:"log,omitempty" yaml:"-"`

	// PDFCount is the total number of merged PDFs.
	PDFCount int `json:"pdf_count" yaml:"pdf_count"`

	// Requested is the count the user asked for.
	Requested int `json:"requested_count" yaml:"requested_count"`

	// Topics is the per-topic breakdown in processing order.
	Topics []TopicResult `json:"topics" yaml:"topics"`

	// Files lists merged PDF filenames within OutputDir.
	Files []string `json:"pdf_files" yaml:"pdf_files"`

	// CompletedAt is when merging finished.
	CompletedAt time.Time `json:"completed_at" yaml:"completed_at"`
}

// Shortfall reports whether fewer PDFs were delivered than requested.
func (r JobResult) Shortfall() bool {
	return r.PDFCount < r.Requested
}

// Topic is one sub-topic of a harvest request and the keyword query searched
// for it.
type Topic struct {
	Name     string `json:"name" yaml:"name"`
	Keywords string `json:"keywords" yaml:"keywords"`
}
