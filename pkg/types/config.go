package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "oa-harvest/0.1 (mailto:you@example.org)").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// RequestsPerSecond paces calls to each upstream API. Zero disables pacing.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`

	// MaxRetries bounds retries on HTTP 429 responses (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// Default publication window for harvests.
const (
	DefaultStartDate = "2024-01-01"
	DefaultEndDate   = "2025-12-31"
)

// DefaultPublishers is the publisher allow-list used when publisher
// filtering is enabled and no list is configured.
var DefaultPublishers = []string{"Springer", "IEEE", "Scopus", "Elsevier"}

// HarvestConfig holds settings for one acquisition run.
type HarvestConfig struct {
	HTTPConfig `yaml:",inline"`

	// Email is the contact address sent to Unpaywall and Crossref.
	Email string `json:"email" yaml:"email"`

	// StartDate and EndDate bound the publication window (YYYY-MM-DD).
	StartDate string `json:"start_date" yaml:"start_date"`
	EndDate   string `json:"end_date" yaml:"end_date"`

	// PageSize is the number of works fetched per search page (default 20).
	PageSize int `json:"page_size" yaml:"page_size"`

	// Pause is the politeness interval between page batches (default 2s).
	Pause time.Duration `json:"pause" yaml:"pause"`

	// SubmitDelay is the pause between consecutive item submissions (default 100ms).
	SubmitDelay time.Duration `json:"submit_delay" yaml:"submit_delay"`

	// ChunkDelay is the pause between streamed download chunks. Zero disables it.
	ChunkDelay time.Duration `json:"chunk_delay" yaml:"chunk_delay"`

	// ItemTimeout bounds the processing time of one item (default 120s).
	ItemTimeout time.Duration `json:"item_timeout" yaml:"item_timeout"`

	// FilterPublishers enables the publisher allow-list at both the search
	// and the item level.
	FilterPublishers bool `json:"filter_publishers" yaml:"filter_publishers"`

	// Publishers is the allow-list; DefaultPublishers when empty.
	Publishers []string `json:"publishers" yaml:"publishers"`
}

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Provider selects the backend: anthropic, openai, or gemini.
	Provider string `json:"provider" yaml:"provider"`

	// Model is the AI model identifier.
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the provider endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// Timeout bounds one completion call (default 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// JobStoreConfig selects the job registry backend.
type JobStoreConfig struct {
	// Backend is "memory" (default) or "sqlite".
	Backend string `json:"backend" yaml:"backend"`

	// Path is the SQLite database file for the sqlite backend.
	Path string `json:"path" yaml:"path"`
}

// ServerConfig holds settings for the job service.
type ServerConfig struct {
	// Addr is the listen address (default ":5000").
	Addr string `json:"addr" yaml:"addr"`

	// MaxConcurrentJobs bounds jobs running at once (default 3).
	MaxConcurrentJobs int `json:"max_concurrent_jobs" yaml:"max_concurrent_jobs"`

	// WorkDir is the parent of per-topic and per-job output directories
	// (default os.TempDir()).
	WorkDir string `json:"work_dir" yaml:"work_dir"`

	// ShutdownTimeout bounds graceful shutdown (default 10s).
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`

	Jobs JobStoreConfig `json:"jobs" yaml:"jobs"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum level (debug, info, warn, error).
	Level string `json:"level" yaml:"level"`

	// Format is json or console.
	Format string `json:"format" yaml:"format"`
}
