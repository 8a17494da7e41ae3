// Package content defines core types shared across subsystems.
package content

import "time"

// Type labels the kind of page a record was extracted from.
type Type string

// Content type values derived by the classifier.
const (
	TypePDF           Type = "pdf"
	TypeArticle       Type = "article"
	TypeDocumentation Type = "documentation"
	TypeResearchPaper Type = "research_paper"
	TypeWebpage       Type = "webpage"
)

// Output formats that can be requested from the extraction service.
const (
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
	FormatJSON     = "json"
)

// Record is the canonical persisted representation of one scraped URL.
// Exactly one record exists per distinct URL.
type Record struct {
	ID            int64          `json:"id"`
	URL           string         `json:"url"`
	Title         string         `json:"title,omitempty"`
	Content       string         `json:"content,omitempty"`
	HTMLContent   string         `json:"html_content,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	ExtractedData map[string]any `json:"extracted_data,omitempty"`
	SourceName    string         `json:"source_name,omitempty"`
	ContentType   Type           `json:"content_type"`
	WordCount     int            `json:"word_count"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`

	// IsProcessed is reserved for downstream pipeline stages and is never
	// set by the ingestion pipeline.
	IsProcessed bool `json:"is_processed"`
}

// Draft is a normalized scrape result ready to be upserted. The store
// assigns identity and timestamps.
type Draft struct {
	URL           string
	Title         string
	Content       string
	HTMLContent   string
	Metadata      map[string]any
	ExtractedData map[string]any
	SourceName    string
	ContentType   Type
	WordCount     int
}

// JobStatus represents the lifecycle state of a scrape job.
type JobStatus string

// Job status values persisted in the job table.
const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether a status ends the job lifecycle.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// JobType distinguishes multi-page crawls from single-URL scrapes.
type JobType string

// Job type values.
const (
	JobTypeCrawl  JobType = "crawl"
	JobTypeScrape JobType = "scrape"
)

// ScrapeJob tracks one scraping attempt against a named target,
// independent of individual content records.
type ScrapeJob struct {
	ID           string     `json:"id"`
	JobName      string     `json:"job_name"`
	TargetURL    string     `json:"target_url"`
	JobType      JobType    `json:"job_type"`
	Status       JobStatus  `json:"status"`
	PagesScraped int        `json:"pages_scraped"`
	PagesFailed  int        `json:"pages_failed"`
	ErrorMessage string     `json:"error_message,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Stats aggregates ingestion outcomes across all content and jobs.
type Stats struct {
	TotalContent  int64   `json:"total_content"`
	TotalJobs     int64   `json:"total_jobs"`
	CompletedJobs int64   `json:"completed_jobs"`
	SuccessRate   float64 `json:"success_rate"`
}

// ExtractRequest is what the pipeline asks the extraction service for.
type ExtractRequest struct {
	URL     string
	Formats []string

	// Schema, when non-nil, requests schema-driven structured extraction
	// and implies the json format.
	Schema map[string]any
}

// ExtractResult is the single explicit shape of an extraction service
// response. Service-specific wire formats are adapted to it at the
// client boundary.
type ExtractResult struct {
	Markdown string
	HTML     string
	Metadata map[string]any

	// StructuredData carries the schema-driven payload, present only
	// when a schema was requested.
	StructuredData map[string]any
}
