package content

import (
	"context"
	"time"
)

// Store persists content records and scrape jobs.
type Store interface {
	// UpsertContent inserts or updates the record identified by the
	// draft's URL in a single atomic operation and returns the persisted
	// row. On update, created_at is preserved and updated_at refreshed.
	UpsertContent(ctx context.Context, draft Draft) (Record, error)

	// Stats returns aggregate ingestion counts from one consistent read.
	Stats(ctx context.Context) (Stats, error)

	// CreateJob records a new scrape job row.
	CreateJob(ctx context.Context, job ScrapeJob) error

	// FinishJob moves a job to a terminal status, setting completed_at
	// and the final page counters.
	FinishJob(ctx context.Context, id string, status JobStatus, errText string, scraped, failed int) error

	// Close releases the underlying connection resources.
	Close()
}

// Extractor is the consumed interface of the external extraction
// service. Implementations own the wire format; callers only see
// ExtractResult.
type Extractor interface {
	Extract(ctx context.Context, req ExtractRequest) (*ExtractResult, error)
}

// Limiter gates outbound extraction-service calls.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces job IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
