// Package postgres provides the Postgres-backed content store.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/webharvest/harvester/internal/content"
	"github.com/webharvest/harvester/internal/metrics"
)

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// pool is the slice of pgxpool.Pool the store depends on; pgxmock
// satisfies it in tests.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// ContentStore persists content records and scrape jobs in Postgres.
type ContentStore struct {
	pool  pool
	clock content.Clock
}

// NewContentStore creates a Postgres-backed ContentStore using the
// provided config.
func NewContentStore(ctx context.Context, cfg Config, clock content.Clock) (*ContentStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &ContentStore{pool: p, clock: clock}, nil
}

// NewContentStoreWithPool constructs a store from an existing pool
// (primarily for testing).
func NewContentStoreWithPool(p pool, clock content.Clock) (*ContentStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if clock == nil {
		return nil, fmt.Errorf("clock is required")
	}
	return &ContentStore{pool: p, clock: clock}, nil
}

// Close releases the underlying pool resources.
func (s *ContentStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// EnsureSchema creates the tables if they do not exist yet.
func (s *ContentStore) EnsureSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS scraped_content (
	id BIGSERIAL PRIMARY KEY,
	url TEXT NOT NULL UNIQUE,
	title TEXT,
	content TEXT,
	html_content TEXT,
	page_metadata JSONB,
	extracted_data JSONB,
	source_name TEXT,
	content_type TEXT,
	word_count INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	is_processed BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE TABLE IF NOT EXISTS scrape_jobs (
	id UUID PRIMARY KEY,
	job_name TEXT NOT NULL,
	target_url TEXT NOT NULL,
	job_type TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	pages_scraped INTEGER NOT NULL DEFAULT 0,
	pages_failed INTEGER NOT NULL DEFAULT 0,
	error_message TEXT,
	started_at TIMESTAMPTZ,
	completed_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL
);`
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

const upsertContentSQL = `
INSERT INTO scraped_content (
	url,
	title,
	content,
	html_content,
	page_metadata,
	extracted_data,
	source_name,
	content_type,
	word_count,
	created_at,
	updated_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$10
)
ON CONFLICT (url) DO UPDATE SET
	title = EXCLUDED.title,
	content = EXCLUDED.content,
	html_content = EXCLUDED.html_content,
	page_metadata = EXCLUDED.page_metadata,
	extracted_data = EXCLUDED.extracted_data,
	source_name = EXCLUDED.source_name,
	content_type = EXCLUDED.content_type,
	word_count = EXCLUDED.word_count,
	updated_at = EXCLUDED.updated_at
RETURNING id, created_at, updated_at, (xmax = 0) AS inserted`

// UpsertContent inserts or updates the row keyed by the draft's URL in
// one atomic statement, so concurrent writers for the same URL
// serialize at the row while distinct URLs never block each other.
// created_at survives updates; updated_at is refreshed every time.
func (s *ContentStore) UpsertContent(ctx context.Context, draft content.Draft) (content.Record, error) {
	if draft.URL == "" {
		return content.Record{}, fmt.Errorf("draft url is required")
	}
	metadataJSON, err := marshalMap(draft.Metadata)
	if err != nil {
		return content.Record{}, fmt.Errorf("marshal page metadata: %w", err)
	}
	extractedJSON, err := marshalMap(draft.ExtractedData)
	if err != nil {
		return content.Record{}, fmt.Errorf("marshal extracted data: %w", err)
	}

	now := s.clock.Now()
	record := content.Record{
		URL:           draft.URL,
		Title:         draft.Title,
		Content:       draft.Content,
		HTMLContent:   draft.HTMLContent,
		Metadata:      draft.Metadata,
		ExtractedData: draft.ExtractedData,
		SourceName:    draft.SourceName,
		ContentType:   draft.ContentType,
		WordCount:     draft.WordCount,
	}

	var inserted bool
	err = s.pool.QueryRow(ctx, upsertContentSQL,
		draft.URL,
		nullable(draft.Title),
		nullable(draft.Content),
		nullable(draft.HTMLContent),
		metadataJSON,
		extractedJSON,
		nullable(draft.SourceName),
		string(draft.ContentType),
		draft.WordCount,
		now,
	).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt, &inserted)
	if err != nil {
		return content.Record{}, fmt.Errorf("upsert content: %w", err)
	}
	metrics.ObserveUpsert(inserted, draft.WordCount)
	return record, nil
}

const statsSQL = `
SELECT
	(SELECT COUNT(*) FROM scraped_content) AS total_content,
	(SELECT COUNT(*) FROM scrape_jobs) AS total_jobs,
	(SELECT COUNT(*) FROM scrape_jobs WHERE status = 'completed') AS completed_jobs`

// Stats returns aggregate counts from a single query so the three
// counters come from one consistent snapshot.
func (s *ContentStore) Stats(ctx context.Context) (content.Stats, error) {
	var stats content.Stats
	err := s.pool.QueryRow(ctx, statsSQL).Scan(
		&stats.TotalContent,
		&stats.TotalJobs,
		&stats.CompletedJobs,
	)
	if err != nil {
		return content.Stats{}, fmt.Errorf("query stats: %w", err)
	}
	if stats.TotalJobs > 0 {
		stats.SuccessRate = float64(stats.CompletedJobs) / float64(stats.TotalJobs)
	}
	return stats, nil
}

const createJobSQL = `
INSERT INTO scrape_jobs (
	id, job_name, target_url, job_type, status,
	pages_scraped, pages_failed, error_message, started_at, created_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10
)`

// CreateJob records a new scrape job row.
func (s *ContentStore) CreateJob(ctx context.Context, job content.ScrapeJob) error {
	if job.ID == "" {
		return fmt.Errorf("job id is required")
	}
	createdAt := job.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.clock.Now()
	}
	_, err := s.pool.Exec(ctx, createJobSQL,
		job.ID,
		job.JobName,
		job.TargetURL,
		string(job.JobType),
		string(job.Status),
		job.PagesScraped,
		job.PagesFailed,
		nullable(job.ErrorMessage),
		job.StartedAt,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

const finishJobSQL = `
UPDATE scrape_jobs SET
	status = $2,
	error_message = $3,
	pages_scraped = $4,
	pages_failed = $5,
	completed_at = $6
WHERE id = $1`

// FinishJob moves a job to a terminal status. completed_at is only ever
// written here, keeping it in lockstep with terminal statuses.
func (s *ContentStore) FinishJob(ctx context.Context, id string, status content.JobStatus, errText string, scraped, failed int) error {
	if !status.Terminal() {
		return fmt.Errorf("finish job %s: status %q is not terminal", id, status)
	}
	tag, err := s.pool.Exec(ctx, finishJobSQL,
		id,
		string(status),
		nullable(errText),
		scraped,
		failed,
		s.clock.Now(),
	)
	if err != nil {
		return fmt.Errorf("finish job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("finish job: job %s not found", id)
	}
	metrics.ObserveJob(string(status))
	return nil
}

// marshalMap renders a map for a JSONB column, keeping NULL for absent
// maps. The untyped nil matters: a typed nil slice would be encoded as
// an empty value rather than NULL.
func marshalMap(m map[string]any) (any, error) {
	if m == nil {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// nullable maps empty strings to NULL so optional text columns stay
// NULL rather than "".
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
