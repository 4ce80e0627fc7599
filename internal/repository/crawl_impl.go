package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/Taichi-iskw/yt-comments/internal/errors"
	"github.com/Taichi-iskw/yt-comments/internal/model"
)

// Pool interface for abstracting pgx connection pool
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// crawlRepository implements CrawlRepository using PostgreSQL
type crawlRepository struct {
	pool  Pool
	runID string
}

// NewCrawlRepository creates a CrawlRepository with a fresh run ID
func NewCrawlRepository(pool Pool) CrawlRepository {
	return NewCrawlRepositoryWithRunID(pool, uuid.NewString())
}

// NewCrawlRepositoryWithRunID creates a CrawlRepository with a fixed run ID (for testing)
func NewCrawlRepositoryWithRunID(pool Pool, runID string) CrawlRepository {
	return &crawlRepository{
		pool:  pool,
		runID: runID,
	}
}

func (r *crawlRepository) RunID() string {
	return r.runID
}

// WriteRecord inserts one record with its JSON payload
func (r *crawlRepository) WriteRecord(ctx context.Context, stage model.Stage, record model.Record) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "failed to encode record")
	}

	sql := "INSERT INTO crawl_records (run_id, stage, entity_id, payload) VALUES ($1, $2, $3, $4)"
	_, err = r.pool.Exec(ctx, sql, r.runID, string(stage), record.RecordID(), string(payload))
	if err != nil {
		return handlePostgreSQLError(err, "failed to insert crawl record")
	}
	return nil
}

// WriteError inserts one error row
func (r *crawlRepository) WriteError(ctx context.Context, rec model.ErrorRecord) error {
	sql := "INSERT INTO crawl_errors (run_id, entity_type, entity_id, exception) VALUES ($1, $2, $3, $4)"
	_, err := r.pool.Exec(ctx, sql, r.runID, string(rec.EntityType), rec.EntityID, rec.Exception)
	if err != nil {
		return handlePostgreSQLError(err, "failed to insert crawl error")
	}
	return nil
}

// FailedIDs returns the distinct entity IDs recorded as failed for a type
func (r *crawlRepository) FailedIDs(ctx context.Context, entityType model.EntityType) ([]string, error) {
	sql := `SELECT entity_id FROM crawl_errors WHERE entity_type = $1
		GROUP BY entity_id ORDER BY MIN(id)`
	rows, err := r.pool.Query(ctx, sql, string(entityType))
	if err != nil {
		return nil, handlePostgreSQLError(err, "failed to list failed IDs")
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to scan failed ID row")
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to iterate failed ID rows")
	}

	return ids, nil
}

// CountRecords counts stored rows for a stage
func (r *crawlRepository) CountRecords(ctx context.Context, stage model.Stage) (int64, error) {
	sql := "SELECT COUNT(*) FROM crawl_records WHERE stage = $1"
	var count int64
	if err := r.pool.QueryRow(ctx, sql, string(stage)).Scan(&count); err != nil {
		return 0, handlePostgreSQLError(err, "failed to count crawl records")
	}
	return count, nil
}

// Close closes the underlying pool
func (r *crawlRepository) Close() error {
	r.pool.Close()
	return nil
}
