package repository

import (
	"context"

	"github.com/Taichi-iskw/yt-comments/internal/model"
	"github.com/Taichi-iskw/yt-comments/internal/storage"
)

// CrawlRepository stores crawl output in PostgreSQL. Every write is an INSERT;
// rows are never updated or deleted.
type CrawlRepository interface {
	storage.Sink

	// RunID returns the identifier stamped on every row written by this repository
	RunID() string

	// FailedIDs returns the distinct entity IDs with at least one error row, oldest first
	FailedIDs(ctx context.Context, entityType model.EntityType) ([]string, error)

	// CountRecords returns the number of rows stored for a stage across all runs
	CountRecords(ctx context.Context, stage model.Stage) (int64, error)
}
