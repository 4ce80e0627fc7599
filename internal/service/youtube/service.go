package youtube

import (
	"context"
	"iter"
	"log/slog"

	"github.com/Taichi-iskw/yt-comments/internal/client"
	"github.com/Taichi-iskw/yt-comments/internal/model"
)

// Resolver turns one key (user, channel, query or video) into the items it owns
type Resolver interface {
	UserChannels(ctx context.Context, userID string) iter.Seq2[*model.Channel, error]
	SearchVideos(ctx context.Context, query SearchQuery) iter.Seq2[string, error]
	VideoComments(ctx context.Context, videoID string, limit int) iter.Seq2[*model.Comment, error]
	VideoDetails(ctx context.Context, batch string, withStats bool) ([]*model.Video, error)
}

// SearchQuery selects videos by free text or by owning channel
type SearchQuery struct {
	Query     string
	ChannelID string
	Since     string // DD/MM/YYYY, empty for no date filter
	Order     string
	PageSize  int64
	Limit     int // soft cap on returned IDs, <= 0 for unlimited
}

// resolver implements Resolver
type resolver struct {
	api    client.YouTube
	logger *slog.Logger
}

// NewResolver creates a Resolver over an already constructed API client
func NewResolver(api client.YouTube) Resolver {
	return NewResolverWithLogger(api, slog.Default())
}

// NewResolverWithLogger creates a Resolver with a custom logger
func NewResolverWithLogger(api client.YouTube, logger *slog.Logger) Resolver {
	return &resolver{
		api:    api,
		logger: logger.With("component", "resolver"),
	}
}

// failed yields a single error, for validation failures before any request
func failed[T any](err error) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		yield(zero, err)
	}
}
