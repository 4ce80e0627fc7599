package crawl

import (
	"context"
	"io"
	"iter"
	"log/slog"

	"github.com/stretchr/testify/mock"

	"github.com/Taichi-iskw/yt-comments/internal/model"
	"github.com/Taichi-iskw/yt-comments/internal/service/youtube"
)

// mockResolver is a mock implementation of youtube.Resolver for testing
type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) UserChannels(ctx context.Context, userID string) iter.Seq2[*model.Channel, error] {
	args := m.Called(ctx, userID)
	return args.Get(0).(iter.Seq2[*model.Channel, error])
}

func (m *mockResolver) SearchVideos(ctx context.Context, query youtube.SearchQuery) iter.Seq2[string, error] {
	args := m.Called(ctx, query)
	return args.Get(0).(iter.Seq2[string, error])
}

func (m *mockResolver) VideoComments(ctx context.Context, videoID string, limit int) iter.Seq2[*model.Comment, error] {
	args := m.Called(ctx, videoID, limit)
	return args.Get(0).(iter.Seq2[*model.Comment, error])
}

func (m *mockResolver) VideoDetails(ctx context.Context, batch string, withStats bool) ([]*model.Video, error) {
	args := m.Called(ctx, batch, withStats)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Video), args.Error(1)
}

// seqOf yields items, then err if it is set
func seqOf[T any](items []T, err error) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for _, item := range items {
			if !yield(item, nil) {
				return
			}
		}
		if err != nil {
			var zero T
			yield(zero, err)
		}
	}
}

// iterCancel cancels the run mid-call and reports the cancellation
func iterCancel(cancel context.CancelFunc) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		cancel()
		yield("", context.Canceled)
	}
}

func byChannel(id string) any {
	return mock.MatchedBy(func(q youtube.SearchQuery) bool { return q.ChannelID == id })
}

func byQuery(query string) any {
	return mock.MatchedBy(func(q youtube.SearchQuery) bool { return q.Query == query })
}

// memorySink keeps writes in memory
type memorySink struct {
	records map[model.Stage][]model.Record
	errs    []model.ErrorRecord
	failErr error
	synced  bool
}

func newMemorySink() *memorySink {
	return &memorySink{records: make(map[model.Stage][]model.Record)}
}

func (s *memorySink) WriteRecord(ctx context.Context, stage model.Stage, record model.Record) error {
	if s.failErr != nil {
		return s.failErr
	}
	s.records[stage] = append(s.records[stage], record)
	return nil
}

func (s *memorySink) WriteError(ctx context.Context, rec model.ErrorRecord) error {
	if s.failErr != nil {
		return s.failErr
	}
	s.errs = append(s.errs, rec)
	return nil
}

func (s *memorySink) Sync() error {
	s.synced = true
	return nil
}

func (s *memorySink) Close() error { return nil }

func (s *memorySink) ids(stage model.Stage) []string {
	ids := []string{}
	for _, r := range s.records[stage] {
		ids = append(ids, r.RecordID())
	}
	return ids
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
