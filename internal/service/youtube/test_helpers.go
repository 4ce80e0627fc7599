package youtube

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Taichi-iskw/yt-comments/internal/client"
	"github.com/Taichi-iskw/yt-comments/internal/model"
	"github.com/Taichi-iskw/yt-comments/internal/paginate"
)

// mockYouTube is a mock implementation of client.YouTube for testing
type mockYouTube struct {
	mock.Mock
}

func (m *mockYouTube) Search(ctx context.Context, params client.SearchParams, pageToken string) (paginate.Page[string], error) {
	args := m.Called(ctx, params, pageToken)
	return args.Get(0).(paginate.Page[string]), args.Error(1)
}

func (m *mockYouTube) Videos(ctx context.Context, ids string, withStats bool) ([]*model.Video, error) {
	args := m.Called(ctx, ids, withStats)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Video), args.Error(1)
}

func (m *mockYouTube) CommentThreads(ctx context.Context, videoID, pageToken string) (paginate.Page[*model.Comment], error) {
	args := m.Called(ctx, videoID, pageToken)
	return args.Get(0).(paginate.Page[*model.Comment]), args.Error(1)
}

func (m *mockYouTube) UserChannels(ctx context.Context, userID, pageToken string) (paginate.Page[*model.Channel], error) {
	args := m.Called(ctx, userID, pageToken)
	return args.Get(0).(paginate.Page[*model.Channel]), args.Error(1)
}
