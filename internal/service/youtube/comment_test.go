package youtube

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Taichi-iskw/yt-comments/internal/errors"
	"github.com/Taichi-iskw/yt-comments/internal/model"
	"github.com/Taichi-iskw/yt-comments/internal/paginate"
)

func commentPage(next string, ids ...string) paginate.Page[*model.Comment] {
	items := make([]*model.Comment, 0, len(ids))
	for _, id := range ids {
		items = append(items, &model.Comment{ID: id, VideoID: "vid"})
	}
	return paginate.Page[*model.Comment]{Items: items, NextPageToken: next}
}

func TestResolver_VideoComments(t *testing.T) {
	tests := []struct {
		name         string
		limit        int
		wantIDs      []string
		wantRequests int
	}{
		{name: "unlimited walks every page", limit: 0, wantIDs: []string{"c1", "c1.r1", "c2", "c3"}, wantRequests: 2},
		{name: "limit reached on first page", limit: 2, wantIDs: []string{"c1", "c1.r1", "c2"}, wantRequests: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &mockYouTube{}
			api.On("CommentThreads", mock.Anything, "vid", "").Return(commentPage("p2", "c1", "c1.r1", "c2"), nil)
			api.On("CommentThreads", mock.Anything, "vid", "p2").Return(commentPage("", "c3"), nil)

			comments, err := paginate.Collect(NewResolver(api).VideoComments(context.Background(), "vid", tt.limit))
			require.NoError(t, err)

			var ids []string
			for _, c := range comments {
				ids = append(ids, c.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			api.AssertNumberOfCalls(t, "CommentThreads", tt.wantRequests)
		})
	}
}

func TestResolver_VideoComments_Disabled(t *testing.T) {
	api := &mockYouTube{}
	api.On("CommentThreads", mock.Anything, "vid", "").
		Return(paginate.Page[*model.Comment]{}, errors.New(errors.CodeExternal, "commentsDisabled"))

	_, err := paginate.Collect(NewResolver(api).VideoComments(context.Background(), "vid", 0))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeExternal))
}
