package youtube

import (
	"context"
	"iter"

	"github.com/Taichi-iskw/yt-comments/internal/errors"
	"github.com/Taichi-iskw/yt-comments/internal/model"
	"github.com/Taichi-iskw/yt-comments/internal/paginate"
)

// VideoComments returns top-level comments with their replies flattened after them.
// limit caps comments (replies included) after each page; <= 0 means unlimited.
func (r *resolver) VideoComments(ctx context.Context, videoID string, limit int) iter.Seq2[*model.Comment, error] {
	if videoID == "" {
		return failed[*model.Comment](errors.New(errors.CodeInvalidArg, "video ID is required"))
	}

	r.logger.Debug("collecting comments", "video_id", videoID, "limit", limit)
	fetch := func(ctx context.Context, token string) (paginate.Page[*model.Comment], error) {
		return r.api.CommentThreads(ctx, videoID, token)
	}
	return paginate.New(fetch, limit).All(ctx)
}
