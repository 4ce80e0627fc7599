package youtube

import (
	"context"
	"iter"

	"github.com/Taichi-iskw/yt-comments/internal/errors"
	"github.com/Taichi-iskw/yt-comments/internal/model"
	"github.com/Taichi-iskw/yt-comments/internal/paginate"
)

// UserChannels returns every channel owned by a legacy username
func (r *resolver) UserChannels(ctx context.Context, userID string) iter.Seq2[*model.Channel, error] {
	if userID == "" {
		return failed[*model.Channel](errors.New(errors.CodeInvalidArg, "user ID is required"))
	}

	r.logger.Debug("resolving user channels", "user_id", userID)
	fetch := func(ctx context.Context, token string) (paginate.Page[*model.Channel], error) {
		return r.api.UserChannels(ctx, userID, token)
	}
	return paginate.New(fetch, 0).All(ctx)
}
