package youtube

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/Taichi-iskw/yt-comments/internal/client"
	"github.com/Taichi-iskw/yt-comments/internal/errors"
	"github.com/Taichi-iskw/yt-comments/internal/model"
	"github.com/Taichi-iskw/yt-comments/internal/paginate"
)

const inputDateLayout = "02/01/2006"

// FormatDate converts DD/MM/YYYY into the literal YYYY-MM-DDT00:00:00z search.list expects
func FormatDate(date string) (string, error) {
	t, err := time.Parse(inputDateLayout, date)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInvalidArg, fmt.Sprintf("invalid date %q, expected DD/MM/YYYY", date))
	}
	return t.Format("2006-01-02") + "T00:00:00z", nil
}

// SearchVideos returns video IDs for a keyword query or a channel
func (r *resolver) SearchVideos(ctx context.Context, query SearchQuery) iter.Seq2[string, error] {
	if query.Query == "" && query.ChannelID == "" {
		return failed[string](errors.New(errors.CodeInvalidArg, "query or channel ID is required"))
	}

	params := client.SearchParams{
		Query:     query.Query,
		ChannelID: query.ChannelID,
		Order:     query.Order,
		PageSize:  query.PageSize,
	}
	if query.Since != "" {
		after, err := FormatDate(query.Since)
		if err != nil {
			return failed[string](err)
		}
		params.PublishedAfter = after
	}

	r.logger.Debug("searching videos",
		"query", query.Query,
		"channel_id", query.ChannelID,
		"published_after", params.PublishedAfter,
		"limit", query.Limit,
	)
	fetch := func(ctx context.Context, token string) (paginate.Page[string], error) {
		return r.api.Search(ctx, params, token)
	}
	return paginate.New(fetch, query.Limit).All(ctx)
}

// VideoDetails looks up one comma-joined batch of video IDs
func (r *resolver) VideoDetails(ctx context.Context, batch string, withStats bool) ([]*model.Video, error) {
	if batch == "" {
		return []*model.Video{}, nil
	}

	videos, err := r.api.Videos(ctx, batch, withStats)
	if err != nil {
		return nil, err
	}

	// Statistics must be all-or-nothing, and absent when not requested
	for _, video := range videos {
		if !withStats {
			video.Statistics = model.Statistics{}
			continue
		}
		if !video.Consistent() {
			return nil, errors.New(errors.CodeMissingField, fmt.Sprintf("video %s has partial statistics", video.ID))
		}
	}
	return videos, nil
}
