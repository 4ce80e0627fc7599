package crawl

import (
	"context"
	"fmt"
	"strings"

	"github.com/Taichi-iskw/yt-comments/internal/batch"
	"github.com/Taichi-iskw/yt-comments/internal/errors"
	"github.com/Taichi-iskw/yt-comments/internal/model"
	"github.com/Taichi-iskw/yt-comments/internal/service/youtube"
	"github.com/Taichi-iskw/yt-comments/internal/storage"
)

// ResolveUsers finds the channels of each user and appends them to the channels store.
// It returns the discovered channel IDs in order.
func (d *Driver) ResolveUsers(ctx context.Context, users []string) ([]string, error) {
	users, done, err := d.skipProcessed(users, model.StageChannels,
		d.processedSources(model.StageChannels, "user_id", model.EntityUser)...)
	if err != nil {
		return nil, err
	}
	channelIDs, err := d.reload(model.StageChannels, "channel_id", "user_id", done)
	if err != nil {
		return nil, err
	}

	d.logger.Info("resolving users", "count", len(users))
	for _, userID := range users {
		if err := ctx.Err(); err != nil {
			return channelIDs, err
		}

		outcome := drain(d.resolver.UserChannels(ctx, userID))
		if !outcome.OK() {
			if err := d.capture(ctx, model.EntityUser, userID, outcome.Err); err != nil {
				return channelIDs, err
			}
			continue
		}

		for _, channel := range outcome.Items {
			if channel.UserID == "" {
				channel.UserID = userID
			}
			if err := d.sink.WriteRecord(ctx, model.StageChannels, channel); err != nil {
				return channelIDs, err
			}
			channelIDs = append(channelIDs, channel.ID)
		}
		d.summary.Channels += len(outcome.Items)
		d.logger.Debug("user resolved", "user_id", userID, "channels", len(outcome.Items))
	}
	return channelIDs, nil
}

// ResolveChannels searches the videos of each channel and appends {video_id, channel_id}
// links to the videos store. It returns the discovered video IDs in order.
func (d *Driver) ResolveChannels(ctx context.Context, channelIDs []string) ([]string, error) {
	channelIDs, done, err := d.skipProcessed(channelIDs, model.StageVideos,
		d.processedSources(model.StageVideos, "channel_id", model.EntityChannel)...)
	if err != nil {
		return nil, err
	}
	videoIDs, err := d.reload(model.StageVideos, "video_id", "channel_id", done)
	if err != nil {
		return nil, err
	}

	d.logger.Info("resolving channels", "count", len(channelIDs))
	for _, channelID := range channelIDs {
		if err := ctx.Err(); err != nil {
			return videoIDs, err
		}

		outcome := drain(d.resolver.SearchVideos(ctx, d.searchQuery("", channelID)))
		if !outcome.OK() {
			if err := d.capture(ctx, model.EntityChannel, channelID, outcome.Err); err != nil {
				return videoIDs, err
			}
			continue
		}

		for _, videoID := range outcome.Items {
			link := &model.VideoLink{VideoID: videoID, ChannelID: channelID}
			if err := d.sink.WriteRecord(ctx, model.StageVideos, link); err != nil {
				return videoIDs, err
			}
		}
		videoIDs = append(videoIDs, outcome.Items...)
		d.summary.Videos += len(outcome.Items)
		d.logger.Debug("channel resolved", "channel_id", channelID, "videos", len(outcome.Items))
	}
	return videoIDs, nil
}

// SearchKeywords runs one free-text search and appends {video_id, query} links
func (d *Driver) SearchKeywords(ctx context.Context, query string) ([]string, error) {
	if query == "" {
		return []string{}, nil
	}
	queries, done, err := d.skipProcessed([]string{query}, model.StageVideos,
		d.processedSources(model.StageVideos, "query", model.EntityKeyword)...)
	if err != nil {
		return nil, err
	}
	if len(queries) == 0 {
		return d.reload(model.StageVideos, "video_id", "query", done)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.logger.Info("searching keywords", "query", query)
	outcome := drain(d.resolver.SearchVideos(ctx, d.searchQuery(query, "")))
	if !outcome.OK() {
		return []string{}, d.capture(ctx, model.EntityKeyword, query, outcome.Err)
	}

	for _, videoID := range outcome.Items {
		if err := d.sink.WriteRecord(ctx, model.StageVideos, &model.VideoLink{VideoID: videoID, Query: query}); err != nil {
			return nil, err
		}
	}
	d.summary.Videos += len(outcome.Items)
	return outcome.Items, nil
}

// CollectComments appends every comment of each video to the comments store.
// It returns the number of comments written.
func (d *Driver) CollectComments(ctx context.Context, videoIDs []string) (int, error) {
	videoIDs, _, err := d.skipProcessed(videoIDs, model.StageComments,
		d.processedSources(model.StageComments, "video_id", model.EntityVideo)...)
	if err != nil {
		return 0, err
	}

	d.logger.Info("collecting comments", "videos", len(videoIDs), "limit", d.opts.CommentLimit)
	written := 0
	for _, videoID := range videoIDs {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		outcome := drain(d.resolver.VideoComments(ctx, videoID, d.opts.CommentLimit))
		if !outcome.OK() {
			if err := d.capture(ctx, model.EntityVideo, videoID, outcome.Err); err != nil {
				return written, err
			}
			continue
		}

		for _, comment := range outcome.Items {
			if err := d.sink.WriteRecord(ctx, model.StageComments, comment); err != nil {
				return written, err
			}
		}
		written += len(outcome.Items)
		d.summary.Comments += len(outcome.Items)
	}
	return written, nil
}

// EnrichVideos looks up details for videoIDs in batches and appends them to the
// details store. A failed batch yields one video_batch error; IDs the remote
// did not return yield one NOT_FOUND error each.
func (d *Driver) EnrichVideos(ctx context.Context, videoIDs []string) (int, error) {
	// video_errors.jsonl also holds comment failures, so only details misses count here
	videoIDs, _, err := d.skipProcessed(videoIDs, model.StageVideoDetails,
		storage.Source{Path: d.opts.Paths.RecordPath(model.StageVideoDetails), Key: "id"},
		storage.Source{
			Path:  d.opts.Paths.ErrorPath(model.EntityVideoBatch),
			Key:   model.ErrorKey(model.EntityVideoBatch),
			Split: true,
		},
		storage.Source{
			Path:  d.opts.Paths.ErrorPath(model.EntityVideo),
			Key:   model.ErrorKey(model.EntityVideo),
			Match: notReturned,
		},
	)
	if err != nil {
		return 0, err
	}

	batches := batch.Batch(videoIDs, d.opts.BatchSize)
	d.logger.Info("enriching videos", "videos", len(videoIDs), "batches", len(batches), "statistics", d.opts.WithStats)

	written := 0
	for _, ids := range batches {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		videos, err := d.resolver.VideoDetails(ctx, ids, d.opts.WithStats)
		if err != nil {
			if err := d.capture(ctx, model.EntityVideoBatch, ids, err); err != nil {
				return written, err
			}
			continue
		}

		returned := make(map[string]struct{}, len(videos))
		for _, video := range videos {
			returned[video.ID] = struct{}{}
			if err := d.sink.WriteRecord(ctx, model.StageVideoDetails, video); err != nil {
				return written, err
			}
		}
		written += len(videos)
		d.summary.Details += len(videos)

		for _, id := range batch.Split(ids) {
			if _, ok := returned[id]; ok {
				continue
			}
			missing := errors.New(errors.CodeNotFound, fmt.Sprintf("video %s %s", id, notReturnedMessage))
			if err := d.capture(ctx, model.EntityVideo, id, missing); err != nil {
				return written, err
			}
		}
	}
	return written, nil
}

func (d *Driver) searchQuery(query, channelID string) youtube.SearchQuery {
	return youtube.SearchQuery{
		Query:     query,
		ChannelID: channelID,
		Since:     d.opts.Since,
		Order:     d.opts.Order,
		PageSize:  d.opts.PageSize,
		Limit:     d.opts.VideoLimit,
	}
}

// processedSources lists the success and error stores that mark an ID as done
func (d *Driver) processedSources(stage model.Stage, successKey string, entityType model.EntityType) []storage.Source {
	return []storage.Source{
		{Path: d.opts.Paths.RecordPath(stage), Key: successKey},
		{Path: d.opts.Paths.ErrorPath(entityType), Key: model.ErrorKey(entityType)},
	}
}

const notReturnedMessage = "not returned by videos.list"

// notReturned matches error lines written by EnrichVideos for missing IDs
func notReturned(fields map[string]any) bool {
	exception, _ := fields["exception"].(string)
	return strings.HasPrefix(exception, errors.CodeNotFound+":") && strings.HasSuffix(exception, notReturnedMessage)
}

// skipProcessed filters ids present in any of sources and returns the remaining
// and the skipped IDs. It is a no-op unless SkipProcessed is set.
func (d *Driver) skipProcessed(ids []string, stage model.Stage, sources ...storage.Source) ([]string, []string, error) {
	if !d.opts.SkipProcessed || len(ids) == 0 {
		return ids, nil, nil
	}

	state, err := storage.LoadState(sources...)
	if err != nil {
		return nil, nil, err
	}

	remaining := make([]string, 0, len(ids))
	var skipped []string
	for _, id := range ids {
		if state.Has(id) {
			skipped = append(skipped, id)
			continue
		}
		remaining = append(remaining, id)
	}
	if len(skipped) > 0 {
		d.summary.Skipped += len(skipped)
		d.logger.Info("skipping already processed", "stage", string(stage), "skipped", len(skipped), "remaining", len(remaining))
	}
	return remaining, skipped, nil
}

// reload returns the childKey values stored for parents in the stage's success
// store, so children of a skipped parent still reach later stages.
func (d *Driver) reload(stage model.Stage, childKey, parentKey string, parents []string) ([]string, error) {
	path := d.opts.Paths.RecordPath(stage)
	if len(parents) == 0 || path == "" {
		return []string{}, nil
	}

	children, err := storage.ReadFieldWhere(path, childKey, storage.FieldIn(parentKey, parents))
	if err != nil {
		return nil, err
	}
	children = batch.Unique(children)
	if len(children) > 0 {
		d.logger.Info("reloaded stored results", "stage", string(stage), "parents", len(parents), "children", len(children))
	}
	return children, nil
}
