// Package client is the YouTube Data API v3 boundary used by the crawl.
package client

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/Taichi-iskw/yt-comments/internal/errors"
	"github.com/Taichi-iskw/yt-comments/internal/model"
	"github.com/Taichi-iskw/yt-comments/internal/paginate"
)

// SearchParams holds the search.list filters. Exactly one of Query or ChannelID is normally set.
type SearchParams struct {
	Query          string
	ChannelID      string
	PublishedAfter string // RFC3339, e.g. 2019-01-01T00:00:00z
	Order          string
	PageSize       int64
}

// YouTube is the subset of the remote API the crawl consumes
type YouTube interface {
	Search(ctx context.Context, params SearchParams, pageToken string) (paginate.Page[string], error)
	Videos(ctx context.Context, ids string, withStats bool) ([]*model.Video, error)
	CommentThreads(ctx context.Context, videoID, pageToken string) (paginate.Page[*model.Comment], error)
	UserChannels(ctx context.Context, userID, pageToken string) (paginate.Page[*model.Channel], error)
}

// Options configures the Data API client
type Options struct {
	APIKey            string
	RequestsPerSecond float64
	Timeout           time.Duration
	Logger            *slog.Logger
	// ClientOptions are appended after the defaults (tests point the endpoint at a fake server)
	ClientOptions []option.ClientOption
}

const (
	defaultRequestsPerSecond = 5.0
	defaultTimeout           = 30 * time.Second
	commentPageSize          = 100
)

// dataAPI implements YouTube on top of google.golang.org/api/youtube/v3
type dataAPI struct {
	service *youtube.Service
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewYouTube creates the Data API client. It is built once per process and injected.
func NewYouTube(ctx context.Context, opts Options) (YouTube, error) {
	if opts.APIKey == "" && len(opts.ClientOptions) == 0 {
		return nil, errors.New(errors.CodeInvalidArg, "youtube api key is required")
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = defaultRequestsPerSecond
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	clientOpts := []option.ClientOption{}
	if opts.APIKey != "" {
		// WithHTTPClient disables option.WithAPIKey, so the key rides on the transport
		clientOpts = append(clientOpts,
			option.WithHTTPClient(&http.Client{Timeout: opts.Timeout, Transport: &apiKeyTransport{key: opts.APIKey}}),
		)
	}
	clientOpts = append(clientOpts, opts.ClientOptions...)

	service, err := youtube.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeExternal, "failed to create youtube service")
	}

	return &dataAPI{
		service: service,
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		logger:  opts.Logger.With("component", "youtube_client"),
	}, nil
}

// Search runs one search.list page and returns the video IDs on it
func (c *dataAPI) Search(ctx context.Context, params SearchParams, pageToken string) (paginate.Page[string], error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return paginate.Page[string]{}, err
	}

	call := c.service.Search.List([]string{"id"}).
		Type("video").
		PageToken(pageToken).
		Context(ctx)
	if params.Query != "" {
		call = call.Q(params.Query)
	}
	if params.ChannelID != "" {
		call = call.ChannelId(params.ChannelID)
	}
	if params.PublishedAfter != "" {
		call = call.PublishedAfter(params.PublishedAfter)
	}
	if params.Order != "" {
		call = call.Order(params.Order)
	}
	if params.PageSize > 0 {
		call = call.MaxResults(params.PageSize)
	}

	c.logger.Debug("search.list", "query", params.Query, "channel_id", params.ChannelID, "page_token", pageToken)
	resp, err := call.Do()
	if err != nil {
		return paginate.Page[string]{}, classify(err, "search.list failed")
	}

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" {
			return paginate.Page[string]{}, errors.New(errors.CodeMissingField, "search result without id.videoId")
		}
		ids = append(ids, item.Id.VideoId)
	}
	return paginate.Page[string]{Items: ids, NextPageToken: resp.NextPageToken}, nil
}

// Videos looks up details for a comma-joined batch of video IDs
func (c *dataAPI) Videos(ctx context.Context, ids string, withStats bool) ([]*model.Video, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	parts := []string{"snippet"}
	if withStats {
		parts = append(parts, "statistics")
	}

	c.logger.Debug("videos.list", "ids", ids, "statistics", withStats)
	resp, err := c.service.Videos.List(parts).Id(ids).Context(ctx).Do()
	if err != nil {
		return nil, classify(err, "videos.list failed")
	}

	videos := make([]*model.Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		video, err := convertVideo(item)
		if err != nil {
			return nil, err
		}
		videos = append(videos, video)
	}
	return videos, nil
}

// CommentThreads returns one page of comment threads, replies flattened after their parent
func (c *dataAPI) CommentThreads(ctx context.Context, videoID, pageToken string) (paginate.Page[*model.Comment], error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return paginate.Page[*model.Comment]{}, err
	}

	c.logger.Debug("commentThreads.list", "video_id", videoID, "page_token", pageToken)
	resp, err := c.service.CommentThreads.List([]string{"snippet", "replies"}).
		VideoId(videoID).
		MaxResults(commentPageSize).
		TextFormat("plainText").
		PageToken(pageToken).
		Context(ctx).
		Do()
	if err != nil {
		return paginate.Page[*model.Comment]{}, classify(err, "commentThreads.list failed")
	}

	comments := make([]*model.Comment, 0, len(resp.Items))
	for _, thread := range resp.Items {
		if thread.Snippet == nil || thread.Snippet.TopLevelComment == nil {
			return paginate.Page[*model.Comment]{}, errors.New(errors.CodeMissingField, "comment thread without topLevelComment")
		}
		top, err := convertComment(thread.Snippet.TopLevelComment, videoID)
		if err != nil {
			return paginate.Page[*model.Comment]{}, err
		}
		top.ReplyCount = thread.Snippet.TotalReplyCount
		comments = append(comments, top)

		if thread.Replies == nil {
			continue
		}
		for _, reply := range thread.Replies.Comments {
			converted, err := convertComment(reply, videoID)
			if err != nil {
				return paginate.Page[*model.Comment]{}, err
			}
			if converted.ParentID == "" {
				converted.ParentID = top.ID
			}
			comments = append(comments, converted)
		}
	}
	return paginate.Page[*model.Comment]{Items: comments, NextPageToken: resp.NextPageToken}, nil
}

// UserChannels returns the channels owned by a legacy username
func (c *dataAPI) UserChannels(ctx context.Context, userID, pageToken string) (paginate.Page[*model.Channel], error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return paginate.Page[*model.Channel]{}, err
	}

	c.logger.Debug("channels.list", "for_username", userID, "page_token", pageToken)
	resp, err := c.service.Channels.List([]string{"id", "snippet"}).
		ForUsername(userID).
		PageToken(pageToken).
		Context(ctx).
		Do()
	if err != nil {
		return paginate.Page[*model.Channel]{}, classify(err, "channels.list failed")
	}

	channels := make([]*model.Channel, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == "" {
			return paginate.Page[*model.Channel]{}, errors.New(errors.CodeMissingField, "channel without id")
		}
		channel := &model.Channel{ID: item.Id, UserID: userID}
		if item.Snippet != nil {
			channel.Title = item.Snippet.Title
			channel.Description = item.Snippet.Description
			channel.PublishedAt = item.Snippet.PublishedAt
		}
		channels = append(channels, channel)
	}
	return paginate.Page[*model.Channel]{Items: channels, NextPageToken: resp.NextPageToken}, nil
}

func convertVideo(item *youtube.Video) (*model.Video, error) {
	if item.Id == "" {
		return nil, errors.New(errors.CodeMissingField, "video without id")
	}
	if item.Snippet == nil {
		return nil, errors.New(errors.CodeMissingField, fmt.Sprintf("video %s has no snippet", item.Id))
	}

	video := &model.Video{
		ID:           item.Id,
		Title:        item.Snippet.Title,
		Description:  item.Snippet.Description,
		PublishedAt:  item.Snippet.PublishedAt,
		ChannelID:    item.Snippet.ChannelId,
		ChannelTitle: item.Snippet.ChannelTitle,
		Tags:         item.Snippet.Tags,
	}
	if t := item.Snippet.Thumbnails; t != nil && t.High != nil {
		video.Thumbnail = t.High.Url
	}
	if s := item.Statistics; s != nil {
		video.Statistics = model.NewStatistics(s.ViewCount, s.LikeCount, s.DislikeCount, s.CommentCount, s.FavoriteCount)
	}
	return video, nil
}

func convertComment(item *youtube.Comment, videoID string) (*model.Comment, error) {
	if item.Id == "" || item.Snippet == nil {
		return nil, errors.New(errors.CodeMissingField, "comment without id or snippet")
	}

	comment := &model.Comment{
		ID:          item.Id,
		VideoID:     videoID,
		ParentID:    item.Snippet.ParentId,
		AuthorName:  item.Snippet.AuthorDisplayName,
		Text:        item.Snippet.TextDisplay,
		LikeCount:   item.Snippet.LikeCount,
		PublishedAt: item.Snippet.PublishedAt,
		UpdatedAt:   item.Snippet.UpdatedAt,
	}
	if item.Snippet.AuthorChannelId != nil {
		comment.AuthorChannelID = item.Snippet.AuthorChannelId.Value
	}
	return comment, nil
}

// rateLimitReasons are the googleapi error reasons that mean quota or throttling
var rateLimitReasons = map[string]bool{
	"quotaExceeded":         true,
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
	"dailyLimitExceeded":    true,
}

// classify maps a transport error onto the crawl's error codes
func classify(err error, message string) error {
	var apiErr *googleapi.Error
	if !stderrors.As(err, &apiErr) {
		return errors.Wrap(err, errors.CodeExternal, message)
	}

	switch apiErr.Code {
	case http.StatusTooManyRequests:
		return errors.Wrap(err, errors.CodeRateLimited, message)
	case http.StatusNotFound:
		return errors.Wrap(err, errors.CodeNotFound, message)
	case http.StatusForbidden:
		for _, item := range apiErr.Errors {
			if rateLimitReasons[item.Reason] {
				return errors.Wrap(err, errors.CodeRateLimited, message)
			}
		}
	}
	return errors.Wrap(err, errors.CodeExternal, message)
}

// apiKeyTransport adds the key to every request so a custom http.Client can be used
type apiKeyTransport struct {
	key  string
	base http.RoundTripper
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	clone := req.Clone(req.Context())
	q := clone.URL.Query()
	if q.Get("key") == "" {
		q.Set("key", t.key)
		clone.URL.RawQuery = q.Encode()
	}
	return base.RoundTrip(clone)
}
