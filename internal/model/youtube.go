package model

// EntityType identifies what a seed or error record refers to
type EntityType string

const (
	EntityUnknown    EntityType = ""
	EntityChannel    EntityType = "channel"
	EntityUser       EntityType = "user"
	EntityVideo      EntityType = "video"
	EntityKeyword    EntityType = "keyword"
	EntityVideoBatch EntityType = "video_batch"
)

// SeedReference is a classified seed line
type SeedReference struct {
	Type EntityType `json:"type"`
	ID   string     `json:"id"`
	Raw  string     `json:"raw"`
}

// Record is anything the crawl persists as one output line
type Record interface {
	RecordID() string
}

// Channel represents YouTube channel information
type Channel struct {
	ID          string `json:"channel_id"`
	UserID      string `json:"user_id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	PublishedAt string `json:"published_at"`
}

func (c *Channel) RecordID() string { return c.ID }

// ChannelLink is the stage record written when a channel is discovered
type ChannelLink struct {
	ChannelID string `json:"channel_id"`
	UserID    string `json:"user_id,omitempty"`
}

func (l *ChannelLink) RecordID() string { return l.ChannelID }

// VideoLink is the stage record written when a video ID is discovered
type VideoLink struct {
	VideoID   string `json:"video_id"`
	ChannelID string `json:"channel_id,omitempty"`
	Query     string `json:"query,omitempty"`
}

func (l *VideoLink) RecordID() string { return l.VideoID }

// Statistics holds video counters. Either every field is set or none is.
type Statistics struct {
	Views        *uint64 `json:"views"`
	Likes        *uint64 `json:"likes"`
	Dislikes     *uint64 `json:"dislikes"`
	CommentCount *uint64 `json:"comment_count"`
	Favourites   *uint64 `json:"favourites"`
}

// NewStatistics returns a fully populated Statistics block
func NewStatistics(views, likes, dislikes, comments, favourites uint64) Statistics {
	return Statistics{
		Views:        &views,
		Likes:        &likes,
		Dislikes:     &dislikes,
		CommentCount: &comments,
		Favourites:   &favourites,
	}
}

// Present reports whether the statistics block was populated
func (s Statistics) Present() bool {
	return s.Views != nil
}

// Consistent reports whether the all-or-nothing rule holds
func (s Statistics) Consistent() bool {
	set := 0
	for _, v := range []*uint64{s.Views, s.Likes, s.Dislikes, s.CommentCount, s.Favourites} {
		if v != nil {
			set++
		}
	}
	return set == 0 || set == 5
}

// Video represents YouTube video details
type Video struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	PublishedAt  string   `json:"published_at"`
	ChannelID    string   `json:"channel_id"`
	ChannelTitle string   `json:"channel_title"`
	Tags         []string `json:"tags"`
	Thumbnail    string   `json:"thumbnail"`
	Statistics
}

func (v *Video) RecordID() string { return v.ID }

// Comment represents a top-level comment or a flattened reply
type Comment struct {
	ID              string `json:"id"`
	VideoID         string `json:"video_id"`
	ParentID        string `json:"parent_id,omitempty"`
	AuthorName      string `json:"author_display_name"`
	AuthorChannelID string `json:"author_channel_id"`
	Text            string `json:"text"`
	LikeCount       int64  `json:"like_count"`
	ReplyCount      int64  `json:"reply_count"`
	PublishedAt     string `json:"published_at"`
	UpdatedAt       string `json:"updated_at"`
}

func (c *Comment) RecordID() string { return c.ID }
