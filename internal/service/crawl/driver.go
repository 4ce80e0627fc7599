// Package crawl drives a full crawl: seeds in, records and error records out.
package crawl

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/Taichi-iskw/yt-comments/internal/batch"
	"github.com/Taichi-iskw/yt-comments/internal/errors"
	"github.com/Taichi-iskw/yt-comments/internal/model"
	"github.com/Taichi-iskw/yt-comments/internal/seed"
	"github.com/Taichi-iskw/yt-comments/internal/service/youtube"
	"github.com/Taichi-iskw/yt-comments/internal/storage"
)

// State is the driver's position in the crawl lifecycle
type State int32

const (
	StateIdle State = iota
	StateClassifyingSeeds
	StateResolvingEntities
	StateEnrichingDetails
	StatePersisting
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateClassifyingSeeds:
		return "classifying_seeds"
	case StateResolvingEntities:
		return "resolving_entities"
	case StateEnrichingDetails:
		return "enriching_details"
	case StatePersisting:
		return "persisting"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Options tunes a crawl
type Options struct {
	Since        string // DD/MM/YYYY
	Order        string
	PageSize     int64
	VideoLimit   int // per search, <= 0 for unlimited
	CommentLimit int // per video, <= 0 for unlimited
	BatchSize    int

	SkipComments bool
	SkipDetails  bool
	WithStats    bool

	// SkipProcessed drops IDs already present in Paths' success or error files
	SkipProcessed bool
	Paths         storage.Paths
}

// DefaultOptions mirrors the CLI defaults
func DefaultOptions() Options {
	return Options{
		Since:     "01/01/2019",
		Order:     "viewCount",
		PageSize:  50,
		BatchSize: batch.DefaultSize,
		WithStats: true,
	}
}

// SeedFile is one input list. Lines wins over Path when both are set.
// Type declares what bare IDs are; EntityUnknown means a mixed URL file and
// EntityKeyword means free-text search terms.
type SeedFile struct {
	Path  string
	Lines []string
	Type  model.EntityType
}

// Plan lists every input for one run
type Plan struct {
	Files []SeedFile
}

// Summary counts what a run produced
type Summary struct {
	Seeds    int `json:"seeds"`
	Channels int `json:"channels"`
	Videos   int `json:"videos"`
	Comments int `json:"comments"`
	Details  int `json:"details"`
	Errors   int `json:"errors"`
	Skipped  int `json:"skipped"`
}

// Driver runs crawl stages sequentially. It is not safe for concurrent Run calls;
// State may be read from any goroutine.
type Driver struct {
	resolver youtube.Resolver
	sink     storage.Sink
	opts     Options
	logger   *slog.Logger

	state   atomic.Int32
	summary Summary
}

// NewDriver creates a Driver. The resolver and sink are owned by the caller.
func NewDriver(resolver youtube.Resolver, sink storage.Sink, opts Options, logger *slog.Logger) *Driver {
	if opts.BatchSize <= 0 {
		opts.BatchSize = batch.DefaultSize
	}
	return &Driver{
		resolver: resolver,
		sink:     sink,
		opts:     opts,
		logger:   logger.With("component", "crawl_driver"),
	}
}

// State returns the current lifecycle state
func (d *Driver) State() State {
	return State(d.state.Load())
}

func (d *Driver) setState(s State) {
	d.state.Store(int32(s))
	d.logger.Debug("state changed", "state", s.String())
}

// Summary returns the counts accumulated so far
func (d *Driver) Summary() Summary {
	return d.summary
}

// Run executes the full pipeline for plan
func (d *Driver) Run(ctx context.Context, plan Plan) (Summary, error) {
	d.setState(StateClassifyingSeeds)
	seeds, keywords, err := LoadSeeds(plan.Files...)
	if err != nil {
		return d.summary, err
	}
	d.summary.Seeds += seeds.Len() + len(keywords)
	d.logger.Info("seeds classified",
		"channels", len(seeds.Channels),
		"users", len(seeds.Users),
		"videos", len(seeds.Videos),
		"keywords", len(keywords),
	)

	d.setState(StateResolvingEntities)
	if err := d.writeSeedLinks(ctx, seeds); err != nil {
		return d.summary, err
	}

	channelIDs, err := d.ResolveUsers(ctx, seeds.Users)
	if err != nil {
		return d.summary, err
	}
	channelIDs = append(append([]string{}, seeds.Channels...), channelIDs...)

	videoIDs, err := d.ResolveChannels(ctx, channelIDs)
	if err != nil {
		return d.summary, err
	}
	videoIDs = append(append([]string{}, seeds.Videos...), videoIDs...)

	if len(keywords) > 0 {
		found, err := d.SearchKeywords(ctx, strings.Join(keywords, " "))
		if err != nil {
			return d.summary, err
		}
		videoIDs = append(videoIDs, found...)
	}
	videoIDs = batch.Unique(videoIDs)

	if !d.opts.SkipComments {
		if _, err := d.CollectComments(ctx, videoIDs); err != nil {
			return d.summary, err
		}
	}

	d.setState(StateEnrichingDetails)
	if !d.opts.SkipDetails {
		if _, err := d.EnrichVideos(ctx, videoIDs); err != nil {
			return d.summary, err
		}
	}

	d.setState(StatePersisting)
	if syncer, ok := d.sink.(interface{ Sync() error }); ok {
		if err := syncer.Sync(); err != nil {
			return d.summary, err
		}
	}

	d.setState(StateDone)
	d.logger.Info("crawl finished",
		"channels", d.summary.Channels,
		"videos", d.summary.Videos,
		"comments", d.summary.Comments,
		"details", d.summary.Details,
		"errors", d.summary.Errors,
		"skipped", d.summary.Skipped,
	)
	return d.summary, nil
}

// LoadSeeds reads and classifies seed files. Keyword files are returned as raw
// lines. Any bad line aborts the whole load.
func LoadSeeds(files ...SeedFile) (*seed.Seeds, []string, error) {
	all := &seed.Seeds{}
	var keywords []string

	for _, file := range files {
		lines := file.Lines
		if lines == nil && file.Path != "" {
			read, err := seed.ReadLines(file.Path)
			if err != nil {
				return nil, nil, err
			}
			lines = read
		}

		if file.Type == model.EntityKeyword {
			keywords = append(keywords, lines...)
			continue
		}

		seeds, err := seed.ClassifyAll(lines, file.Type)
		if err != nil {
			if file.Path != "" {
				return nil, nil, errors.Wrap(err, errors.CodeUnrecognizedSeed, file.Path)
			}
			return nil, nil, err
		}
		all.Channels = append(all.Channels, seeds.Channels...)
		all.Users = append(all.Users, seeds.Users...)
		all.Videos = append(all.Videos, seeds.Videos...)
	}
	return all, keywords, nil
}

// writeSeedLinks records seed channels and videos before anything is resolved
func (d *Driver) writeSeedLinks(ctx context.Context, seeds *seed.Seeds) error {
	for _, id := range seeds.Channels {
		if err := d.sink.WriteRecord(ctx, model.StageChannels, &model.ChannelLink{ChannelID: id}); err != nil {
			return err
		}
	}
	for _, id := range seeds.Videos {
		if err := d.sink.WriteRecord(ctx, model.StageVideos, &model.VideoLink{VideoID: id}); err != nil {
			return err
		}
	}
	return nil
}

// capture turns one failed seed, item or batch into an ErrorRecord.
// Cancellation is not captured; it is returned so the run stops.
func (d *Driver) capture(ctx context.Context, entityType model.EntityType, id string, cause error) error {
	if ctx.Err() != nil && (stderrors.Is(cause, context.Canceled) || stderrors.Is(cause, context.DeadlineExceeded)) {
		return ctx.Err()
	}

	d.summary.Errors++
	d.logger.Warn("capturing error",
		"entity_type", string(entityType),
		"entity_id", id,
		"error", cause,
	)
	return d.sink.WriteError(ctx, model.ErrorRecord{
		EntityType: entityType,
		EntityID:   id,
		Exception:  cause.Error(),
	})
}
