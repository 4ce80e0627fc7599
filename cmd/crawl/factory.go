package crawl

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Taichi-iskw/yt-comments/internal/client"
	"github.com/Taichi-iskw/yt-comments/internal/config"
	"github.com/Taichi-iskw/yt-comments/internal/model"
	"github.com/Taichi-iskw/yt-comments/internal/repository"
	"github.com/Taichi-iskw/yt-comments/internal/service/youtube"
	"github.com/Taichi-iskw/yt-comments/internal/storage"
)

// OutputFlags selects where records and error records are written
type OutputFlags struct {
	Dir            string
	VideoOutput    string
	CommentsOutput string
}

// Paths resolves the output files. An empty Dir falls back to defaultDir.
func (o OutputFlags) Paths(defaultDir string) storage.Paths {
	dir := o.Dir
	if dir == "" {
		dir = defaultDir
	}
	paths := storage.DefaultPaths(dir)
	if o.VideoOutput != "" {
		paths.Records[model.StageVideos] = o.VideoOutput
	}
	if o.CommentsOutput != "" {
		paths.Records[model.StageComments] = o.CommentsOutput
	}
	return paths
}

// Environment is everything a crawl command runs against
type Environment struct {
	Resolver youtube.Resolver
	Sink     storage.Sink
	Paths    storage.Paths
	Logger   *slog.Logger
}

// Factory builds an Environment and a cleanup func that closes it
type Factory func(ctx context.Context, out OutputFlags) (*Environment, func(), error)

// NewFactory returns the production Factory. loadConfig is called once per command run.
func NewFactory(loadConfig func() (*config.Config, error)) Factory {
	return func(ctx context.Context, out OutputFlags) (*Environment, func(), error) {
		cfg, err := loadConfig()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := cfg.RequireAPIKey(); err != nil {
			return nil, nil, err
		}

		logger := slog.Default()
		api, err := client.NewYouTube(ctx, client.Options{
			APIKey:            cfg.APIKey,
			RequestsPerSecond: cfg.RequestsPerSecond,
			Timeout:           cfg.RequestTimeout,
			Logger:            logger,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create youtube client: %w", err)
		}

		paths := out.Paths(cfg.OutputDir)
		sinks := []storage.Sink{storage.NewFileSink(paths, logger)}

		if cfg.DatabaseURL != "" {
			pool, err := config.NewDatabasePool(ctx, cfg)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
			}
			repo := repository.NewCrawlRepository(pool)
			logger.Info("postgres sink enabled", "run_id", repo.RunID())
			sinks = append(sinks, repo)
		}

		sink := storage.NewMultiSink(sinks...)
		cleanup := func() {
			if err := sink.Close(); err != nil {
				logger.Error("failed to close sinks", "error", err)
			}
		}

		return &Environment{
			Resolver: youtube.NewResolverWithLogger(api, logger),
			Sink:     sink,
			Paths:    paths,
			Logger:   logger,
		}, cleanup, nil
	}
}
