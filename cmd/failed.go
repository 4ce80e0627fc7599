package cmd

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/Taichi-iskw/yt-comments/internal/batch"
	"github.com/Taichi-iskw/yt-comments/internal/config"
	"github.com/Taichi-iskw/yt-comments/internal/errors"
	"github.com/Taichi-iskw/yt-comments/internal/model"
	"github.com/Taichi-iskw/yt-comments/internal/repository"
	"github.com/Taichi-iskw/yt-comments/internal/storage"
)

// failedTypes are the entity types that have an error store
var failedTypes = []model.EntityType{
	model.EntityUser,
	model.EntityChannel,
	model.EntityVideo,
	model.EntityVideoBatch,
	model.EntityKeyword,
}

// repositoryOpener connects the crawl repository and returns a cleanup func
type repositoryOpener func(ctx context.Context) (repository.CrawlRepository, func(), error)

func init() {
	rootCmd.AddCommand(newFailedCommand(openCrawlRepository))
}

// newFailedCommand creates the command listing failed IDs for a retry pass
func newFailedCommand(open repositoryOpener) *cobra.Command {
	var outputDir string
	var fromDB bool

	cmd := &cobra.Command{
		Use:   "failed TYPE",
		Short: "List IDs recorded in an error store",
		Long: `Print one failed ID per line, in first-failure order, so they can be fed back
as a seed file. TYPE is one of user, channel, video, video_batch or keyword.
video_batch entries are expanded to their video IDs.`,
		Example: `  ytcrawl failed channel > retry_channels.txt
  ytcrawl failed video --db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entityType := model.EntityType(args[0])
			if !slices.Contains(failedTypes, entityType) {
				return errors.New(errors.CodeInvalidArg, fmt.Sprintf("unknown entity type %q", args[0]))
			}

			var ids []string
			if fromDB {
				repo, cleanup, err := open(cmd.Context())
				if err != nil {
					return err
				}
				defer cleanup()

				ids, err = repo.FailedIDs(cmd.Context(), entityType)
				if err != nil {
					return fmt.Errorf("failed to list failed IDs: %w", err)
				}
			} else {
				paths := storage.DefaultPaths(outputDir)
				var err error
				ids, err = storage.ReadField(paths.ErrorPath(entityType), model.ErrorKey(entityType))
				if err != nil {
					return fmt.Errorf("failed to read error store: %w", err)
				}
			}

			if entityType == model.EntityVideoBatch {
				var expanded []string
				for _, joined := range ids {
					expanded = append(expanded, batch.Split(joined)...)
				}
				ids = expanded
			}

			for _, id := range batch.Unique(ids) {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outputDir, "output-dir", config.DefaultOutputDir, "Directory holding the error files")
	cmd.Flags().BoolVar(&fromDB, "db", false, "Read from the PostgreSQL error table instead of files")

	return cmd
}

// openCrawlRepository connects to the configured database
func openCrawlRepository(ctx context.Context) (repository.CrawlRepository, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return nil, nil, errors.New(errors.CodeInvalidArg, "database_url is not configured")
	}

	pool, err := config.NewDatabasePool(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	repo := repository.NewCrawlRepository(pool)
	return repo, func() { _ = repo.Close() }, nil
}
