package crawl

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Taichi-iskw/yt-comments/internal/batch"
	"github.com/Taichi-iskw/yt-comments/internal/errors"
	"github.com/Taichi-iskw/yt-comments/internal/model"
	"github.com/Taichi-iskw/yt-comments/internal/service/crawl"
	"github.com/Taichi-iskw/yt-comments/internal/storage"
)

// NewCommands returns the full crawl command and one command per stage
func NewCommands(factory Factory) []*cobra.Command {
	return []*cobra.Command{
		NewCrawlCommand(factory),
		NewChannelsCommand(factory),
		NewVideosCommand(factory),
		NewCommentsCommand(factory),
		NewDetailsCommand(factory),
	}
}

// stageFunc runs part of a crawl against a prepared driver
type stageFunc func(ctx context.Context, driver *crawl.Driver, paths storage.Paths) error

// execute builds the environment, runs fn and prints the summary. The summary is
// printed even when fn fails so partial progress stays visible.
func execute(cmd *cobra.Command, factory Factory, flags *runFlags, fn stageFunc) error {
	formatter, err := GetFormatter(flags.format)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	env, cleanup, err := factory(ctx, flags.output)
	if err != nil {
		return fmt.Errorf("failed to create crawl environment: %w", err)
	}
	defer cleanup()

	driver := crawl.NewDriver(env.Resolver, env.Sink, flags.options(env.Paths), env.Logger)
	runErr := fn(ctx, driver, env.Paths)

	output, err := formatter.Format(driver.Summary())
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), output)

	return runErr
}

// NewCrawlCommand creates the command that runs every stage
func NewCrawlCommand(factory Factory) *cobra.Command {
	var users, channels, videos, keywords, seeds string

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl channels, videos and comments from seed files",
		Long: `Resolve users to channels, channels and keywords to videos, then collect
comments and video details. Seed files hold one URL or ID per line.`,
		Example: `  ytcrawl crawl --channels channels.txt --since 01/01/2020
  ytcrawl crawl --seeds urls.txt --keywords terms.txt --no-comments`,
		Args: cobra.NoArgs,
	}
	flags := bindRunFlags(cmd)

	cmd.Flags().StringVar(&users, "users", "", "File of usernames or /user/ URLs")
	cmd.Flags().StringVar(&channels, "channels", "", "File of channel IDs or /channel/ URLs")
	cmd.Flags().StringVar(&videos, "videos", "", "File of video IDs or watch URLs")
	cmd.Flags().StringVar(&keywords, "keywords", "", "File of search terms, joined into one query")
	cmd.Flags().StringVar(&seeds, "seeds", "", "File of mixed channel, user and video URLs")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		plan := crawl.Plan{}
		for _, file := range []crawl.SeedFile{
			{Path: users, Type: model.EntityUser},
			{Path: channels, Type: model.EntityChannel},
			{Path: videos, Type: model.EntityVideo},
			{Path: keywords, Type: model.EntityKeyword},
			{Path: seeds, Type: model.EntityUnknown},
		} {
			if file.Path != "" {
				plan.Files = append(plan.Files, file)
			}
		}
		if len(plan.Files) == 0 {
			return errors.New(errors.CodeInvalidArg, "at least one of --users, --channels, --videos, --keywords or --seeds is required")
		}

		return execute(cmd, factory, flags, func(ctx context.Context, driver *crawl.Driver, _ storage.Paths) error {
			_, err := driver.Run(ctx, plan)
			return err
		})
	}

	return cmd
}

// NewChannelsCommand creates the command resolving usernames to channels
func NewChannelsCommand(factory Factory) *cobra.Command {
	var users string

	cmd := &cobra.Command{
		Use:   "channels",
		Short: "Resolve usernames to channels",
		Long:  `Look up the channels owned by each username and append them to channels.jsonl.`,
		Args:  cobra.NoArgs,
	}
	flags := bindRunFlags(cmd)
	cmd.Flags().StringVar(&users, "users", "", "File of usernames or /user/ URLs (required)")
	_ = cmd.MarkFlagRequired("users")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return execute(cmd, factory, flags, func(ctx context.Context, driver *crawl.Driver, _ storage.Paths) error {
			seeds, _, err := crawl.LoadSeeds(crawl.SeedFile{Path: users, Type: model.EntityUser})
			if err != nil {
				return err
			}
			if len(seeds.Channels) > 0 || len(seeds.Videos) > 0 {
				return errors.New(errors.CodeInvalidArg, fmt.Sprintf("%s must contain only usernames", users))
			}
			_, err = driver.ResolveUsers(ctx, seeds.Users)
			return err
		})
	}

	return cmd
}

// NewVideosCommand creates the command listing videos of channels or a search
func NewVideosCommand(factory Factory) *cobra.Command {
	var channels, keywords string

	cmd := &cobra.Command{
		Use:   "videos",
		Short: "List videos of channels or of a keyword search",
		Long: `Search each channel for videos and append them to videos.jsonl. Without
--channels or --keywords, channel IDs are read from channels.jsonl.`,
		Args: cobra.NoArgs,
	}
	flags := bindRunFlags(cmd)
	cmd.Flags().StringVar(&channels, "channels", "", "File of channel IDs, channel URLs or user URLs")
	cmd.Flags().StringVar(&keywords, "keywords", "", "File of search terms, joined into one query")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return execute(cmd, factory, flags, func(ctx context.Context, driver *crawl.Driver, paths storage.Paths) error {
			var channelIDs []string
			switch {
			case channels != "":
				seeds, _, err := crawl.LoadSeeds(crawl.SeedFile{Path: channels, Type: model.EntityChannel})
				if err != nil {
					return err
				}
				if len(seeds.Videos) > 0 {
					return errors.New(errors.CodeInvalidArg, fmt.Sprintf("%s contains video seeds", channels))
				}
				resolved, err := driver.ResolveUsers(ctx, seeds.Users)
				if err != nil {
					return err
				}
				channelIDs = append(seeds.Channels, resolved...)
			case keywords == "":
				ids, err := storage.ReadField(paths.RecordPath(model.StageChannels), "channel_id")
				if err != nil {
					return err
				}
				channelIDs = ids
			}

			if len(channelIDs) > 0 {
				if _, err := driver.ResolveChannels(ctx, batch.Unique(channelIDs)); err != nil {
					return err
				}
			}

			if keywords == "" {
				return nil
			}
			_, terms, err := crawl.LoadSeeds(crawl.SeedFile{Path: keywords, Type: model.EntityKeyword})
			if err != nil {
				return err
			}
			if len(terms) == 0 {
				return nil
			}
			_, err = driver.SearchKeywords(ctx, strings.Join(terms, " "))
			return err
		})
	}

	return cmd
}

// NewCommentsCommand creates the command collecting comments of videos
func NewCommentsCommand(factory Factory) *cobra.Command {
	var videos string

	cmd := &cobra.Command{
		Use:   "comments",
		Short: "Collect comments of videos",
		Long: `Collect every comment thread of each video and append it to comments.jsonl.
Without --videos, video IDs are read from videos.jsonl.`,
		Args: cobra.NoArgs,
	}
	flags := bindRunFlags(cmd)
	cmd.Flags().StringVar(&videos, "videos", "", "File of video IDs or watch URLs")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return execute(cmd, factory, flags, func(ctx context.Context, driver *crawl.Driver, paths storage.Paths) error {
			ids, err := videoIDs(videos, paths)
			if err != nil {
				return err
			}
			_, err = driver.CollectComments(ctx, ids)
			return err
		})
	}

	return cmd
}

// NewDetailsCommand creates the command fetching video details in batches
func NewDetailsCommand(factory Factory) *cobra.Command {
	var videos string

	cmd := &cobra.Command{
		Use:   "details",
		Short: "Fetch video details and statistics",
		Long: `Look up videos in batches and append the details to video_details.jsonl.
Without --videos, video IDs are read from videos.jsonl.`,
		Args: cobra.NoArgs,
	}
	flags := bindRunFlags(cmd)
	cmd.Flags().StringVar(&videos, "videos", "", "File of video IDs or watch URLs")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return execute(cmd, factory, flags, func(ctx context.Context, driver *crawl.Driver, paths storage.Paths) error {
			ids, err := videoIDs(videos, paths)
			if err != nil {
				return err
			}
			_, err = driver.EnrichVideos(ctx, ids)
			return err
		})
	}

	return cmd
}

// videoIDs reads video seeds from path, or every video_id in the videos store when path is empty
func videoIDs(path string, paths storage.Paths) ([]string, error) {
	if path == "" {
		ids, err := storage.ReadField(paths.RecordPath(model.StageVideos), "video_id")
		if err != nil {
			return nil, err
		}
		return batch.Unique(ids), nil
	}

	seeds, _, err := crawl.LoadSeeds(crawl.SeedFile{Path: path, Type: model.EntityVideo})
	if err != nil {
		return nil, err
	}
	if len(seeds.Channels) > 0 || len(seeds.Users) > 0 {
		return nil, errors.New(errors.CodeInvalidArg, fmt.Sprintf("%s must contain only videos", path))
	}
	return batch.Unique(seeds.Videos), nil
}
