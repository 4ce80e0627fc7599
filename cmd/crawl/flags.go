package crawl

import (
	"github.com/spf13/cobra"

	"github.com/Taichi-iskw/yt-comments/internal/service/crawl"
	"github.com/Taichi-iskw/yt-comments/internal/storage"
)

// runFlags binds the tuning and output flags shared by every crawl command
type runFlags struct {
	opts    crawl.Options
	noStats bool
	output  OutputFlags
	format  string
}

func bindRunFlags(cmd *cobra.Command) *runFlags {
	f := &runFlags{opts: crawl.DefaultOptions()}
	flags := cmd.Flags()

	flags.StringVar(&f.opts.Since, "since", f.opts.Since, "Only videos published after this date (DD/MM/YYYY)")
	flags.StringVar(&f.opts.Order, "order", f.opts.Order, "Search order (date, rating, relevance, title, viewCount)")
	flags.Int64Var(&f.opts.PageSize, "page-size", f.opts.PageSize, "Results per search page")
	flags.IntVar(&f.opts.VideoLimit, "limit", 0, "Maximum videos per search (0 for unlimited)")
	flags.IntVar(&f.opts.CommentLimit, "limit-comments", 0, "Maximum comments per video (0 for unlimited)")
	flags.IntVar(&f.opts.BatchSize, "batch-size", f.opts.BatchSize, "Video IDs per details request")
	flags.BoolVar(&f.opts.SkipComments, "no-comments", false, "Do not collect comments")
	flags.BoolVar(&f.opts.SkipDetails, "no-details", false, "Do not fetch video details")
	flags.BoolVar(&f.noStats, "no-stats", false, "Fetch video details without statistics")
	flags.BoolVar(&f.opts.SkipProcessed, "skip-processed", false, "Skip IDs already present in the output or error files")

	flags.StringVar(&f.output.Dir, "output-dir", "", "Directory for JSONL output (default from config, then \"data\")")
	flags.StringVar(&f.output.VideoOutput, "video-output", "", "Override the videos.jsonl path")
	flags.StringVar(&f.output.CommentsOutput, "comments-output", "", "Override the comments.jsonl path")
	flags.StringVarP(&f.format, "format", "f", "text", "Summary format (text, json)")

	return f
}

// options finalises the crawl options once the environment's paths are known
func (f *runFlags) options(paths storage.Paths) crawl.Options {
	opts := f.opts
	opts.WithStats = !f.noStats
	opts.Paths = paths
	return opts
}
