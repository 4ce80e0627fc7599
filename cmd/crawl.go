package cmd

import (
	crawlcmd "github.com/Taichi-iskw/yt-comments/cmd/crawl"
)

func init() {
	// crawl, channels, videos, comments and details share one factory
	for _, cmd := range crawlcmd.NewCommands(crawlcmd.NewFactory(loadConfig)) {
		rootCmd.AddCommand(cmd)
	}
}
