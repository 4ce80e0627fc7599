package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Taichi-iskw/yt-comments/internal/storage"
)

func init() {
	rootCmd.AddCommand(newExportCommand())
}

// newExportCommand creates the JSONL to CSV export command
func newExportCommand() *cobra.Command {
	var input, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Convert a JSONL output file to CSV",
		Long: `Write a CSV file whose header is the sorted union of keys in the JSONL input.
Missing keys become empty cells; arrays and objects are JSON-encoded.`,
		Example: `  ytcrawl export --input data/video_details.jsonl --output details.csv`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				output = strings.TrimSuffix(input, filepath.Ext(input)) + ".csv"
			}

			rows, err := storage.ExportFile(input, output)
			if err != nil {
				return fmt.Errorf("failed to export %s: %w", input, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d row(s) to %s\n", rows, output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "JSONL file to convert (required)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "CSV file to write (default: input with .csv extension)")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}
