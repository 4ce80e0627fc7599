package crawl

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Taichi-iskw/yt-comments/internal/service/crawl"
)

// Formatter renders a run summary
type Formatter interface {
	Format(summary crawl.Summary) (string, error)
}

// TextFormatter formats the summary as aligned lines
type TextFormatter struct{}

// Format formats summary as plain text
func (f *TextFormatter) Format(summary crawl.Summary) (string, error) {
	var output strings.Builder

	output.WriteString("Crawl summary:\n")
	rows := []struct {
		label string
		value int
	}{
		{"Seeds", summary.Seeds},
		{"Channels", summary.Channels},
		{"Videos", summary.Videos},
		{"Comments", summary.Comments},
		{"Details", summary.Details},
		{"Errors", summary.Errors},
		{"Skipped", summary.Skipped},
	}
	for _, row := range rows {
		output.WriteString(fmt.Sprintf("  %-9s %d\n", row.label+":", row.value))
	}

	return output.String(), nil
}

// JSONFormatter formats the summary as JSON
type JSONFormatter struct{}

// Format formats summary as indented JSON
func (f *JSONFormatter) Format(summary crawl.Summary) (string, error) {
	jsonBytes, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(jsonBytes) + "\n", nil
}

// GetFormatter returns the formatter for format
func GetFormatter(format string) (Formatter, error) {
	switch strings.ToLower(format) {
	case "text", "txt", "":
		return &TextFormatter{}, nil
	case "json":
		return &JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}
