package storage

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/Taichi-iskw/yt-comments/internal/errors"
)

// Export converts JSONL from r into CSV on w. The header is the sorted union of
// every key seen; missing keys are empty, arrays and objects are JSON-encoded.
// It returns the number of data rows written.
func Export(r io.Reader, w io.Writer) (int, error) {
	var rows []map[string]any
	keys := make(map[string]struct{})

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(line))
		dec.UseNumber()
		var row map[string]any
		if err := dec.Decode(&row); err != nil {
			return 0, errors.Wrap(err, errors.CodeInvalidArg, fmt.Sprintf("line %d is not a JSON object", lineNo))
		}
		for k := range row {
			keys[k] = struct{}{}
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return 0, errors.Wrap(err, errors.CodeInternal, "failed to read input")
	}

	header := make([]string, 0, len(keys))
	for k := range keys {
		header = append(header, k)
	}
	sort.Strings(header)

	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return 0, errors.Wrap(err, errors.CodeInternal, "failed to write CSV header")
	}
	for _, row := range rows {
		record := make([]string, len(header))
		for i, h := range header {
			cell, err := formatCell(row[h])
			if err != nil {
				return 0, err
			}
			record[i] = cell
		}
		if err := writer.Write(record); err != nil {
			return 0, errors.Wrap(err, errors.CodeInternal, "failed to write CSV row")
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return 0, errors.Wrap(err, errors.CodeInternal, "failed to flush CSV")
	}
	return len(rows), nil
}

func formatCell(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	case bool:
		if val {
			return "true", nil
		}
		return "false", nil
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return "", errors.Wrap(err, errors.CodeInternal, "failed to encode cell")
		}
		return string(b), nil
	}
}

// ExportFile converts the JSONL file at in into a CSV file at out
func ExportFile(in, out string) (int, error) {
	src, err := os.Open(in)
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeNotFound, fmt.Sprintf("failed to open %s", in))
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return 0, errors.Wrap(err, errors.CodeInternal, "failed to create output dir")
	}
	dst, err := os.Create(out)
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeInternal, fmt.Sprintf("failed to create %s", out))
	}

	n, err := Export(src, dst)
	if closeErr := dst.Close(); err == nil && closeErr != nil {
		err = errors.Wrap(closeErr, errors.CodeInternal, fmt.Sprintf("failed to close %s", out))
	}
	return n, err
}
