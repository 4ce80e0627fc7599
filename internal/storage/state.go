package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/Taichi-iskw/yt-comments/internal/batch"
	"github.com/Taichi-iskw/yt-comments/internal/errors"
)

const maxLineSize = 16 * 1024 * 1024

// Match reports whether a decoded JSONL line is kept
type Match func(fields map[string]any) bool

// FieldIn matches lines whose key holds one of values
func FieldIn(key string, values []string) Match {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return func(fields map[string]any) bool {
		v, ok := fields[key].(string)
		if !ok {
			return false
		}
		_, found := set[v]
		return found
	}
}

// ReadField returns the string value of key on every line of a JSONL file, in file order.
// A missing file yields no values. Lines without the key are skipped.
func ReadField(path, key string) ([]string, error) {
	return ReadFieldWhere(path, key, nil)
}

// ReadFieldWhere is ReadField limited to lines accepted by match. A nil match keeps every line.
func ReadFieldWhere(path, key string, match Match) ([]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, fmt.Sprintf("failed to open %s", path))
	}
	defer f.Close()

	values := []string{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var fields map[string]any
		if err := json.Unmarshal(line, &fields); err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, fmt.Sprintf("%s line %d is not a JSON object", path, lineNo))
		}
		if match != nil && !match(fields) {
			continue
		}
		if v, ok := fields[key].(string); ok && v != "" {
			values = append(values, v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, fmt.Sprintf("failed to read %s", path))
	}
	return values, nil
}

// Source names one JSONL file and the key holding the entity ID.
// Split marks comma-joined batch values. Match, when set, filters lines.
type Source struct {
	Path  string
	Key   string
	Split bool
	Match Match
}

// State is the set of IDs already present in prior output
type State struct {
	ids map[string]struct{}
}

// LoadState collects the IDs found in every source
func LoadState(sources ...Source) (*State, error) {
	state := &State{ids: make(map[string]struct{})}
	for _, src := range sources {
		if src.Path == "" {
			continue
		}
		values, err := ReadFieldWhere(src.Path, src.Key, src.Match)
		if err != nil {
			return nil, err
		}
		for _, v := range values {
			if !src.Split {
				state.ids[v] = struct{}{}
				continue
			}
			for _, id := range batch.Split(v) {
				state.ids[id] = struct{}{}
			}
		}
	}
	return state, nil
}

// Has reports whether id was seen
func (s *State) Has(id string) bool {
	if s == nil {
		return false
	}
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of distinct IDs
func (s *State) Len() int {
	if s == nil {
		return 0
	}
	return len(s.ids)
}
