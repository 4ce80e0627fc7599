// Package seed classifies crawl seed lines into channel, user and video references.
package seed

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/Taichi-iskw/yt-comments/internal/errors"
	"github.com/Taichi-iskw/yt-comments/internal/model"
)

// Patterns are tried in this order; the first match wins.
var patterns = []struct {
	entity model.EntityType
	re     *regexp.Regexp
}{
	{model.EntityChannel, regexp.MustCompile(`.*/channel/([^/&?=]+)`)},
	{model.EntityUser, regexp.MustCompile(`.*/user/([^/&?=]+)`)},
	{model.EntityVideo, regexp.MustCompile(`.*/watch[?]v=([^/&?=]+)`)},
}

// Seeds groups classified seed IDs by entity type, preserving input order
type Seeds struct {
	Channels []string
	Users    []string
	Videos   []string
}

// Len returns the total number of classified references
func (s *Seeds) Len() int {
	return len(s.Channels) + len(s.Users) + len(s.Videos)
}

func (s *Seeds) add(ref model.SeedReference) {
	switch ref.Type {
	case model.EntityChannel:
		s.Channels = append(s.Channels, ref.ID)
	case model.EntityUser:
		s.Users = append(s.Users, ref.ID)
	case model.EntityVideo:
		s.Videos = append(s.Videos, ref.ID)
	}
}

// Classify turns a URL or bare ID into a SeedReference.
// A bare ID (no path separator) takes the fallback type declared for its seed file.
func Classify(line string, fallback model.EntityType) (model.SeedReference, error) {
	raw := line
	line = strings.TrimSuffix(strings.TrimSpace(line), "/")
	if line == "" {
		return model.SeedReference{}, errors.New(errors.CodeUnrecognizedSeed, "empty seed line")
	}

	if !strings.Contains(line, "/") {
		switch fallback {
		case model.EntityChannel, model.EntityUser, model.EntityVideo:
			return model.SeedReference{Type: fallback, ID: line, Raw: raw}, nil
		}
		return model.SeedReference{}, errors.New(errors.CodeUnrecognizedSeed,
			fmt.Sprintf("bare id %q has no declared entity type", line))
	}

	for _, p := range patterns {
		if m := p.re.FindStringSubmatch(line); m != nil {
			return model.SeedReference{Type: p.entity, ID: m[1], Raw: raw}, nil
		}
	}

	return model.SeedReference{}, errors.New(errors.CodeUnrecognizedSeed,
		fmt.Sprintf("seed %q matches no channel, user or video pattern", line))
}

// ClassifyAll classifies every line. Any failure aborts the whole batch,
// as does a classified total that differs from the number of lines.
func ClassifyAll(lines []string, fallback model.EntityType) (*Seeds, error) {
	seeds := &Seeds{}
	for i, line := range lines {
		ref, err := Classify(line, fallback)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeUnrecognizedSeed, fmt.Sprintf("seed line %d", i+1))
		}
		seeds.add(ref)
	}

	if seeds.Len() != len(lines) {
		return nil, errors.New(errors.CodeUnrecognizedSeed,
			fmt.Sprintf("classified %d references from %d seed lines", seeds.Len(), len(lines)))
	}
	return seeds, nil
}

// ReadLines reads a seed file, trimming whitespace and skipping blank lines
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidArg, "failed to open seed file")
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to read seed file")
	}
	return lines, nil
}
