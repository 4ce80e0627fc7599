package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/Taichi-iskw/yt-comments/internal/errors"
	"github.com/Taichi-iskw/yt-comments/internal/model"
)

// Paths maps each stage and error type to its output file
type Paths struct {
	Records map[model.Stage]string
	Errors  map[model.EntityType]string
}

// DefaultPaths returns the standard file layout under dir
func DefaultPaths(dir string) Paths {
	join := func(name string) string { return filepath.Join(dir, name) }
	return Paths{
		Records: map[model.Stage]string{
			model.StageChannels:     join("channels.jsonl"),
			model.StageVideos:       join("videos.jsonl"),
			model.StageComments:     join("comments.jsonl"),
			model.StageVideoDetails: join("video_details.jsonl"),
		},
		Errors: map[model.EntityType]string{
			model.EntityUser:       join("user_errors.jsonl"),
			model.EntityChannel:    join("channel_errors.jsonl"),
			model.EntityVideo:      join("video_errors.jsonl"),
			model.EntityVideoBatch: join("video_errors.jsonl"),
			model.EntityKeyword:    join("keyword_errors.jsonl"),
		},
	}
}

// RecordPath returns the file for a stage, or "" when none is configured
func (p Paths) RecordPath(stage model.Stage) string {
	return p.Records[stage]
}

// ErrorPath returns the error file for an entity type, or "" when none is configured
func (p Paths) ErrorPath(t model.EntityType) string {
	return p.Errors[t]
}

// FileSink appends JSON lines to per-stage files opened with O_APPEND
type FileSink struct {
	paths  Paths
	files  map[string]*os.File
	counts map[string]int
	mu     sync.Mutex
	logger *slog.Logger
}

// NewFileSink creates a FileSink. Files are opened on first write.
func NewFileSink(paths Paths, logger *slog.Logger) *FileSink {
	return &FileSink{
		paths:  paths,
		files:  make(map[string]*os.File),
		counts: make(map[string]int),
		logger: logger.With("component", "jsonl_sink"),
	}
}

// WriteRecord appends one record line to the stage's file
func (s *FileSink) WriteRecord(ctx context.Context, stage model.Stage, record model.Record) error {
	path := s.paths.RecordPath(stage)
	if path == "" {
		return errors.New(errors.CodeInvalidArg, fmt.Sprintf("no output file for stage %q", stage))
	}
	return s.appendLine(path, record)
}

// WriteError appends one error line to the entity type's error file
func (s *FileSink) WriteError(ctx context.Context, rec model.ErrorRecord) error {
	path := s.paths.ErrorPath(rec.EntityType)
	if path == "" {
		return errors.New(errors.CodeInvalidArg, fmt.Sprintf("no error file for entity type %q", rec.EntityType))
	}
	return s.appendLine(path, rec)
}

func (s *FileSink) appendLine(path string, v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to encode record")
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.open(path)
	if err != nil {
		return err
	}
	// One Write per line keeps lines whole on an O_APPEND file
	if _, err := f.Write(line); err != nil {
		return errors.Wrap(err, errors.CodeInternal, fmt.Sprintf("failed to append to %s", path))
	}
	s.counts[path]++
	return nil
}

func (s *FileSink) open(path string) (*os.File, error) {
	if f, ok := s.files[path]; ok {
		return f, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to create output dir")
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, fmt.Sprintf("failed to open %s", path))
	}
	s.files[path] = f
	return f, nil
}

// Sync flushes every opened file to stable storage
func (s *FileSink) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for path, f := range s.files {
		if err := f.Sync(); err != nil {
			return errors.Wrap(err, errors.CodeInternal, fmt.Sprintf("failed to sync %s", path))
		}
	}
	return nil
}

// Close closes every opened file
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for path, f := range s.files {
		s.logger.Info("JSONL appended", "path", path, "lines", s.counts[path])
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = errors.Wrap(err, errors.CodeInternal, fmt.Sprintf("failed to close %s", path))
		}
	}
	s.files = make(map[string]*os.File)
	return firstErr
}
