// Package storage persists crawl output as append-only line-delimited JSON.
package storage

import (
	"context"
	stderrors "errors"

	"github.com/Taichi-iskw/yt-comments/internal/model"
)

// Sink receives every successful record and every captured error of a run.
// Writes are appends; nothing already written is rewritten.
type Sink interface {
	WriteRecord(ctx context.Context, stage model.Stage, record model.Record) error
	WriteError(ctx context.Context, rec model.ErrorRecord) error
	Close() error
}

// multiSink fans every write out to several sinks in order
type multiSink struct {
	sinks []Sink
}

// NewMultiSink combines sinks. A write stops at the first failing sink.
func NewMultiSink(sinks ...Sink) Sink {
	if len(sinks) == 1 {
		return sinks[0]
	}
	return &multiSink{sinks: sinks}
}

func (m *multiSink) WriteRecord(ctx context.Context, stage model.Stage, record model.Record) error {
	for _, s := range m.sinks {
		if err := s.WriteRecord(ctx, stage, record); err != nil {
			return err
		}
	}
	return nil
}

func (m *multiSink) WriteError(ctx context.Context, rec model.ErrorRecord) error {
	for _, s := range m.sinks {
		if err := s.WriteError(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// Sync syncs every sink that supports it
func (m *multiSink) Sync() error {
	for _, s := range m.sinks {
		if syncer, ok := s.(interface{ Sync() error }); ok {
			if err := syncer.Sync(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *multiSink) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}
