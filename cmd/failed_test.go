package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Taichi-iskw/yt-comments/internal/errors"
	"github.com/Taichi-iskw/yt-comments/internal/model"
	"github.com/Taichi-iskw/yt-comments/internal/repository"
)

// fakeCrawlRepository serves FailedIDs from a map
type fakeCrawlRepository struct {
	failed map[model.EntityType][]string
	closed bool
}

func (f *fakeCrawlRepository) WriteRecord(ctx context.Context, stage model.Stage, record model.Record) error {
	return nil
}

func (f *fakeCrawlRepository) WriteError(ctx context.Context, rec model.ErrorRecord) error {
	return nil
}

func (f *fakeCrawlRepository) Close() error {
	f.closed = true
	return nil
}

func (f *fakeCrawlRepository) RunID() string { return "test-run" }

func (f *fakeCrawlRepository) FailedIDs(ctx context.Context, entityType model.EntityType) ([]string, error) {
	return f.failed[entityType], nil
}

func (f *fakeCrawlRepository) CountRecords(ctx context.Context, stage model.Stage) (int64, error) {
	return 0, nil
}

func noDatabase(ctx context.Context) (repository.CrawlRepository, func(), error) {
	return nil, nil, assert.AnError
}

func runFailed(t *testing.T, open repositoryOpener, args ...string) ([]string, error) {
	t.Helper()
	cmd := newFailedCommand(open)
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)

	err := cmd.Execute()
	output := strings.TrimSpace(buf.String())
	if err != nil || output == "" {
		return nil, err
	}
	return strings.Split(output, "\n"), nil
}

func TestFailedCommand_FromFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "video_errors.jsonl"), []byte(strings.Join([]string{
		`{"video_id":"v1","exception":"comments disabled"}`,
		`{"video_ids":"v2,v3","exception":"quota"}`,
		`{"video_id":"v4","exception":"not returned"}`,
		`{"video_id":"v1","exception":"comments disabled"}`,
		`{"video_ids":"v3,v5","exception":"quota"}`,
	}, "\n")+"\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keyword_errors.jsonl"),
		[]byte(`{"keyword_id":"cats, dogs","exception":"quota"}`+"\n"), 0o644))

	tests := []struct {
		name       string
		entityType string
		want       []string
	}{
		{name: "videos", entityType: "video", want: []string{"v1", "v4"}},
		{name: "batches are expanded", entityType: "video_batch", want: []string{"v2", "v3", "v5"}},
		{name: "keywords keep commas", entityType: "keyword", want: []string{"cats, dogs"}},
		{name: "missing store", entityType: "user", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, err := runFailed(t, noDatabase, tt.entityType, "--output-dir", dir)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestFailedCommand_FromDatabase(t *testing.T) {
	repo := &fakeCrawlRepository{failed: map[model.EntityType][]string{
		model.EntityChannel:    {"UC1", "UC2"},
		model.EntityVideoBatch: {"v1,v2"},
	}}
	open := func(ctx context.Context) (repository.CrawlRepository, func(), error) {
		return repo, func() { _ = repo.Close() }, nil
	}

	ids, err := runFailed(t, open, "channel", "--db")
	require.NoError(t, err)
	assert.Equal(t, []string{"UC1", "UC2"}, ids)
	assert.True(t, repo.closed)

	ids, err = runFailed(t, open, "video_batch", "--db")
	require.NoError(t, err)
	assert.Equal(t, []string{"v1", "v2"}, ids)
}

func TestFailedCommand_Errors(t *testing.T) {
	_, err := runFailed(t, noDatabase, "playlist")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeInvalidArg))

	_, err = runFailed(t, noDatabase, "channel", "--db")
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)

	_, err = runFailed(t, noDatabase)
	require.Error(t, err)
}

func TestFailedCommand_WritesIDsToStdout(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "channel_errors.jsonl"),
		[]byte(`{"channel_id":"UCbad","exception":"gone"}`+"\n"), 0o644))

	cmd := newFailedCommand(noDatabase)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"channel", "--output-dir", dir})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "UCbad\n", stdout.String())
	assert.NotContains(t, stderr.String(), "UCbad")
}
