//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Taichi-iskw/yt-comments/internal/errors"
	"github.com/Taichi-iskw/yt-comments/internal/model"
	"github.com/Taichi-iskw/yt-comments/internal/repository/common"
)

func TestCrawlRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	pool := common.SetupTestDB(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	t.Run("records are appended across runs", func(t *testing.T) {
		for run := 1; run <= 2; run++ {
			repo := NewCrawlRepository(pool)
			require.NoError(t, repo.WriteRecord(ctx, model.StageVideos, &model.VideoLink{VideoID: "v1", ChannelID: "UC1"}))

			count, err := repo.CountRecords(ctx, model.StageVideos)
			require.NoError(t, err)
			assert.Equal(t, int64(run), count)
		}
	})

	t.Run("payload is stored as jsonb", func(t *testing.T) {
		repo := NewCrawlRepository(pool)
		require.NoError(t, repo.WriteRecord(ctx, model.StageChannels, &model.ChannelLink{ChannelID: "UC9", UserID: "someone"}))

		var userID string
		err := pool.QueryRow(ctx,
			"SELECT payload->>'user_id' FROM crawl_records WHERE run_id = $1 AND entity_id = 'UC9'", repo.RunID()).
			Scan(&userID)
		require.NoError(t, err)
		assert.Equal(t, "someone", userID)
	})

	t.Run("failed IDs are distinct and ordered", func(t *testing.T) {
		repo := NewCrawlRepository(pool)
		for _, id := range []string{"bad1", "bad2", "bad1"} {
			require.NoError(t, repo.WriteError(ctx, model.ErrorRecord{
				EntityType: model.EntityChannel,
				EntityID:   id,
				Exception:  "NOT_FOUND: gone",
			}))
		}

		ids, err := repo.FailedIDs(ctx, model.EntityChannel)
		require.NoError(t, err)
		assert.Equal(t, []string{"bad1", "bad2"}, ids)
	})

	t.Run("empty entity ID is rejected", func(t *testing.T) {
		repo := NewCrawlRepository(pool)
		err := repo.WriteRecord(ctx, model.StageChannels, &model.ChannelLink{})
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidArg), "check violation maps to INVALID_ARGUMENT")
	})
}
