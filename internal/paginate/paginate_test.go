package paginate

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Taichi-iskw/yt-comments/internal/errors"
)

// fakeBackend serves fixed-size pages of sequential integers
type fakeBackend struct {
	sizes  []int
	tokens []string
	failAt int // 1-based page that fails, 0 for never
	err    error
}

func newFakeBackend(sizes ...int) *fakeBackend {
	return &fakeBackend{sizes: sizes}
}

func (b *fakeBackend) fetch(ctx context.Context, token string) (Page[int], error) {
	b.tokens = append(b.tokens, token)
	page := len(b.tokens)
	if page == b.failAt {
		return Page[int]{}, b.err
	}

	offset := 0
	for i := 0; i < page-1; i++ {
		offset += b.sizes[i]
	}
	items := make([]int, b.sizes[page-1])
	for i := range items {
		items[i] = offset + i
	}

	next := ""
	if page < len(b.sizes) {
		next = fmt.Sprintf("page-%d", page+1)
	}
	return Page[int]{Items: items, NextPageToken: next}, nil
}

func TestPaginator_Unlimited(t *testing.T) {
	backend := newFakeBackend(50, 50, 12)
	p := New(backend.fetch, 0)

	items, err := Collect(p.All(context.Background()))
	require.NoError(t, err)

	assert.Len(t, items, 112)
	for i, item := range items {
		assert.Equal(t, i, item, "items must keep page order")
	}
	assert.Equal(t, 3, p.Requests())
	assert.Equal(t, []string{"", "page-2", "page-3"}, backend.tokens)
}

func TestPaginator_LimitCheckedAfterWholePage(t *testing.T) {
	backend := newFakeBackend(50, 50, 12)
	p := New(backend.fetch, 60)

	items, err := Collect(p.All(context.Background()))
	require.NoError(t, err)

	assert.Len(t, items, 100)
	assert.Equal(t, 2, p.Requests())
}

func TestPaginator_Limits(t *testing.T) {
	tests := []struct {
		name         string
		limit        int
		wantItems    int
		wantRequests int
	}{
		{name: "limit inside first page", limit: 10, wantItems: 50, wantRequests: 1},
		{name: "limit equal to first page", limit: 50, wantItems: 50, wantRequests: 1},
		{name: "limit beyond total", limit: 500, wantItems: 112, wantRequests: 3},
		{name: "negative limit means unlimited", limit: -1, wantItems: 112, wantRequests: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(newFakeBackend(50, 50, 12).fetch, tt.limit)
			items, err := Collect(p.All(context.Background()))
			require.NoError(t, err)
			assert.Len(t, items, tt.wantItems)
			assert.Equal(t, tt.wantRequests, p.Requests())
		})
	}
}

func TestPaginator_ErrorPropagates(t *testing.T) {
	backend := newFakeBackend(50, 50, 12)
	backend.failAt = 2
	backend.err = apperrors.New(apperrors.CodeRateLimited, "quota exceeded")

	p := New(backend.fetch, 0)
	items, err := Collect(p.All(context.Background()))

	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeRateLimited))
	assert.Len(t, items, 50, "items from pages before the failure are kept")
	assert.Equal(t, 2, p.Requests(), "no retry after a failure")
}

func TestPaginator_EmptyResult(t *testing.T) {
	p := New(newFakeBackend(0).fetch, 0)
	items, err := Collect(p.All(context.Background()))
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 1, p.Requests())
}

func TestPaginator_NotRestartable(t *testing.T) {
	p := New(newFakeBackend(5).fetch, 0)
	seq := p.All(context.Background())

	_, err := Collect(seq)
	require.NoError(t, err)

	_, err = Collect(seq)
	assert.ErrorIs(t, err, ErrConsumed)
	assert.Equal(t, 1, p.Requests())
}

func TestPaginator_BreakStopsRequests(t *testing.T) {
	p := New(newFakeBackend(50, 50, 12).fetch, 0)

	count := 0
	for _, err := range p.All(context.Background()) {
		require.NoError(t, err)
		count++
		if count == 3 {
			break
		}
	}

	assert.Equal(t, 3, count)
	assert.Equal(t, 1, p.Requests())
}

func TestPaginator_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(newFakeBackend(5).fetch, 0)
	_, err := Collect(p.All(ctx))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, p.Requests())
}
