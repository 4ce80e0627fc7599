// Package paginate drives cursor-paged remote list calls.
package paginate

import (
	"context"
	"errors"
	"iter"
)

// ErrConsumed is yielded when a Paginator is iterated a second time
var ErrConsumed = errors.New("paginator already consumed")

// Page is one page of a cursor-paged response. An empty NextPageToken marks the last page.
type Page[T any] struct {
	Items         []T
	NextPageToken string
}

// FetchFunc requests the page identified by pageToken ("" for the first page)
type FetchFunc[T any] func(ctx context.Context, pageToken string) (Page[T], error)

// Paginator walks one logical query page by page.
// limit bounds the number of items, checked after each whole page; limit <= 0 means unlimited.
type Paginator[T any] struct {
	fetch    FetchFunc[T]
	limit    int
	requests int
	consumed bool
}

// New creates a Paginator
func New[T any](fetch FetchFunc[T], limit int) *Paginator[T] {
	return &Paginator[T]{
		fetch: fetch,
		limit: limit,
	}
}

// Requests returns the number of page requests issued so far
func (p *Paginator[T]) Requests() int {
	return p.requests
}

// All returns the items lazily. The sequence is single-use; a fetch error is
// yielded once and ends it.
func (p *Paginator[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		if p.consumed {
			yield(zero, ErrConsumed)
			return
		}
		p.consumed = true

		token := ""
		yielded := 0
		for {
			if err := ctx.Err(); err != nil {
				yield(zero, err)
				return
			}

			page, err := p.fetch(ctx, token)
			p.requests++
			if err != nil {
				yield(zero, err)
				return
			}

			for _, item := range page.Items {
				if !yield(item, nil) {
					return
				}
				yielded++
			}

			if p.limit > 0 && yielded >= p.limit {
				return
			}
			if page.NextPageToken == "" {
				return
			}
			token = page.NextPageToken
		}
	}
}

// Collect drains seq, returning the items gathered before the first error
func Collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	var items []T
	for item, err := range seq {
		if err != nil {
			return items, err
		}
		items = append(items, item)
	}
	return items, nil
}
