package crawl

import "iter"

// Outcome is the drained result of one resolver call: either Items or Err
type Outcome[T any] struct {
	Items []T
	Err   error
}

// OK reports whether the call succeeded
func (o Outcome[T]) OK() bool {
	return o.Err == nil
}

// drain consumes seq fully. Items gathered before a failure are dropped.
func drain[T any](seq iter.Seq2[T, error]) Outcome[T] {
	items := []T{}
	for item, err := range seq {
		if err != nil {
			return Outcome[T]{Err: err}
		}
		items = append(items, item)
	}
	return Outcome[T]{Items: items}
}
