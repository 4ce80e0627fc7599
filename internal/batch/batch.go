// Package batch groups IDs for bulk lookups whose remote API caps IDs per request.
package batch

import "strings"

// DefaultSize is the YouTube Data API limit of IDs per list call
const DefaultSize = 50

// Separator joins IDs inside one batch
const Separator = ","

// Batch partitions ids, in order, into comma-joined groups of at most maxSize.
// Empty input yields no batches.
func Batch(ids []string, maxSize int) []string {
	if maxSize <= 0 {
		maxSize = DefaultSize
	}

	batches := make([]string, 0, (len(ids)+maxSize-1)/maxSize)
	for start := 0; start < len(ids); start += maxSize {
		end := min(start+maxSize, len(ids))
		batches = append(batches, strings.Join(ids[start:end], Separator))
	}
	return batches
}

// Split reverses Batch for a single batch
func Split(batch string) []string {
	if batch == "" {
		return nil
	}
	return strings.Split(batch, Separator)
}

// Unique drops repeated IDs, keeping first occurrences in order
func Unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
