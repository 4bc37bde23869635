package batch

import (
	"fmt"
)

type ErrInvalidBatchSize struct {
	error
}

func NewErrInvalidBatchSize(size int) *ErrInvalidBatchSize {
	return &ErrInvalidBatchSize{fmt.Errorf("batch size must be positive, got %d", size)}
}

// Split partitions items into consecutive batches of at most size elements.
// The last batch may be smaller. Batches share the backing array of items.
//
// Split does not pace anything: callers that upload batch by batch are expected to
// wait their configured pause between two batches.
func Split[T any](items []T, size int) ([][]T, error) {
	if size <= 0 {
		return nil, NewErrInvalidBatchSize(size)
	}

	batches := make([][]T, 0, Count(len(items), size))
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		batches = append(batches, items[start:end:end])
	}
	return batches, nil
}

// Count returns the number of batches Split produces for n items.
func Count(n, size int) int {
	if size <= 0 || n <= 0 {
		return 0
	}
	return (n + size - 1) / size
}
