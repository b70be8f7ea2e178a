package repository

import "context"

// CounterRepository hands out monotonically increasing sequence numbers.
// Next must be atomic so two concurrent checkouts in the same city can never
// observe the same value.
type CounterRepository interface {
	// Next increments and returns the sequence stored under the key.
	Next(ctx context.Context, key string) (int64, error)
}
