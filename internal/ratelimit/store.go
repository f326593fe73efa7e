package ratelimit

import (
	"context"
	"time"
)

// Store keeps sliding window counters.
type Store interface {
	// Record counts a request for key and returns the number of requests
	// inside the window ending now, this one included.
	Record(ctx context.Context, key string, window time.Duration) (count int64, err error)
}
