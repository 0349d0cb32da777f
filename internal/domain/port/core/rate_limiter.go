package core

import "context"

// RateLimiter decides whether another request identified by key fits in the current window
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
