package model

import "context"

// Limiter counts attempts against a key and rejects once a budget is spent.
type Limiter interface {
	Allow(ctx context.Context, key string) error
}
