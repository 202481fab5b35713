package domain

import (
	"context"
	"time"
)

// ReportCache holds the most recent report per resolver for cheap reads from
// the API layer. The scanner core never reads it; quotes and statuses are
// always fetched fresh.
type ReportCache interface {
	SetLatest(ctx context.Context, resolver string, report Report, ttl time.Duration) error
	GetLatest(ctx context.Context, resolver string) (Report, error)
}

// RateLimiter provides distributed rate limiting for upstream API calls and
// inbound API clients. Allow counts the request; callers that need to block
// poll it in their own loop.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// SignalBus provides pub/sub fan-out of scan events to in-process consumers
// (WebSocket hub, notifier).
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// BlobWriter writes an object to blob storage.
type BlobWriter interface {
	Write(ctx context.Context, key string, data []byte, contentType string) error
}
