package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/solverworks/fusionscan/internal/domain"
)

// ReportCache implements domain.ReportCache using a single JSON value per
// resolver at key "fusionscan:report:latest:{resolver}". Only finished
// reports land here; the scanner itself never reads the cache.
type ReportCache struct {
	rdb *redis.Client
}

// NewReportCache creates a ReportCache backed by the given Client.
func NewReportCache(c *Client) *ReportCache {
	return &ReportCache{rdb: c.raw()}
}

func reportKey(resolver string) string {
	return nsKey("report", "latest", strings.ToLower(resolver))
}

// SetLatest stores the most recent report for a resolver with the given TTL.
func (rc *ReportCache) SetLatest(ctx context.Context, resolver string, report domain.Report, ttl time.Duration) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("redis: marshal report for %s: %w", resolver, err)
	}
	if err := rc.rdb.Set(ctx, reportKey(resolver), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set latest report %s: %w", resolver, err)
	}
	return nil
}

// GetLatest returns the most recent cached report for a resolver. It returns
// domain.ErrNotFound when no report is cached.
func (rc *ReportCache) GetLatest(ctx context.Context, resolver string) (domain.Report, error) {
	data, err := rc.rdb.Get(ctx, reportKey(resolver)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Report{}, domain.ErrNotFound
		}
		return domain.Report{}, fmt.Errorf("redis: get latest report %s: %w", resolver, err)
	}

	var report domain.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return domain.Report{}, fmt.Errorf("redis: unmarshal latest report %s: %w", resolver, err)
	}
	return report, nil
}

// Compile-time interface check.
var _ domain.ReportCache = (*ReportCache)(nil)
