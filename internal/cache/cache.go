// Package cache holds the report cache used to take repeated aggregation
// queries off the database. Values are stored as JSON blobs; a miss is
// (nil, false, nil), so callers always fall through to the store.
package cache

import (
	"context"
	"time"
)

type ReportCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type NoopReportCache struct{}

func (NoopReportCache) Get(_ context.Context, _ string) ([]byte, bool, error) {
	return nil, false, nil
}

func (NoopReportCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error {
	return nil
}
