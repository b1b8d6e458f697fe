package analytics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	overviewKey = "communityhub:analytics:overview"
	overviewTTL = 60 * time.Second
)

// Service serves the analytics overview through a Redis cache. Mutation paths
// call InvalidateOverview instead of wholesale refetching, so readers get a
// fresh aggregate on the next request.
type Service struct {
	repo *Repository
	rdb  *redis.Client
}

// NewService creates an analytics service. rdb may be nil, which disables
// caching.
func NewService(repo *Repository, rdb *redis.Client) *Service {
	return &Service{repo: repo, rdb: rdb}
}

// Overview returns the cached aggregate or recomputes it from a fresh
// snapshot.
func (s *Service) Overview(ctx context.Context, now time.Time) (Overview, error) {
	if s.rdb != nil {
		if raw, err := s.rdb.Get(ctx, overviewKey).Bytes(); err == nil {
			var cached Overview
			if json.Unmarshal(raw, &cached) == nil {
				return cached, nil
			}
		}
	}

	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return Overview{}, err
	}
	overview := BuildOverview(snap, now)

	if s.rdb != nil {
		if raw, err := json.Marshal(overview); err == nil {
			_ = s.rdb.Set(ctx, overviewKey, raw, overviewTTL).Err()
		}
	}
	return overview, nil
}

// InvalidateOverview drops the cached aggregate.
func (s *Service) InvalidateOverview(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	_ = s.rdb.Del(ctx, overviewKey).Err()
}
