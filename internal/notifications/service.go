package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"communityhub/internal/metrics"
	"communityhub/internal/queue"
)

const unreadKeyPrefix = "communityhub:unread:"

// Service combines the repository with a Redis unread counter so the badge
// count endpoint does not hit Postgres on every poll.
type Service struct {
	repo *Repository
	rdb  *redis.Client
}

// NewService creates a notification service.
func NewService(repo *Repository, rdb *redis.Client) *Service {
	return &Service{repo: repo, rdb: rdb}
}

// Process handles one queued notification job: persist the row and bump the
// user's unread counter. Non-notification messages are ignored.
func (s *Service) Process(ctx context.Context, msg queue.Message) error {
	if msg.Kind != JobKind {
		return nil
	}
	var job Job
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		return fmt.Errorf("decode notification job: %w", err)
	}

	if _, err := s.repo.Insert(ctx, Notification{
		UserID:  job.UserID,
		Type:    job.Type,
		Message: job.Message,
	}); err != nil {
		return err
	}
	metrics.NotificationsProcessed.Inc()

	if s.rdb != nil {
		_ = s.rdb.Incr(ctx, unreadKeyPrefix+job.UserID).Err()
	}
	return nil
}

// List returns the user's notifications, newest first.
func (s *Service) List(ctx context.Context, userID string, limit int) ([]Notification, error) {
	return s.repo.ListByUser(ctx, userID, limit)
}

// MarkRead flags one notification read and keeps the counter in sync.
func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	if err := s.repo.MarkRead(ctx, userID, id); err != nil {
		return err
	}
	s.invalidateCounter(ctx, userID)
	return nil
}

// MarkAllRead flags all of the user's notifications read.
func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	if s.rdb != nil {
		_ = s.rdb.Set(ctx, unreadKeyPrefix+userID, 0, counterTTL).Err()
	}
	return n, nil
}

// UnreadCount returns the unread total, preferring the Redis counter and
// falling back to Postgres on a cold cache.
func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	if s.rdb != nil {
		if val, err := s.rdb.Get(ctx, unreadKeyPrefix+userID).Result(); err == nil {
			if count, perr := strconv.Atoi(val); perr == nil {
				return count, nil
			}
		}
	}

	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, err
	}
	if s.rdb != nil {
		_ = s.rdb.Set(ctx, unreadKeyPrefix+userID, count, counterTTL).Err()
	}
	return count, nil
}

const counterTTL = 12 * time.Hour

func (s *Service) invalidateCounter(ctx context.Context, userID string) {
	if s.rdb == nil {
		return
	}
	_ = s.rdb.Del(ctx, unreadKeyPrefix+userID).Err()
}
