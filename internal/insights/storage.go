package insights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/halcyonhq/insights-platform/pkg/redis"
)

// Storage persists insight result documents, one per user, overwritten on
// each generation.
type Storage struct {
	redis  redis.Client
	logger *slog.Logger
}

// NewStorage creates an insight document store.
func NewStorage(redisClient redis.Client, logger *slog.Logger) *Storage {
	return &Storage{redis: redisClient, logger: logger}
}

// SaveResult overwrites the user's current insight document. The key carries
// no TTL; staleness is judged against ExpiresAt at read time so an expired
// document still serves as a fallback.
func (s *Storage) SaveResult(ctx context.Context, result *Result) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal insight result: %w", err)
	}
	if err := s.redis.Set(ctx, redis.InsightsKey(result.UserID), string(raw), 0); err != nil {
		return fmt.Errorf("failed to save insight result for %s: %w", result.UserID, err)
	}
	return nil
}

// CurrentResult reads the user's insight document, annotating staleness
// against the given instant. A missing document returns (nil, nil), and so
// does a failed read: the caller regenerates instead of failing, which favors
// availability over consistency for a non-critical feature.
func (s *Storage) CurrentResult(ctx context.Context, userID string, now time.Time) (*Result, error) {
	raw, err := s.redis.Get(ctx, redis.InsightsKey(userID))
	if err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return nil, nil
		}
		s.logger.Warn("Insight document read failed, treating as missing",
			"user_id", userID, "error", err)
		return nil, nil
	}

	var result Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		s.logger.Warn("Malformed insight document, treating as missing",
			"user_id", userID, "error", err)
		return nil, nil
	}

	result.Stale = now.After(result.ExpiresAt)
	return &result, nil
}

// DeleteResult removes the user's insight document, forcing the next read to
// regenerate.
func (s *Storage) DeleteResult(ctx context.Context, userID string) error {
	return s.redis.Del(ctx, redis.InsightsKey(userID))
}
