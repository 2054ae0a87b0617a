package learning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/halcyonhq/insights-platform/pkg/redis"
)

// Store persists learning records as JSON documents in the document store,
// one per (user, pattern type). Writes are last-writer-wins; lost updates
// only bias confidence adjustment, never correctness-critical state.
type Store struct {
	redis  redis.Client
	logger *slog.Logger
}

// NewStore creates a learning record store.
func NewStore(redisClient redis.Client, logger *slog.Logger) *Store {
	return &Store{redis: redisClient, logger: logger}
}

// Load fetches the record for a (user, pattern type) pair. A missing record
// returns (nil, nil). Read failures degrade to "not found" with a warning:
// insights favor availability over consistency.
func (s *Store) Load(ctx context.Context, userID, patternType string) (*Record, error) {
	raw, err := s.redis.Get(ctx, redis.LearningKey(userID, patternType))
	if err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return nil, nil
		}
		s.logger.Warn("Learning record read failed, treating as missing",
			"user_id", userID, "pattern_type", patternType, "error", err)
		return nil, nil
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		s.logger.Warn("Malformed learning record, treating as missing",
			"user_id", userID, "pattern_type", patternType, "error", err)
		return nil, nil
	}
	return &rec, nil
}

// Save persists a record. Unlike reads, a failed write propagates: silently
// losing feedback would desynchronize the learned state.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal learning record: %w", err)
	}
	if err := s.redis.Set(ctx, redis.LearningKey(rec.UserID, rec.PatternType), string(raw), 0); err != nil {
		return fmt.Errorf("failed to save learning record for %s/%s: %w", rec.UserID, rec.PatternType, err)
	}
	return nil
}

// ForUser bulk-loads every learning record of a user in one key scan plus one
// MGET, keyed by pattern type. Used by the batch insight filter.
func (s *Store) ForUser(ctx context.Context, userID string) (map[string]*Record, error) {
	keys, err := s.redis.Keys(ctx, redis.LearningKeyPattern(userID))
	if err != nil {
		s.logger.Warn("Learning record scan failed, treating as empty", "user_id", userID, "error", err)
		return map[string]*Record{}, nil
	}
	if len(keys) == 0 {
		return map[string]*Record{}, nil
	}

	values, err := s.redis.MGet(ctx, keys...)
	if err != nil {
		s.logger.Warn("Learning record bulk read failed, treating as empty", "user_id", userID, "error", err)
		return map[string]*Record{}, nil
	}

	records := make(map[string]*Record, len(keys))
	for i, raw := range values {
		if raw == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			s.logger.Warn("Skipping malformed learning record", "key", keys[i], "error", err)
			continue
		}
		patternType := rec.PatternType
		if patternType == "" {
			patternType = strings.TrimPrefix(keys[i], redis.LearningKey(userID, ""))
		}
		records[patternType] = &rec
	}
	return records, nil
}
