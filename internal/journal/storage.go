package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/halcyonhq/insights-platform/pkg/postgres"
)

// Store reads journal entries from PostgreSQL. Entries are written by the
// application layer; this core only reads them.
type Store struct {
	pg     postgres.Client
	logger *slog.Logger
}

// NewStore creates a new entry store.
func NewStore(pg postgres.Client, logger *slog.Logger) *Store {
	return &Store{pg: pg, logger: logger}
}

const entryColumns = `
	id, user_id, COALESCE(content, ''), created_at, effective_date, mood_score,
	COALESCE(tags, '{}'), health_context, environment_context,
	COALESCE(entities, '{}'), COALESCE(emotions, '{}'),
	COALESCE(themes, '{}'), COALESCE(cognitive_patterns, '{}'),
	COALESCE(category, ''), COALESCE(entry_type, '')`

// EntriesForUser returns the newest entries for a user, newest first, capped
// at limit.
func (s *Store) EntriesForUser(ctx context.Context, userID string, limit int) ([]*Entry, error) {
	query := `
		SELECT` + entryColumns + `
		FROM journal_entries
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := s.pg.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query entries failed: %w", err)
	}
	defer rows.Close()

	return s.scanEntries(rows)
}

// RecentEntries returns the newest `window` entries for a user, newest first.
// This is the window fed to the burnout scorer.
func (s *Store) RecentEntries(ctx context.Context, userID string, window int) ([]*Entry, error) {
	return s.EntriesForUser(ctx, userID, window)
}

func (s *Store) scanEntries(rows *sql.Rows) ([]*Entry, error) {
	var entries []*Entry

	for rows.Next() {
		var (
			e               Entry
			effectiveDate   sql.NullTime
			moodScore       sql.NullFloat64
			healthJSON      []byte
			environmentJSON []byte
		)

		err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.Text,
			&e.CreatedAt,
			&effectiveDate,
			&moodScore,
			pq.Array(&e.Tags),
			&healthJSON,
			&environmentJSON,
			pq.Array(&e.Entities),
			pq.Array(&e.Emotions),
			pq.Array(&e.Themes),
			pq.Array(&e.CognitivePatterns),
			&e.Category,
			&e.EntryType,
		)
		if err != nil {
			return nil, fmt.Errorf("scan entry failed: %w", err)
		}

		if effectiveDate.Valid {
			d := effectiveDate.Time
			e.EffectiveDate = &d
		}
		if moodScore.Valid {
			m := moodScore.Float64
			e.MoodScore = &m
		}

		// Malformed context documents are dropped per entry, not fatal
		if len(healthJSON) > 0 {
			var hc HealthContext
			if err := json.Unmarshal(healthJSON, &hc); err != nil {
				s.logger.Warn("Skipping malformed health context", "entry_id", e.ID, "error", err)
			} else {
				e.HealthContext = &hc
			}
		}
		if len(environmentJSON) > 0 {
			var ec EnvironmentContext
			if err := json.Unmarshal(environmentJSON, &ec); err != nil {
				s.logger.Warn("Skipping malformed environment context", "entry_id", e.ID, "error", err)
			} else {
				e.EnvironmentContext = &ec
			}
		}

		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries failed: %w", err)
	}

	return entries, nil
}

// MoodEntryCount returns how many of a user's entries carry a mood score.
// Used by the data-sufficiency check without loading full entries.
func (s *Store) MoodEntryCount(ctx context.Context, userID string) (int, error) {
	var count int
	row := s.pg.QueryRow(ctx,
		`SELECT COUNT(*) FROM journal_entries WHERE user_id = $1 AND mood_score IS NOT NULL`,
		userID)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count mood entries failed: %w", err)
	}
	return count, nil
}

// EntryTexts returns the free text of the given entries, keyed by entry ID.
// Used by feedback learning when deriving false-positive lexical patterns.
func (s *Store) EntryTexts(ctx context.Context, ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}

	rows, err := s.pg.Query(ctx,
		`SELECT id, COALESCE(content, '') FROM journal_entries WHERE id = ANY($1)`,
		pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query entry texts failed: %w", err)
	}
	defer rows.Close()

	texts := make(map[string]string, len(ids))
	for rows.Next() {
		var id, text string
		if err := rows.Scan(&id, &text); err != nil {
			return nil, fmt.Errorf("scan entry text failed: %w", err)
		}
		texts[id] = text
	}

	return texts, rows.Err()
}

// SimilarEntryIDs returns up to k entries nearest to the given entry by
// embedding distance. Entries without an embedding are invisible to this
// lookup; a missing embedding on the source entry yields an empty result.
func (s *Store) SimilarEntryIDs(ctx context.Context, entryID string, k int) ([]string, error) {
	var embedding pgvector.Vector
	row := s.pg.QueryRow(ctx,
		`SELECT embedding FROM journal_entries WHERE id = $1 AND embedding IS NOT NULL`,
		entryID)
	if err := row.Scan(&embedding); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch embedding failed: %w", err)
	}

	rows, err := s.pg.Query(ctx, `
		SELECT id
		FROM journal_entries
		WHERE embedding IS NOT NULL AND id <> $1
		ORDER BY embedding <=> $2
		LIMIT $3`,
		entryID, embedding, k)
	if err != nil {
		return nil, fmt.Errorf("similarity query failed: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan similar entry failed: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// EntryEvent is the payload published on journal/entry/{user_id} when the
// application layer stores a new entry.
type EntryEvent struct {
	EntryID   string    `json:"entry_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
