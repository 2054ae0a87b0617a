// Package insights orchestrates insight generation: it loads a user's
// entries, fans out to the correlation engines, applies feedback learning,
// ranks and caps the survivors, and persists the result document.
package insights

import (
	"time"

	"github.com/halcyonhq/insights-platform/internal/correlate"
)

// Result is the persisted insight document for one user, overwritten on each
// generation. Stale is computed at read time, never stored.
type Result struct {
	ID          string              `json:"id"`
	UserID      string              `json:"user_id"`
	Success     bool                `json:"success"`
	Insights    []correlate.Insight `json:"insights"`
	GeneratedAt time.Time           `json:"generated_at"`
	ExpiresAt   time.Time           `json:"expires_at"`

	EntriesAnalyzed int            `json:"entries_analyzed"`
	CategoryCounts  map[string]int `json:"category_counts,omitempty"`
	Learning        LearningStats  `json:"learning"`

	// Set when the user has too few mood-bearing entries; no document is
	// persisted in that case
	InsufficientData bool `json:"insufficient_data,omitempty"`
	EntriesNeeded    int  `json:"entries_needed,omitempty"`

	Stale bool `json:"stale,omitempty"`
}

// LearningStats summarizes what the feedback filter did during generation.
type LearningStats struct {
	CandidatesEvaluated int `json:"candidates_evaluated"`
	Suppressed          int `json:"suppressed"`
}

// Sufficiency is the outcome of the pure data-sufficiency predicate.
type Sufficiency struct {
	Sufficient    bool `json:"sufficient"`
	EntryCount    int  `json:"entry_count"`
	EntriesNeeded int  `json:"entries_needed"`
}
