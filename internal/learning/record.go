// Package learning tracks per-user accuracy feedback on insight patterns and
// adapts what the orchestrator shows: confidence multipliers, suppression of
// patterns users keep rating inaccurate, and the conditions under which a
// suppressed pattern resurfaces.
package learning

import "time"

// Record is the persisted learning state for one (user, pattern type) pair.
// Counters only ever increase; suppression state is cleared as a unit.
type Record struct {
	UserID      string `json:"user_id"`
	PatternType string `json:"pattern_type"`

	TotalFeedback      int `json:"total_feedback"`
	AccurateFeedback   int `json:"accurate_feedback"`
	InaccurateFeedback int `json:"inaccurate_feedback"`

	// AccuracyRate is nil until the first feedback arrives
	AccuracyRate         *float64 `json:"accuracy_rate,omitempty"`
	ConfidenceMultiplier float64  `json:"confidence_multiplier"`

	Suppressed                   bool       `json:"suppressed"`
	SuppressedAt                 *time.Time `json:"suppressed_at,omitempty"`
	SuppressReason               string     `json:"suppress_reason,omitempty"`
	RequiredMoodDeltaToResurface float64    `json:"required_mood_delta_to_resurface,omitempty"`

	// LastMoodDelta is the delta of the most recently rated insight; the
	// resurface bar is derived from it at suppression time
	LastMoodDelta int `json:"last_mood_delta"`

	// FalsePositiveEntryIDs is a bounded ring of the most recently cited
	// evidence entries from inaccurate feedback
	FalsePositiveEntryIDs []string `json:"false_positive_entry_ids,omitempty"`

	// FalsePositivePatterns ranks the lexical indicators found in false
	// positive entries, highest frequency first
	FalsePositivePatterns []IndicatorFrequency `json:"false_positive_patterns,omitempty"`

	// EntriesAtLastEvaluation is the user's entry count when feedback was
	// last processed; new-data re-evaluation compares against it
	EntriesAtLastEvaluation int `json:"entries_at_last_evaluation"`

	UpdatedAt time.Time `json:"updated_at"`
}

// IndicatorFrequency is one ranked lexical indicator.
type IndicatorFrequency struct {
	Indicator string `json:"indicator"`
	Count     int    `json:"count"`
}

// newRecord initializes the state for a pattern that has never received
// feedback: full confidence, nothing suppressed.
func newRecord(userID, patternType string) *Record {
	return &Record{
		UserID:               userID,
		PatternType:          patternType,
		ConfidenceMultiplier: 1.0,
	}
}

// clearSuppression resets every suppression field as a unit.
func (r *Record) clearSuppression() {
	r.Suppressed = false
	r.SuppressedAt = nil
	r.SuppressReason = ""
	r.RequiredMoodDeltaToResurface = 0
}
