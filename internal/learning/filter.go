package learning

import (
	"context"
	"fmt"
	"math"

	"github.com/halcyonhq/insights-platform/internal/correlate"
	"github.com/halcyonhq/insights-platform/internal/stats"
)

// Visibility reasons, most permissive first. The reason is surfaced to the
// caller on every shown insight.
const (
	ReasonNoFeedback   = "no_feedback"
	ReasonOK           = "ok"
	ReasonHighAccuracy = "high_accuracy"
	ReasonExpired      = "suppression_expired"
	ReasonStrongSignal = "strong_signal_override"
	ReasonNewData      = "new_data_reevaluation"
	ReasonSuppressed   = "suppressed"
)

// highAccuracyCutoff distinguishes merely unsuppressed patterns from ones the
// user consistently confirms.
const highAccuracyCutoff = 0.8

// Decision is the outcome of the visibility ladder for one insight.
type Decision struct {
	Show       bool
	Multiplier float64
	Reason     string
}

// ShouldShow walks the visibility ladder for one pattern. moodDelta is the
// candidate insight's current delta; currentEntryCount is the user's total
// mood-bearing entry count.
func (s *Service) ShouldShow(rec *Record, moodDelta int, currentEntryCount int) Decision {
	if rec == nil || rec.TotalFeedback == 0 {
		return Decision{Show: true, Multiplier: 1.0, Reason: ReasonNoFeedback}
	}

	if !rec.Suppressed {
		reason := ReasonOK
		if rec.AccuracyRate != nil && *rec.AccuracyRate >= highAccuracyCutoff {
			reason = ReasonHighAccuracy
		}
		return Decision{Show: true, Multiplier: rec.ConfidenceMultiplier, Reason: reason}
	}

	// Suppressed: three escape hatches, in order of strength of evidence.
	if rec.SuppressedAt != nil && s.now().Sub(*rec.SuppressedAt) >= s.cfg.SuppressionExpiry {
		return Decision{Show: true, Multiplier: rec.ConfidenceMultiplier, Reason: ReasonExpired}
	}

	if rec.RequiredMoodDeltaToResurface > 0 &&
		math.Abs(float64(moodDelta)) >= rec.RequiredMoodDeltaToResurface {
		return Decision{Show: true, Multiplier: rec.ConfidenceMultiplier, Reason: ReasonStrongSignal}
	}

	if currentEntryCount-rec.EntriesAtLastEvaluation >= s.cfg.MinNewEntries {
		return Decision{
			Show:       true,
			Multiplier: rec.ConfidenceMultiplier * s.cfg.ReevalPenalty,
			Reason:     ReasonNewData,
		}
	}

	return Decision{Show: false, Reason: ReasonSuppressed}
}

// FilterInsights applies learned feedback to a batch of candidate insights.
// All of the user's records are loaded in one bulk read; the per-insight
// decision is identical to ShouldShow. Shown insights carry their multiplier
// and reason, and a strong insight whose confidence has eroded far enough is
// demoted to moderate.
func (s *Service) FilterInsights(ctx context.Context, userID string, insights []correlate.Insight, currentEntryCount int) ([]correlate.Insight, error) {
	if len(insights) == 0 {
		return insights, nil
	}

	records, err := s.store.ForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	kept := make([]correlate.Insight, 0, len(insights))
	for _, in := range insights {
		decision := s.ShouldShow(records[in.ID], in.MoodDelta, currentEntryCount)
		if !decision.Show {
			s.logger.Debug("Insight suppressed by feedback learning",
				"user_id", userID, "pattern_type", in.ID)
			continue
		}

		in.ConfidenceMultiplier = decision.Multiplier
		in.LearningReason = decision.Reason
		if in.Strength == stats.StrengthStrong && decision.Multiplier < s.cfg.StrengthDowngradeBelow {
			in.Strength = stats.StrengthModerate
		}
		kept = append(kept, in)
	}
	return kept, nil
}

// SuppressedPatterns lists the user's currently suppressed learning records.
func (s *Service) SuppressedPatterns(ctx context.Context, userID string) ([]*Record, error) {
	records, err := s.store.ForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	suppressed := make([]*Record, 0)
	for _, rec := range records {
		if rec.Suppressed {
			suppressed = append(suppressed, rec)
		}
	}
	return suppressed, nil
}

// LiftSuppression manually clears a pattern's suppression, keeping its
// feedback counters intact.
func (s *Service) LiftSuppression(ctx context.Context, userID, patternType string) error {
	rec, err := s.store.Load(ctx, userID, patternType)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("no learning record for pattern %s", patternType)
	}
	if !rec.Suppressed {
		return nil
	}
	rec.clearSuppression()
	rec.UpdatedAt = s.now()
	return s.store.Save(ctx, rec)
}
