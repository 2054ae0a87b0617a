package learning

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/halcyonhq/insights-platform/pkg/config"
)

// EntrySource supplies the entry texts needed for false-positive analysis.
// The similarity lookup widens the corpus with near-duplicate entries when
// embeddings are available; implementations without embeddings return empty.
type EntrySource interface {
	EntryTexts(ctx context.Context, ids []string) (map[string]string, error)
	SimilarEntryIDs(ctx context.Context, entryID string, k int) ([]string, error)
}

// Feedback is one user rating of an insight.
type Feedback struct {
	// PatternType keys the learning record; callers pass the rated
	// insight's ID
	PatternType string
	// MoodDelta is the rated insight's delta, used to set the resurface bar
	MoodDelta int
	Accurate  bool
	// CitedEntryIDs is the rated insight's evidence, analyzed on inaccurate
	// feedback
	CitedEntryIDs []string
}

// Service applies feedback to learning records and decides insight
// visibility.
type Service struct {
	store   *Store
	entries EntrySource
	cfg     config.LearningConfig
	logger  *slog.Logger

	now func() time.Time
}

// NewService creates a feedback learning service. entries may be nil when no
// entry source is available; false-positive analysis then only counts over
// texts it already has.
func NewService(store *Store, entries EntrySource, cfg config.LearningConfig, logger *slog.Logger) *Service {
	return &Service{
		store:   store,
		entries: entries,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// RecordFeedback folds one rating into the pattern's learning record and
// persists it. Suppression begins when enough feedback has accumulated and
// the accuracy rate sits below the threshold; recovering accuracy lifts it.
func (s *Service) RecordFeedback(ctx context.Context, userID string, fb Feedback, currentEntryCount int) (*Record, error) {
	rec, err := s.store.Load(ctx, userID, fb.PatternType)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = newRecord(userID, fb.PatternType)
	}

	rec.TotalFeedback++
	if fb.Accurate {
		rec.AccurateFeedback++
	} else {
		rec.InaccurateFeedback++
		s.recordFalsePositive(ctx, rec, fb.CitedEntryIDs)
	}

	rate := float64(rec.AccurateFeedback) / float64(rec.TotalFeedback)
	rec.AccuracyRate = &rate
	rec.ConfidenceMultiplier = math.Max(s.cfg.ConfidenceFloor, 1-(1-rate)*s.cfg.InaccuracyPenalty)
	rec.LastMoodDelta = fb.MoodDelta
	rec.EntriesAtLastEvaluation = currentEntryCount
	rec.UpdatedAt = s.now()

	switch {
	case !rec.Suppressed &&
		rec.TotalFeedback >= s.cfg.MinFeedbackForSuppression &&
		rate < s.cfg.SuppressionThreshold:
		now := s.now()
		rec.Suppressed = true
		rec.SuppressedAt = &now
		rec.SuppressReason = "low_accuracy"
		rec.RequiredMoodDeltaToResurface = math.Abs(float64(rec.LastMoodDelta)) * s.cfg.ResurfaceMultiplier
		s.logger.Info("Pattern suppressed",
			"user_id", userID, "pattern_type", fb.PatternType,
			"accuracy_rate", rate, "resurface_delta", rec.RequiredMoodDeltaToResurface)

	case rec.Suppressed && rate >= s.cfg.SuppressionThreshold:
		rec.clearSuppression()
		s.logger.Info("Pattern suppression lifted by accuracy recovery",
			"user_id", userID, "pattern_type", fb.PatternType, "accuracy_rate", rate)
	}

	if err := s.store.Save(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// recordFalsePositive appends cited evidence to the bounded ring and
// re-derives the ranked lexical indicators over the cited texts plus their
// near-duplicate neighbors.
func (s *Service) recordFalsePositive(ctx context.Context, rec *Record, citedIDs []string) {
	if len(citedIDs) == 0 {
		return
	}

	rec.FalsePositiveEntryIDs = append(rec.FalsePositiveEntryIDs, citedIDs...)
	if over := len(rec.FalsePositiveEntryIDs) - s.cfg.MaxFalsePositiveEntries; over > 0 {
		rec.FalsePositiveEntryIDs = rec.FalsePositiveEntryIDs[over:]
	}

	if s.entries == nil {
		return
	}

	corpus := append([]string{}, citedIDs...)
	for _, id := range citedIDs {
		neighbors, err := s.entries.SimilarEntryIDs(ctx, id, 3)
		if err != nil {
			s.logger.Warn("Similar-entry lookup failed", "entry_id", id, "error", err)
			continue
		}
		corpus = append(corpus, neighbors...)
	}

	texts, err := s.entries.EntryTexts(ctx, corpus)
	if err != nil {
		s.logger.Warn("Entry text fetch failed, skipping indicator analysis", "error", err)
		return
	}

	flat := make([]string, 0, len(texts))
	for _, t := range texts {
		flat = append(flat, t)
	}

	merged := make(map[string]int)
	for _, p := range rec.FalsePositivePatterns {
		merged[p.Indicator] = p.Count
	}
	for name, count := range countIndicators(flat) {
		merged[name] += count
	}

	ranked := make([]IndicatorFrequency, 0, len(merged))
	for name, count := range merged {
		ranked = append(ranked, IndicatorFrequency{Indicator: name, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Indicator < ranked[j].Indicator
	})
	if len(ranked) > s.cfg.MaxFalsePositivePatterns {
		ranked = ranked[:s.cfg.MaxFalsePositivePatterns]
	}
	rec.FalsePositivePatterns = ranked
}
