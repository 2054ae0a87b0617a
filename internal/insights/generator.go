package insights

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/halcyonhq/insights-platform/internal/correlate"
	"github.com/halcyonhq/insights-platform/internal/journal"
	"github.com/halcyonhq/insights-platform/internal/learning"
	"github.com/halcyonhq/insights-platform/pkg/config"
)

// EntryProvider supplies the entries insight generation runs over.
type EntryProvider interface {
	EntriesForUser(ctx context.Context, userID string, limit int) ([]*journal.Entry, error)
	MoodEntryCount(ctx context.Context, userID string) (int, error)
}

// Generator runs the full insight pipeline for one user at a time.
type Generator struct {
	entries  EntryProvider
	learning *learning.Service
	storage  *Storage
	engines  []correlate.Engine
	external []ExternalProvider
	cfg      config.InsightConfig
	logger   *slog.Logger

	now func() time.Time
}

// NewGenerator creates an insight generator over the given engines.
func NewGenerator(entries EntryProvider, learningSvc *learning.Service, storage *Storage, engines []correlate.Engine, cfg config.InsightConfig, logger *slog.Logger) *Generator {
	return &Generator{
		entries:  entries,
		learning: learningSvc,
		storage:  storage,
		engines:  engines,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// DefaultEngines builds the standard engine set.
func DefaultEngines(cfg *config.Config) []correlate.Engine {
	return []correlate.Engine{
		correlate.NewActivityEngine(cfg.Insights),
		correlate.NewPeopleEngine(cfg.Insights),
		correlate.NewTimeEngine(cfg.Insights),
		correlate.NewCategoryEngine(cfg.Insights),
		correlate.NewThemesEngine(cfg.Insights),
		correlate.NewHealthEngine(cfg.Insights),
		correlate.NewEnvironmentEngine(cfg.Insights, cfg.Latitude, cfg.Longitude),
	}
}

// CheckSufficiency reports whether the user has enough mood-bearing entries
// for generation, without loading them.
func (g *Generator) CheckSufficiency(ctx context.Context, userID string) (*Sufficiency, error) {
	count, err := g.entries.MoodEntryCount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("sufficiency check failed: %w", err)
	}

	needed := g.cfg.MinEntries - count
	if needed < 0 {
		needed = 0
	}
	return &Sufficiency{
		Sufficient:    count >= g.cfg.MinEntries,
		EntryCount:    count,
		EntriesNeeded: needed,
	}, nil
}

// Generate runs the pipeline end to end: load entries, run every engine,
// apply feedback learning, rank, cap, persist. Insufficient data yields a
// non-error result that is returned but never persisted.
func (g *Generator) Generate(ctx context.Context, userID string) (*Result, error) {
	entries, err := g.entries.EntriesForUser(ctx, userID, g.cfg.MaxEntries)
	if err != nil {
		return nil, fmt.Errorf("load entries failed: %w", err)
	}

	views := journal.MoodViews(entries)
	now := g.now()

	if len(views) < g.cfg.MinEntries {
		g.logger.Info("Insufficient data for insight generation",
			"user_id", userID, "mood_entries", len(views), "required", g.cfg.MinEntries)
		return &Result{
			ID:               uuid.New().String(),
			UserID:           userID,
			Success:          false,
			GeneratedAt:      now,
			EntriesAnalyzed:  len(views),
			InsufficientData: true,
			EntriesNeeded:    g.cfg.MinEntries - len(views),
		}, nil
	}

	var candidates []correlate.Insight
	for _, engine := range g.engines {
		found := engine.Correlate(views)
		g.logger.Debug("Engine finished",
			"category", engine.Category(), "candidates", len(found))
		candidates = append(candidates, found...)
	}
	candidates = append(candidates, g.externalCandidates(ctx, userID)...)

	kept, err := g.learning.FilterInsights(ctx, userID, candidates, len(views))
	if err != nil {
		return nil, fmt.Errorf("learning filter failed: %w", err)
	}

	kept = rank(kept, g.cfg.MaxInsights)

	counts := make(map[string]int)
	for _, in := range kept {
		counts[in.Category]++
	}

	result := &Result{
		ID:              uuid.New().String(),
		UserID:          userID,
		Success:         true,
		Insights:        kept,
		GeneratedAt:     now,
		ExpiresAt:       now.Add(g.cfg.CacheTTL),
		EntriesAnalyzed: len(views),
		CategoryCounts:  counts,
		Learning: LearningStats{
			CandidatesEvaluated: len(candidates),
			Suppressed:          len(candidates) - len(kept),
		},
	}

	if err := g.storage.SaveResult(ctx, result); err != nil {
		return nil, err
	}

	g.logger.Info("Insights generated",
		"user_id", userID,
		"insights", len(kept),
		"candidates", len(candidates),
		"entries_analyzed", len(views))

	return result, nil
}

// Cached returns the user's persisted insight document with staleness
// annotated, or nil when none exists. It never triggers generation.
func (g *Generator) Cached(ctx context.Context, userID string) (*Result, error) {
	return g.storage.CurrentResult(ctx, userID, g.now())
}

// rank orders insights by strength first, then by effect size, and truncates.
// The learning filter runs before ranking, so an eroded strong insight
// competes as moderate.
func rank(insights []correlate.Insight, max int) []correlate.Insight {
	sort.SliceStable(insights, func(i, j int) bool {
		ri, rj := insights[i].Strength.Rank(), insights[j].Strength.Rank()
		if ri != rj {
			return ri < rj
		}
		di, dj := insights[i].MoodDelta, insights[j].MoodDelta
		if di < 0 {
			di = -di
		}
		if dj < 0 {
			dj = -dj
		}
		return di > dj
	})
	if max > 0 && len(insights) > max {
		insights = insights[:max]
	}
	return insights
}
