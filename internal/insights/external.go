package insights

import (
	"context"
	"strings"

	"github.com/halcyonhq/insights-platform/internal/correlate"
	"github.com/halcyonhq/insights-platform/internal/stats"
)

// ExternalRecord is the insight-shaped payload produced by external
// correlation collaborators (health and environment services running outside
// this process). Records merge into generation alongside the built-in
// engines and pass through the same learning filter and ranking.
type ExternalRecord struct {
	Type           string   `json:"type"`
	Insight        string   `json:"insight"`
	Difference     int      `json:"difference"`
	Strength       string   `json:"strength"`
	SampleSize     int      `json:"sample_size"`
	Recommendation string   `json:"recommendation,omitempty"`
	EntryIDs       []string `json:"entry_ids,omitempty"`
}

// ExternalProvider supplies externally computed insight records for a user.
// Provider failures are logged and skipped; an unavailable collaborator must
// never fail generation.
type ExternalProvider interface {
	ExternalInsights(ctx context.Context, userID string) ([]ExternalRecord, error)
}

// AddExternalProvider registers a collaborator whose records merge into every
// subsequent generation.
func (g *Generator) AddExternalProvider(p ExternalProvider) {
	g.external = append(g.external, p)
}

// toInsight converts an external record into the internal insight shape. The
// record's type doubles as the pattern key; its leading segment is the
// category.
func (r ExternalRecord) toInsight() correlate.Insight {
	category := r.Type
	if i := strings.Index(r.Type, "_"); i > 0 {
		category = r.Type[:i]
	}

	direction := "positive"
	if r.Difference < 0 {
		direction = "negative"
	}

	strength := stats.Strength(strings.ToLower(r.Strength))
	switch strength {
	case stats.StrengthWeak, stats.StrengthModerate, stats.StrengthStrong:
	default:
		strength = stats.StrengthModerate
	}

	return correlate.Insight{
		ID:             strings.ToLower(r.Type),
		Category:       category,
		Insight:        r.Insight,
		MoodDelta:      r.Difference,
		Direction:      direction,
		Strength:       strength,
		SampleSize:     r.SampleSize,
		EntryIDs:       r.EntryIDs,
		Recommendation: r.Recommendation,
	}
}

// externalCandidates collects records from every registered provider. A weak
// or sub-noise record is dropped the same way the built-in engines drop
// theirs.
func (g *Generator) externalCandidates(ctx context.Context, userID string) []correlate.Insight {
	var out []correlate.Insight
	for _, provider := range g.external {
		records, err := provider.ExternalInsights(ctx, userID)
		if err != nil {
			g.logger.Warn("External insight provider failed, skipping",
				"user_id", userID, "error", err)
			continue
		}
		for _, rec := range records {
			if rec.Type == "" {
				continue
			}
			delta := rec.Difference
			if delta < 0 {
				delta = -delta
			}
			if delta < g.cfg.MinMoodDelta {
				continue
			}
			in := rec.toInsight()
			if in.Strength == stats.StrengthWeak {
				continue
			}
			out = append(out, in)
		}
	}
	return out
}
