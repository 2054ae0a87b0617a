// Package burnout scores burnout risk over a recency-ordered window of
// journal entries. Six independently weighted factors combine into a raw
// score, a recovery discount is subtracted, and the result classifies into a
// risk level with an optional shelter-mode recommendation.
package burnout

import (
	"log/slog"
	"strings"

	"github.com/halcyonhq/insights-platform/internal/extract"
	"github.com/halcyonhq/insights-platform/internal/journal"
	"github.com/halcyonhq/insights-platform/internal/stats"
	"github.com/halcyonhq/insights-platform/pkg/config"
)

// Risk levels, lowest to highest.
const (
	LevelLow      = "low"
	LevelModerate = "moderate"
	LevelHigh     = "high"
	LevelCritical = "critical"
)

// Factor names key the per-factor sub-scores in a result.
const (
	FactorMoodTrajectory = "mood_trajectory"
	FactorFatigue        = "fatigue_language"
	FactorOverwork       = "overwork_indicators"
	FactorPhysical       = "physical_symptoms"
	FactorWorkTags       = "work_tag_density"
	FactorLowMoodStreak  = "low_mood_streak"
)

// Result is one on-demand risk assessment. Nothing here is persisted.
type Result struct {
	RiskScore          float64            `json:"risk_score"`
	RiskLevel          string             `json:"risk_level"`
	Factors            map[string]float64 `json:"factors"`
	Signals            []string           `json:"signals"`
	RecoveryDiscount   float64            `json:"recovery_discount"`
	EntriesAnalyzed    int                `json:"entries_analyzed"`
	InsufficientData   bool               `json:"insufficient_data,omitempty"`
	TriggerShelterMode bool               `json:"trigger_shelter_mode"`
	Recommendation     *RiskLevelInfo     `json:"recommendation,omitempty"`
}

// Scorer computes burnout risk. It is stateless; every call scores only the
// window it is handed.
type Scorer struct {
	cfg    config.BurnoutConfig
	logger *slog.Logger
}

// NewScorer creates a burnout risk scorer.
func NewScorer(cfg config.BurnoutConfig, logger *slog.Logger) *Scorer {
	return &Scorer{cfg: cfg, logger: logger}
}

// Score assesses a window of entries ordered newest first. Fewer entries than
// the minimum yields a zero-score low-risk result flagged insufficient, never
// an error.
func (s *Scorer) Score(entries []*journal.Entry) *Result {
	if len(entries) > s.cfg.WindowSize {
		entries = entries[:s.cfg.WindowSize]
	}

	if len(entries) < s.cfg.MinEntries {
		return &Result{
			RiskScore:        0,
			RiskLevel:        LevelLow,
			Factors:          map[string]float64{},
			EntriesAnalyzed:  len(entries),
			InsufficientData: true,
			Recommendation:   RiskInfo(LevelLow),
		}
	}

	factors := map[string]float64{
		FactorMoodTrajectory: s.moodTrajectory(entries),
		FactorFatigue:        s.keywordDensity(entries, fatigueKeywords),
		FactorOverwork:       s.overwork(entries),
		FactorPhysical:       s.keywordDensity(entries, physicalKeywords),
		FactorWorkTags:       s.workTagDensity(entries),
		FactorLowMoodStreak:  s.lowMoodStreak(entries),
	}

	rawScore := factors[FactorMoodTrajectory]*s.cfg.WeightMoodTrajectory +
		factors[FactorFatigue]*s.cfg.WeightFatigue +
		factors[FactorOverwork]*s.cfg.WeightOverwork +
		factors[FactorPhysical]*s.cfg.WeightPhysical +
		factors[FactorWorkTags]*s.cfg.WeightWorkTags +
		factors[FactorLowMoodStreak]*s.cfg.WeightLowMoodStreak

	discount := s.recoveryDiscount(entries)
	score := clamp(rawScore-discount, 0, 1)
	level := s.riskLevel(score)

	result := &Result{
		RiskScore:          score,
		RiskLevel:          level,
		Factors:            factors,
		Signals:            s.signals(factors),
		RecoveryDiscount:   discount,
		EntriesAnalyzed:    len(entries),
		TriggerShelterMode: s.shelterMode(level, factors),
		Recommendation:     RiskInfo(level),
	}

	s.logger.Debug("Burnout risk computed",
		"risk_score", score, "risk_level", level,
		"entries", len(entries), "recovery_discount", discount)

	return result
}

// moodTrajectory compares the mean mood of the newest entries against the
// oldest in the window, and adds a penalty for a low absolute level. Entries
// without a mood score are ignored.
func (s *Scorer) moodTrajectory(entries []*journal.Entry) float64 {
	moods := make([]float64, 0, len(entries))
	for _, e := range entries {
		if m, ok := e.Mood(); ok {
			moods = append(moods, m)
		}
	}
	if len(moods) < 2 {
		return 0
	}

	n := 3
	if n > len(moods) {
		n = len(moods)
	}
	recent := stats.Average(moods[:n])
	oldest := stats.Average(moods[len(moods)-n:])

	// A half-point decline saturates the trend component; the level
	// component ramps in below a 0.5 mean
	trend := (oldest - recent) * 2
	if trend < 0 {
		trend = 0
	}
	level := 0.5 - recent
	if level < 0 {
		level = 0
	}

	return clamp(trend+level, 0, 1)
}

// keywordDensity is the fraction of entries containing at least one keyword,
// scaled so that two thirds of the window saturates the sub-score.
func (s *Scorer) keywordDensity(entries []*journal.Entry, keywords []string) float64 {
	hits := 0
	for _, e := range entries {
		if extract.ContainsAnyKeyword(e.Text, keywords) {
			hits++
		}
	}
	return clamp(float64(hits)/float64(len(entries))*1.5, 0, 1)
}

// overwork blends three ratios: late-night entries, weekend entries, and
// entries with overwork language.
func (s *Scorer) overwork(entries []*journal.Entry) float64 {
	var lateNight, weekend, keyword int
	for _, e := range entries {
		when := e.BucketTime()
		if extract.IsLateNight(when) {
			lateNight++
		}
		if extract.DayType(when) == extract.DayWeekend {
			weekend++
		}
		if extract.ContainsAnyKeyword(e.Text, overworkKeywords) {
			keyword++
		}
	}

	total := float64(len(entries))
	return clamp(
		float64(lateNight)/total*0.4+
			float64(weekend)/total*0.3+
			float64(keyword)/total*0.3,
		0, 1)
}

// workTagDensity is the share of work-namespaced tags among all tags in the
// window, with the same 1.5x scaling as the keyword factors.
func (s *Scorer) workTagDensity(entries []*journal.Entry) float64 {
	var workTags, allTags int
	for _, e := range entries {
		for _, tag := range e.Tags {
			allTags++
			normalized := strings.TrimPrefix(strings.ToLower(tag), "@")
			if normalized == "work" || strings.HasPrefix(normalized, "work:") {
				workTags++
			}
		}
	}
	if allTags == 0 {
		return 0
	}
	return clamp(float64(workTags)/float64(allTags)*1.5, 0, 1)
}

// lowMoodStreak counts consecutive low-mood entries from the most recent and
// maps the count onto a step function. Entries without a mood score break the
// streak.
func (s *Scorer) lowMoodStreak(entries []*journal.Entry) float64 {
	streak := 0
	for _, e := range entries {
		m, ok := e.Mood()
		if !ok || m >= s.cfg.LowMoodCutoff {
			break
		}
		streak++
	}

	switch {
	case streak >= 5:
		return 1.0
	case streak >= 4:
		return 0.8
	case streak >= 3:
		return 0.5
	case streak >= 2:
		return 0.2
	default:
		return 0
	}
}

// recoveryDiscount rewards recovery language in the newest entries.
func (s *Scorer) recoveryDiscount(entries []*journal.Entry) float64 {
	n := s.cfg.MaxRecoveryEntries
	if n > len(entries) {
		n = len(entries)
	}

	discount := 0.0
	for _, e := range entries[:n] {
		if extract.ContainsAnyKeyword(e.Text, recoveryKeywords) {
			discount += s.cfg.RecoveryDiscount
		}
	}
	if discount > s.cfg.MaxRecoveryDiscount {
		discount = s.cfg.MaxRecoveryDiscount
	}
	return discount
}

func (s *Scorer) riskLevel(score float64) string {
	switch {
	case score < s.cfg.ModerateThreshold:
		return LevelLow
	case score < s.cfg.HighThreshold:
		return LevelModerate
	case score < s.cfg.CriticalThreshold:
		return LevelHigh
	default:
		return LevelCritical
	}
}

// shelterMode recommends the reduced-pressure mode on critical risk, or on
// high risk backed by multiple severe factors rather than one outlier.
func (s *Scorer) shelterMode(level string, factors map[string]float64) bool {
	if level == LevelCritical {
		return true
	}
	if level != LevelHigh {
		return false
	}

	severe := 0
	for _, score := range factors {
		if score > s.cfg.SevereFactorCutoff {
			severe++
		}
	}
	return severe >= s.cfg.SevereFactorCount
}

// signals names the factors contributing meaningfully to the score.
func (s *Scorer) signals(factors map[string]float64) []string {
	var out []string
	for _, name := range []string{
		FactorMoodTrajectory, FactorFatigue, FactorOverwork,
		FactorPhysical, FactorWorkTags, FactorLowMoodStreak,
	} {
		if factors[name] > 0.3 {
			out = append(out, name)
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
