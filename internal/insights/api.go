package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/halcyonhq/insights-platform/internal/burnout"
	"github.com/halcyonhq/insights-platform/internal/journal"
	"github.com/halcyonhq/insights-platform/internal/learning"
	"github.com/halcyonhq/insights-platform/pkg/config"
)

// WindowProvider supplies the recency-ordered entry window for burnout
// scoring.
type WindowProvider interface {
	RecentEntries(ctx context.Context, userID string, window int) ([]*journal.Entry, error)
}

// API serves the insight, feedback, and burnout endpoints over JSON HTTP.
type API struct {
	generator *Generator
	learning  *learning.Service
	scorer    *burnout.Scorer
	window    WindowProvider
	cfg       *config.Config
	logger    *slog.Logger

	server *http.Server
}

// NewAPI creates the HTTP API.
func NewAPI(generator *Generator, learningSvc *learning.Service, scorer *burnout.Scorer, window WindowProvider, cfg *config.Config, logger *slog.Logger) *API {
	return &API{
		generator: generator,
		learning:  learningSvc,
		scorer:    scorer,
		window:    window,
		cfg:       cfg,
		logger:    logger,
	}
}

// Routes builds the request multiplexer. Exposed for tests.
func (a *API) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/insights/{user}", a.handleGetInsights)
	mux.HandleFunc("GET /api/insights/{user}/sufficiency", a.handleSufficiency)
	mux.HandleFunc("POST /api/insights/{user}/feedback", a.handleFeedback)
	mux.HandleFunc("GET /api/insights/{user}/burnout", a.handleBurnout)
	mux.HandleFunc("GET /api/insights/{user}/suppressed", a.handleSuppressed)
	mux.HandleFunc("POST /api/insights/{user}/suppressed/lift", a.handleLiftSuppression)
	return mux
}

// Start runs the API server until the context is cancelled.
func (a *API) Start(ctx context.Context) error {
	a.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.APIPort),
		Handler:           a.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("API server listening", "port", a.cfg.APIPort)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("API server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	}
}

// handleGetInsights serves the user's current insights. A fresh cached
// document is returned as is; a missing or stale one triggers regeneration,
// falling back to the stale document if generation fails.
func (a *API) handleGetInsights(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user")
	ctx := r.Context()

	cached, err := a.generator.Cached(ctx, userID)
	if err != nil {
		a.respondError(w, http.StatusInternalServerError, err)
		return
	}
	if cached != nil && !cached.Stale {
		a.respondJSON(w, http.StatusOK, cached)
		return
	}

	result, err := a.generator.Generate(ctx, userID)
	if err != nil {
		if cached != nil {
			a.logger.Warn("Generation failed, serving stale document",
				"user_id", userID, "error", err)
			a.respondJSON(w, http.StatusOK, cached)
			return
		}
		a.respondError(w, http.StatusInternalServerError, err)
		return
	}

	a.respondJSON(w, http.StatusOK, result)
}

func (a *API) handleSufficiency(w http.ResponseWriter, r *http.Request) {
	sufficiency, err := a.generator.CheckSufficiency(r.Context(), r.PathValue("user"))
	if err != nil {
		a.respondError(w, http.StatusInternalServerError, err)
		return
	}
	a.respondJSON(w, http.StatusOK, sufficiency)
}

// feedbackRequest is the POST body for insight feedback.
type feedbackRequest struct {
	PatternType   string   `json:"pattern_type"`
	MoodDelta     int      `json:"mood_delta"`
	Accurate      bool     `json:"accurate"`
	CitedEntryIDs []string `json:"entry_ids,omitempty"`
}

func (a *API) handleFeedback(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user")
	ctx := r.Context()

	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.respondError(w, http.StatusBadRequest, fmt.Errorf("invalid feedback payload: %w", err))
		return
	}
	if req.PatternType == "" {
		a.respondError(w, http.StatusBadRequest, fmt.Errorf("pattern_type is required"))
		return
	}

	entryCount, err := a.generator.entries.MoodEntryCount(ctx, userID)
	if err != nil {
		a.respondError(w, http.StatusInternalServerError, err)
		return
	}

	rec, err := a.learning.RecordFeedback(ctx, userID, learning.Feedback{
		PatternType:   req.PatternType,
		MoodDelta:     req.MoodDelta,
		Accurate:      req.Accurate,
		CitedEntryIDs: req.CitedEntryIDs,
	}, entryCount)
	if err != nil {
		a.respondError(w, http.StatusInternalServerError, err)
		return
	}

	a.respondJSON(w, http.StatusOK, rec)
}

func (a *API) handleBurnout(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user")

	entries, err := a.window.RecentEntries(r.Context(), userID, a.cfg.Burnout.WindowSize)
	if err != nil {
		a.respondError(w, http.StatusInternalServerError, err)
		return
	}

	a.respondJSON(w, http.StatusOK, a.scorer.Score(entries))
}

func (a *API) handleSuppressed(w http.ResponseWriter, r *http.Request) {
	suppressed, err := a.learning.SuppressedPatterns(r.Context(), r.PathValue("user"))
	if err != nil {
		a.respondError(w, http.StatusInternalServerError, err)
		return
	}
	a.respondJSON(w, http.StatusOK, map[string]any{"suppressed": suppressed})
}

// liftRequest is the POST body for a manual suppression lift.
type liftRequest struct {
	PatternType string `json:"pattern_type"`
}

func (a *API) handleLiftSuppression(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user")

	var req liftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PatternType == "" {
		a.respondError(w, http.StatusBadRequest, fmt.Errorf("pattern_type is required"))
		return
	}

	if err := a.learning.LiftSuppression(r.Context(), userID, req.PatternType); err != nil {
		a.respondError(w, http.StatusInternalServerError, err)
		return
	}
	a.respondJSON(w, http.StatusOK, map[string]any{"lifted": req.PatternType})
}

func (a *API) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.logger.Error("Failed to encode response", "error", err)
	}
}

func (a *API) respondError(w http.ResponseWriter, status int, err error) {
	a.logger.Error("Request failed", "status", status, "error", err)
	a.respondJSON(w, status, map[string]string{"error": err.Error()})
}
