package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/halcyonhq/insights-platform/internal/journal"
	"github.com/halcyonhq/insights-platform/internal/learning"
	"github.com/halcyonhq/insights-platform/pkg/config"
	"github.com/halcyonhq/insights-platform/pkg/mqtt"
	"github.com/halcyonhq/insights-platform/pkg/redis"
)

// Agent wires the insight pipeline to the platform: it listens for entry and
// feedback events over MQTT, regenerates insights, and serves the HTTP API.
type Agent struct {
	mqtt      mqtt.Client
	redis     redis.Client
	generator *Generator
	learning  *learning.Service
	entries   *journal.Store
	api       *API
	cfg       *config.Config
	logger    *slog.Logger
}

// NewAgent creates the insights agent with the given dependencies.
func NewAgent(mqttClient mqtt.Client, redisClient redis.Client, generator *Generator, learningSvc *learning.Service, entries *journal.Store, api *API, cfg *config.Config, logger *slog.Logger) *Agent {
	return &Agent{
		mqtt:      mqttClient,
		redis:     redisClient,
		generator: generator,
		learning:  learningSvc,
		entries:   entries,
		api:       api,
		cfg:       cfg,
		logger:    logger,
	}
}

// Start connects the agent to its transports and blocks until the context is
// cancelled.
func (a *Agent) Start(ctx context.Context) error {
	a.logger.Info("Starting insights agent",
		"service_name", a.cfg.ServiceName,
		"mqtt_broker", a.cfg.MQTTAddress())

	if err := a.mqtt.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to MQTT: %w", err)
	}

	if err := a.redis.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}

	if err := a.mqtt.Subscribe(mqtt.TopicEntryEvents, 0, a.handleEntryEvent); err != nil {
		return fmt.Errorf("failed to subscribe to entry events: %w", err)
	}
	if err := a.mqtt.Subscribe(mqtt.TopicFeedbackEvents, 0, a.handleFeedbackEvent); err != nil {
		return fmt.Errorf("failed to subscribe to feedback events: %w", err)
	}

	apiErr := make(chan error, 1)
	go func() {
		apiErr <- a.api.Start(ctx)
	}()

	a.logger.Info("Insights agent started and ready to receive events",
		"entry_topic", mqtt.TopicEntryEvents,
		"feedback_topic", mqtt.TopicFeedbackEvents,
		"api_port", a.cfg.APIPort)

	select {
	case err := <-apiErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	a.logger.Info("Insights agent stopping")
	return nil
}

// Stop gracefully disconnects the agent.
func (a *Agent) Stop() error {
	a.logger.Info("Stopping insights agent")

	a.mqtt.Disconnect()

	if err := a.redis.Close(); err != nil {
		a.logger.Error("Error closing Redis connection", "error", err)
		return err
	}

	a.logger.Info("Insights agent stopped")
	return nil
}

// handleEntryEvent regenerates a user's insights when a new entry lands,
// subject to the cooldown, and announces the fresh document.
func (a *Agent) handleEntryEvent(msg mqtt.Message) {
	topic := msg.Topic()
	a.logger.Debug("Received entry event", "topic", topic, "size", len(msg.Payload()))

	var event journal.EntryEvent
	if err := json.Unmarshal(msg.Payload(), &event); err != nil {
		a.logger.Error("Failed to parse entry event", "topic", topic, "error", err)
		return
	}

	userID := event.UserID
	if userID == "" {
		userID = mqtt.UserIDFromTopic(topic)
	}
	if userID == "" {
		a.logger.Error("Entry event without a user", "topic", topic)
		return
	}

	ctx := context.Background()

	current, err := a.generator.Cached(ctx, userID)
	if err != nil {
		a.logger.Error("Failed to read current insights", "user_id", userID, "error", err)
		return
	}
	if current != nil && time.Since(current.GeneratedAt) < a.cfg.Insights.RegenerateCooldown {
		a.logger.Debug("Skipping regeneration inside cooldown",
			"user_id", userID, "generated_at", current.GeneratedAt)
		return
	}

	result, err := a.generator.Generate(ctx, userID)
	if err != nil {
		a.logger.Error("Insight generation failed", "user_id", userID, "error", err)
		return
	}
	if result.InsufficientData {
		a.logger.Debug("Not enough entries yet",
			"user_id", userID, "entries_needed", result.EntriesNeeded)
		return
	}

	a.publishReady(userID, result)
}

// feedbackEvent is the payload published on journal/feedback/{user_id}.
type feedbackEvent struct {
	PatternType   string   `json:"pattern_type"`
	MoodDelta     int      `json:"mood_delta"`
	Accurate      bool     `json:"accurate"`
	CitedEntryIDs []string `json:"entry_ids,omitempty"`
}

// handleFeedbackEvent folds an insight rating into the learning store.
func (a *Agent) handleFeedbackEvent(msg mqtt.Message) {
	topic := msg.Topic()

	var event feedbackEvent
	if err := json.Unmarshal(msg.Payload(), &event); err != nil {
		a.logger.Error("Failed to parse feedback event", "topic", topic, "error", err)
		return
	}

	userID := mqtt.UserIDFromTopic(topic)
	if userID == "" || event.PatternType == "" {
		a.logger.Error("Feedback event missing user or pattern", "topic", topic)
		return
	}

	ctx := context.Background()

	entryCount, err := a.entries.MoodEntryCount(ctx, userID)
	if err != nil {
		a.logger.Error("Failed to count entries for feedback", "user_id", userID, "error", err)
		return
	}

	rec, err := a.learning.RecordFeedback(ctx, userID, learning.Feedback{
		PatternType:   event.PatternType,
		MoodDelta:     event.MoodDelta,
		Accurate:      event.Accurate,
		CitedEntryIDs: event.CitedEntryIDs,
	}, entryCount)
	if err != nil {
		a.logger.Error("Failed to record feedback",
			"user_id", userID, "pattern_type", event.PatternType, "error", err)
		return
	}

	a.logger.Info("Feedback recorded",
		"user_id", userID,
		"pattern_type", event.PatternType,
		"accurate", event.Accurate,
		"suppressed", rec.Suppressed)
}

// readyNotification is published on journal/insights/{user_id} after a
// successful regeneration.
type readyNotification struct {
	UserID       string    `json:"user_id"`
	ResultID     string    `json:"result_id"`
	InsightCount int       `json:"insight_count"`
	GeneratedAt  time.Time `json:"generated_at"`
}

func (a *Agent) publishReady(userID string, result *Result) {
	payload, err := json.Marshal(readyNotification{
		UserID:       userID,
		ResultID:     result.ID,
		InsightCount: len(result.Insights),
		GeneratedAt:  result.GeneratedAt,
	})
	if err != nil {
		a.logger.Error("Failed to build ready notification", "user_id", userID, "error", err)
		return
	}

	if err := a.mqtt.Publish(mqtt.InsightsReadyTopic(userID), 0, false, payload); err != nil {
		a.logger.Error("Failed to publish ready notification", "user_id", userID, "error", err)
		return
	}

	a.logger.Info("Published insights ready",
		"user_id", userID, "insights", len(result.Insights))
}
