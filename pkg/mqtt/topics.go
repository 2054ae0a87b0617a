package mqtt

import "fmt"

// Topic constants for journal event traffic
const (
	// Entry lifecycle events published by the application layer (input)
	TopicEntryEvents = "journal/entry/+"

	// Feedback events published when a user rates an insight (input)
	TopicFeedbackEvents = "journal/feedback/+"

	// Regeneration notifications published by the insights agent (output)
	TopicInsightsBase = "journal/insights"
)

// EntryTopic constructs the entry-event topic for a specific user
// Pattern: journal/entry/{user_id}
func EntryTopic(userID string) string {
	return fmt.Sprintf("journal/entry/%s", userID)
}

// FeedbackTopic constructs the feedback-event topic for a specific user
// Pattern: journal/feedback/{user_id}
func FeedbackTopic(userID string) string {
	return fmt.Sprintf("journal/feedback/%s", userID)
}

// InsightsReadyTopic constructs the regeneration notification topic for a user
// Pattern: journal/insights/{user_id}
func InsightsReadyTopic(userID string) string {
	return fmt.Sprintf("journal/insights/%s", userID)
}

// UserIDFromTopic extracts the trailing user segment from an event topic.
// journal/entry/{user_id} -> {user_id}
func UserIDFromTopic(topic string) string {
	for i := len(topic) - 1; i >= 0; i-- {
		if topic[i] == '/' {
			return topic[i+1:]
		}
	}
	return ""
}
