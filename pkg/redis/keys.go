package redis

import "fmt"

// Key construction helpers for the insight document store

// InsightsKey returns the key for a user's current insight document
// Pattern: insights:current:{user_id}
func InsightsKey(userID string) string {
	return fmt.Sprintf("insights:current:%s", userID)
}

// LearningKey returns the key for a pattern learning record
// Pattern: learning:{user_id}:{pattern_type}
func LearningKey(userID, patternType string) string {
	return fmt.Sprintf("learning:%s:%s", userID, patternType)
}

// LearningKeyPattern returns the glob matching all of a user's learning records
// Pattern: learning:{user_id}:*
func LearningKeyPattern(userID string) string {
	return fmt.Sprintf("learning:%s:*", userID)
}
