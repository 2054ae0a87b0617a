package burnout

// RiskLevelInfo bundles the presentational guidance for one risk level.
type RiskLevelInfo struct {
	Level       string   `json:"level"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Actions     []Action `json:"actions"`
}

// Action is one suggested step with a priority tag.
type Action struct {
	Text     string `json:"text"`
	Priority string `json:"priority"` // low | medium | high
}

var riskLevelInfo = map[string]*RiskLevelInfo{
	LevelLow: {
		Level:       LevelLow,
		Title:       "You're doing okay",
		Description: "Your recent entries don't show signs of burnout. Keep up the habits that are working for you.",
		Actions: []Action{
			{Text: "Keep journaling regularly to track how you're feeling", Priority: "low"},
			{Text: "Notice what's been giving you energy lately", Priority: "low"},
		},
	},
	LevelModerate: {
		Level:       LevelModerate,
		Title:       "Some early warning signs",
		Description: "A few patterns in your recent entries suggest rising pressure. Small adjustments now can prevent a bigger dip later.",
		Actions: []Action{
			{Text: "Schedule one genuinely restful activity this week", Priority: "medium"},
			{Text: "Review what's been draining you and whether any of it can wait", Priority: "medium"},
			{Text: "Protect your sleep window for the next few nights", Priority: "low"},
		},
	},
	LevelHigh: {
		Level:       LevelHigh,
		Title:       "You may be heading toward burnout",
		Description: "Several signals in your recent entries point to sustained strain. It's worth treating recovery as a priority, not an afterthought.",
		Actions: []Action{
			{Text: "Take at least one full day off from work obligations", Priority: "high"},
			{Text: "Talk to someone you trust about how you've been feeling", Priority: "high"},
			{Text: "Cut back on late-night work sessions this week", Priority: "medium"},
			{Text: "Consider whether any commitments can be postponed or delegated", Priority: "medium"},
		},
	},
	LevelCritical: {
		Level:       LevelCritical,
		Title:       "Strong signs of burnout",
		Description: "Your entries show a sustained pattern of exhaustion and low mood. Please prioritize your wellbeing now, and consider reaching out for support.",
		Actions: []Action{
			{Text: "Reach out to a mental health professional or counselor", Priority: "high"},
			{Text: "Take time off if at all possible, even a few days", Priority: "high"},
			{Text: "Tell someone close to you how you've been doing", Priority: "high"},
			{Text: "Pause non-essential commitments until you've recovered", Priority: "medium"},
		},
	},
}

// RiskInfo returns the guidance template for a risk level; unknown levels
// fall back to low.
func RiskInfo(level string) *RiskLevelInfo {
	if info, ok := riskLevelInfo[level]; ok {
		return info
	}
	return riskLevelInfo[LevelLow]
}
