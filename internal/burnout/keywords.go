package burnout

// Keyword sets scanned over entry text by the lexical factors. Matching is
// whole-word and case-insensitive via the shared extract matcher; multi-word
// phrases match as literal sequences.
var (
	fatigueKeywords = []string{
		"exhausted", "exhausting", "exhaustion", "drained", "draining",
		"burnt out", "burned out", "burnout", "depleted", "worn out",
		"no energy", "so tired", "dead tired", "running on empty",
		"can't keep up", "wiped out", "fatigued", "fatigue",
	}

	overworkKeywords = []string{
		"overtime", "deadline", "deadlines", "workload", "overloaded",
		"too much work", "back to back", "back-to-back", "no break",
		"working late", "worked late", "crunch", "overwhelmed at work",
		"another meeting", "meetings all day",
	}

	physicalKeywords = []string{
		"headache", "headaches", "migraine", "insomnia", "can't sleep",
		"couldn't sleep", "nausea", "nauseous", "tense", "tension",
		"chest tight", "tight chest", "stomach ache", "stomachache",
		"dizzy", "heart racing", "racing heart", "jaw clenched",
	}

	recoveryKeywords = []string{
		"rested", "well rested", "recharged", "relaxed", "relaxing",
		"day off", "vacation", "slept well", "took a break", "unwound",
		"unwind", "restorative", "recovered", "recovering",
	}
)
