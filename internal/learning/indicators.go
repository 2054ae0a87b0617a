package learning

import "regexp"

// falsePositiveIndicators are the lexical classes scanned in entries cited as
// evidence for inaccurate insights. A keyword detector that fired on one of
// these is likely reading intent or history, not a present-day factor: talk
// about the app itself, things still being attempted, things that used to be
// true, negations, and hypotheticals.
var falsePositiveIndicators = []struct {
	Name string
	re   *regexp.Regexp
}{
	{"app_meta", regexp.MustCompile(`(?i)\b(this app|the app|these insights?|this journal|my journal|journaling here)\b`)},
	{"work_in_progress", regexp.MustCompile(`(?i)\b(trying to|working on|attempting to|starting to|want to start|practicing)\b`)},
	{"past_tense_hedge", regexp.MustCompile(`(?i)\b(used to|back then|in the past|previously|years ago|no longer)\b`)},
	{"negation", regexp.MustCompile(`(?i)\b(didn't|did not|never|not really|wasn't|was not|couldn't|could not|skipped)\b`)},
	{"hypothetical", regexp.MustCompile(`(?i)\b(if i|maybe|might|i wish|hope to|would like to|thinking about|imagine)\b`)},
}

// countIndicators tallies indicator-class hits over a set of entry texts.
func countIndicators(texts []string) map[string]int {
	counts := make(map[string]int)
	for _, text := range texts {
		if text == "" {
			continue
		}
		for _, ind := range falsePositiveIndicators {
			if ind.re.MatchString(text) {
				counts[ind.Name]++
			}
		}
	}
	return counts
}
