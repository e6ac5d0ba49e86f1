package classify

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// lessThanRe catches bounded mentions like "<5 min" or "under 10 minutes".
	// The bound is exclusive, so "<5 min" reads as 4.
	lessThanRe = regexp.MustCompile(`(?i)(?:<|under|less than|at most|no more than)\s*(\d+)\s*(?:minutes|minute|mins|min)\b`)
	minutesRe  = regexp.MustCompile(`(?i)(\d+)\s*(?:minutes|minute|mins|min)\b`)
	hoursRe    = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:hours|hour|hrs|hr)\b`)
)

// durationPhrases maps idiomatic duration mentions to minutes. Ordered most
// specific first: "half an hour" must match before "an hour".
var durationPhrases = []struct {
	phrase  string
	minutes int
}{
	{"half an hour", 30},
	{"half hour", 30},
	{"an hour", 60},
	{"one hour", 60},
	{"a couple of minutes", 2},
	{"a couple minutes", 2},
	{"couple of minutes", 2},
	{"a few minutes", 3},
	{"a few mins", 3},
	{"a minute", 1},
}

// ExtractMinutes pulls an explicit duration mention out of text and returns
// it in minutes. The second return is false when no duration is mentioned.
// Numeric minute mentions win over hour mentions, and both win over phrases,
// so "90 min spike, maybe an hour of writeup" reads as 90.
func ExtractMinutes(text string) (int, bool) {
	if m := lessThanRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			if n > 0 {
				n--
			}
			return n, true
		}
	}
	if m := minutesRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n, true
		}
	}
	if m := hoursRe.FindStringSubmatch(text); m != nil {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			return int(f * 60), true
		}
	}
	lower := strings.ToLower(text)
	for _, p := range durationPhrases {
		if strings.Contains(lower, p.phrase) {
			return p.minutes, true
		}
	}
	return 0, false
}
