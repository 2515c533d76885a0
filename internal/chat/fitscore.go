package chat

import (
	"regexp"
	"strconv"
)

// scoreMatcher pairs a pattern with a normalizer mapping the captured number
// onto the 0-10 scale.
type scoreMatcher struct {
	pattern   *regexp.Regexp
	normalize func(n int) int
}

// scoreMatchers are tried in order; the first match wins. LLM output format
// is not contractually fixed, so extraction is best effort.
var scoreMatchers = []scoreMatcher{
	{regexp.MustCompile(`(?i)(\d+)\s*/\s*10\b`), clampScore},
	{regexp.MustCompile(`(?i)(\d+)\s+out\s+of\s+10\b`), clampScore},
	{regexp.MustCompile(`(?i)(\d+)\s*(?:%|percent)`), func(n int) int { return clampScore(roundTenth(n)) }},
	{regexp.MustCompile(`(?i)(?:score|rating)\s*:\s*(\d+)`), func(n int) int {
		if n <= 10 {
			return clampScore(n)
		}
		return clampScore(roundTenth(n))
	}},
}

// ExtractFitScore parses a 0-10 confidence score out of free-form assessment
// text. A miss is not an error: the score is simply absent.
func ExtractFitScore(text string) (int, bool) {
	for _, m := range scoreMatchers {
		match := m.pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}

		n, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}

		return m.normalize(n), true
	}

	return 0, false
}

// roundTenth converts a percentage to the 0-10 scale with round-half-up.
func roundTenth(n int) int {
	return (n + 5) / 10
}

func clampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 10 {
		return 10
	}
	return n
}
