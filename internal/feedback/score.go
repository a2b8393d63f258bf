package feedback

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Score patterns in priority order; the first match wins.
var scorePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)score[\s:*]*(\d{1,2}(?:\.\d+)?)\s*(?:/|out of)\s*10\b`),
	regexp.MustCompile(`(?i)\b(\d{1,2}(?:\.\d+)?)\s*(?:/\s*10|out of 10)\b`),
	regexp.MustCompile(`(?i)score of\s*(\d{1,2}(?:\.\d+)?)`),
	regexp.MustCompile(`(?i)rating[\s:*]*(\d{1,2}(?:\.\d+)?)`),
}

var keywordScores = []struct {
	words []string
	score int
}{
	{[]string{"excellent", "outstanding"}, 9},
	{[]string{"good", "well"}, 7},
	{[]string{"adequate", "satisfactory"}, 6},
	{[]string{"needs improvement"}, 4},
}

// DefaultScore is used when neither a number nor a keyword is found.
const DefaultScore = 5

// ExtractScore finds a 0-10 score in free-form feedback. When no numeric
// pattern matches it falls back to a keyword guess and reports
// confident=false. The keyword guess is approximate: "well" in "not well
// structured" still scores 7.
func ExtractScore(text string) (score int, confident bool) {
	for _, re := range scorePatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		f, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		return clamp(int(math.Round(f))), true
	}

	lower := strings.ToLower(text)
	for _, k := range keywordScores {
		for _, w := range k.words {
			if strings.Contains(lower, w) {
				return k.score, false
			}
		}
	}
	return DefaultScore, false
}

func clamp(n int) int {
	return min(max(n, 0), 10)
}
