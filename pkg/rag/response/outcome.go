package response

import "strings"

// ApologyPhrases mark an answer as unanswered. Matching is case-sensitive.
var ApologyPhrases = []string{"申し訳", "恐れ入りますが", "エラー"}

// IsUnanswered reports whether answer contains any apology phrase.
func IsUnanswered(answer string) bool {
	for _, p := range ApologyPhrases {
		if strings.Contains(answer, p) {
			return true
		}
	}
	return false
}
