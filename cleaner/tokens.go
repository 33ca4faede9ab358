package cleaner

import "unicode/utf8"

// EstimateTokens approximates the token count of text as one token per three
// runes. Empty text is 0; any other text is at least 1.
func EstimateTokens(text string) int {
	runes := utf8.RuneCountInString(text)
	if runes == 0 {
		return 0
	}
	return max(1, runes/3)
}
