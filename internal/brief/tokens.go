package brief

import "unicode/utf8"

// estimateTokens approximates token counts at roughly four characters
// per token. The estimate is deterministic, which matters more here
// than exactness: the same prompt always reports the same usage.
func estimateTokens(s string) int {
	if s == "" {
		return 0
	}
	return (utf8.RuneCountInString(s) + 3) / 4
}
