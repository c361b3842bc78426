package pos

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	hyphenWord = "!HYPHEN"
	yearWord   = "!YEAR"
	digitsWord = "!DIGITS"
)

// Normalize maps a token to the form used for context-word features.
// Rules are applied in order and the first match wins.
func Normalize(token string) string {
	switch {
	case strings.Contains(token, "-") && !strings.HasPrefix(token, "-"):
		return hyphenWord
	case isYear(token):
		return yearWord
	case len(token) > 0 && isASCIIDigit(token[0]):
		return digitsWord
	}
	return strings.ToLower(token)
}

func isYear(token string) bool {
	if utf8.RuneCountInString(token) != 4 {
		return false
	}
	_, err := strconv.ParseUint(token, 10, 64)
	return err == nil
}

func isASCIIDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
