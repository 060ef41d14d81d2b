package classify

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// shortToken is the longest ASCII token that must match as a whole word.
const shortToken = 3

// containsToken reports whether lowered text contains token (already lowercase).
//
// Short ASCII tokens need non-alphanumeric neighbors so that "ive" does not hit "live" and "mv"
// does not hit "mvp". Everything else is a plain substring test.
func containsToken(text, token string) bool {
	if token == "" {
		return false
	}
	if !isShortASCII(token) {
		return strings.Contains(text, token)
	}

	for offset := 0; offset < len(text); {
		idx := strings.Index(text[offset:], token)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(token)
		if boundaryBefore(text, start) && boundaryAfter(text, end) {
			return true
		}
		offset = start + 1
	}
	return false
}

// containsAny reports whether text contains any of tokens.
func containsAny(text string, tokens []string) bool {
	for _, tok := range tokens {
		if containsToken(text, strings.ToLower(tok)) {
			return true
		}
	}
	return false
}

func isShortASCII(token string) bool {
	if len(token) > shortToken {
		return false
	}
	for i := 0; i < len(token); i++ {
		if token[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !isWordRune(r)
}

func boundaryAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
