package usecase

import (
	"strings"
	"unicode"
)

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "are": {}, "for": {}, "you": {}, "your": {},
	"our": {}, "with": {}, "what": {}, "when": {}, "where": {}, "who": {},
	"how": {}, "why": {}, "can": {}, "does": {}, "about": {}, "that": {},
	"this": {}, "have": {}, "has": {}, "was": {}, "were": {}, "will": {},
	"not": {}, "any": {}, "all": {}, "there": {}, "them": {}, "they": {},
	"from": {}, "into": {}, "its": {}, "his": {}, "her": {}, "their": {},
}

// contentTokens returns the lower-cased non-stopword tokens of length > 2.
func contentTokens(s string) []string {
	tokens := splitAlphaNumLower(s)
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if len(token) <= 2 {
			continue
		}
		if _, ok := stopwords[token]; ok {
			continue
		}
		out = append(out, token)
	}
	return out
}

func splitAlphaNumLower(s string) []string {
	if s == "" {
		return nil
	}

	tokens := make([]string, 0, 16)
	var b strings.Builder
	for _, r := range s {
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		tokens = append(tokens, b.String())
	}
	return tokens
}

// wholeWordCount counts occurrences of token among the words of text.
func wholeWordCount(words []string, token string) int {
	n := 0
	for _, w := range words {
		if w == token {
			n++
		}
	}
	return n
}
