package usecase

import (
	"regexp"
	"strings"
)

const (
	extractVerbatimSimilarity = 0.60
	minSentenceLength         = 20
	minExcerptLength          = 100
)

var answerIndicatorPattern = regexp.MustCompile(
	`(?i)\b(is|are|was|were|offers?|provides?|includes?|costs?|opens?|closes?|located|available|yes|no|we)\b`,
)

var sentenceSplitPattern = regexp.MustCompile(`[.!?]+`)

// extractAnswer narrows a matched chunk down to the most relevant
// sentence window for terse factual questions. High-similarity matches
// and question types that do not need precise extraction return the
// chunk verbatim.
func extractAnswer(question, chunkText string, semanticScore float64, precise bool) string {
	trimmed := strings.TrimSpace(chunkText)
	if semanticScore > extractVerbatimSimilarity || !precise {
		return trimmed
	}

	sentences := splitSentences(trimmed)
	if len(sentences) == 0 {
		return trimmed
	}

	questionTokens := contentTokens(question)
	bestIdx := 0
	bestScore := -1.0
	for i, sentence := range sentences {
		score := sentenceRelevance(questionTokens, sentence, i)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}

	start := bestIdx - 1
	if start < 0 {
		start = 0
	}
	end := bestIdx + 2
	if end > len(sentences) {
		end = len(sentences)
	}
	excerpt := strings.Join(sentences[start:end], " ")
	if len(excerpt) < minExcerptLength {
		return trimmed
	}
	return excerpt
}

func splitSentences(text string) []string {
	parts := sentenceSplitPattern.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		sentence := strings.TrimSpace(part)
		if len(sentence) < minSentenceLength {
			continue
		}
		out = append(out, sentence)
	}
	return out
}

func sentenceRelevance(questionTokens []string, sentence string, index int) float64 {
	score := matchedTokenFraction(questionTokens, sentence) * 50

	positional := 10 - float64(index)
	if positional > 0 {
		score += positional
	}

	wordCount := len(splitAlphaNumLower(sentence))
	if wordCount >= 10 && wordCount <= 50 {
		score += 15
	}

	if answerIndicatorPattern.MatchString(sentence) {
		score += 20
	}
	return score
}

func matchedTokenFraction(questionTokens []string, sentence string) float64 {
	if len(questionTokens) == 0 {
		return 0
	}
	words := splitAlphaNumLower(sentence)
	matched := 0
	for _, token := range questionTokens {
		if wholeWordCount(words, token) > 0 {
			matched++
		}
	}
	return float64(matched) / float64(len(questionTokens))
}
