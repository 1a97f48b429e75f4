// Package querylang holds the pattern-based question classifier and the
// query expander used ahead of hybrid search. Both implement core ports
// so alternative strategies can be swapped in for testing or
// localization.
package querylang

import (
	"regexp"

	"github.com/agentkb/answer-engine/internal/core/domain"
)

type rule struct {
	pattern *regexp.Regexp
	intent  domain.QueryIntent
	precise bool
}

// Rules are evaluated top to bottom; the first match wins. Factoid must
// precede definition so "what time" is not swallowed by "what is".
var classifierRules = []rule{
	{regexp.MustCompile(`(?i)\b(who|when|where)\b|what time|which location`), domain.IntentFactoid, true},
	{regexp.MustCompile(`(?i)what (is|are)\b|tell me about|describe|explain`), domain.IntentDefinition, false},
	{regexp.MustCompile(`(?i)how (to|do|can)\b|steps to|process`), domain.IntentProcedural, false},
	{regexp.MustCompile(`(?i)\b(services|products|options|list|types|kinds)\b`), domain.IntentList, false},
	{regexp.MustCompile(`(?i)^\s*(do you|can you|is|are|does)\b`), domain.IntentBoolean, true},
}

// Classifier assigns a coarse intent to a question using ordered pattern
// rules.
type Classifier struct{}

func NewClassifier() *Classifier {
	return &Classifier{}
}

func (c *Classifier) Classify(text string) domain.Classification {
	for _, r := range classifierRules {
		if r.pattern.MatchString(text) {
			return domain.Classification{Intent: r.intent, PreciseExtraction: r.precise}
		}
	}
	return domain.Classification{Intent: domain.IntentGeneral, PreciseExtraction: false}
}
