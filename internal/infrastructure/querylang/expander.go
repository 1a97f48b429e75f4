package querylang

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Voice transcription frequently mangles these; each replacement is a
// case-insensitive whole-word substitution.
var defaultCorrections = map[string]string{
	"ours":     "hours",
	"hrs":      "hours",
	"prise":    "price",
	"coast":    "cost",
	"wat":      "what",
	"ur":       "your",
	"u":        "you",
	"adress":   "address",
	"servises": "services",
	"emergeny": "emergency",
	"appoinment": "appointment",
}

type topicExpansion struct {
	cue       *regexp.Regexp
	expansion string
}

var topicExpansions = []topicExpansion{
	{regexp.MustCompile(`(?i)\b(cost|costs|price|prices|pricing|fee|fees|charge|charges)\b`), "pricing fees rates cost information"},
	{regexp.MustCompile(`(?i)\b(hours|open|opening|close|closing|availability|schedule)\b`), "business hours opening times availability"},
	{regexp.MustCompile(`(?i)\b(emergency|urgent|urgently|asap|immediately)\b`), "emergency urgent immediate service"},
	{regexp.MustCompile(`(?i)\b(service|services|offer|offers|provide|provides)\b`), "services offered available options"},
}

const maxVariants = 5

// Expander normalizes transcription noise and appends topical synonym
// strings. The correction dictionary can be extended from a YAML file.
type Expander struct {
	corrections map[string]string
}

func NewExpander() *Expander {
	corrections := make(map[string]string, len(defaultCorrections))
	for k, v := range defaultCorrections {
		corrections[k] = v
	}
	return &Expander{corrections: corrections}
}

// NewExpanderFromFile layers corrections from a YAML mapping file over
// the built-in dictionary.
func NewExpanderFromFile(path string) (*Expander, error) {
	e := NewExpander()
	if path == "" {
		return e, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corrections file: %w", err)
	}
	var extra map[string]string
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("parse corrections file: %w", err)
	}
	for k, v := range extra {
		e.corrections[strings.ToLower(k)] = v
	}
	return e, nil
}

// Expand returns the original text, one corrected variant and up to
// three topical expansions, deduplicated, capped at five.
func (e *Expander) Expand(text string) []string {
	variants := make([]string, 0, maxVariants)
	seen := make(map[string]struct{}, maxVariants)

	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" || len(variants) >= maxVariants {
			return
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		variants = append(variants, v)
	}

	add(text)
	add(e.correct(text))
	for _, topic := range topicExpansions {
		if topic.cue.MatchString(text) {
			add(topic.expansion)
		}
	}
	return variants
}

func (e *Expander) correct(text string) string {
	words := strings.Fields(text)
	changed := false
	for i, word := range words {
		trimmed := strings.ToLower(strings.Trim(word, ".,!?"))
		if replacement, ok := e.corrections[trimmed]; ok {
			words[i] = replacement
			changed = true
		}
	}
	if !changed {
		return text
	}
	return strings.Join(words, " ")
}
