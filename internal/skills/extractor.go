package skills

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type term struct {
	canonical string
	lowered   string
}

// Extractor finds canonical skill mentions in free text. Matching is
// case-insensitive and anchored at word boundaries, so "Pythonic" never
// yields Python while "C++" and "C#" still match exactly.
type Extractor struct {
	terms []term
	rules []derivedRule
}

func NewExtractor(taxonomy []string) *Extractor {
	terms := make([]term, 0, len(taxonomy))
	for _, name := range taxonomy {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		terms = append(terms, term{canonical: name, lowered: strings.ToLower(name)})
	}
	return &Extractor{terms: terms, rules: derivedRules}
}

// Extract scans the given text fragments and returns the canonical names of
// every taxonomy skill mentioned, deduplicated, in taxonomy order. Derived
// family tags are appended when their members are present.
func (e *Extractor) Extract(texts ...string) []string {
	text := strings.ToLower(strings.Join(strings.Fields(strings.Join(texts, " ")), " "))

	seen := make(map[string]bool)
	var found []string

	for _, t := range e.terms {
		if seen[t.canonical] {
			continue
		}
		if containsWord(text, t.lowered) {
			seen[t.canonical] = true
			found = append(found, t.canonical)
		}
	}

	for _, rule := range e.rules {
		if seen[rule.tag] {
			continue
		}
		for _, member := range rule.members {
			if seen[member] {
				seen[rule.tag] = true
				found = append(found, rule.tag)
				break
			}
		}
	}

	return found
}

// containsWord reports whether needle occurs in haystack with no letter or
// digit touching either end of the match. Both strings must already be
// lowercased. This stands in for regexp \b, which cannot anchor terms that
// end in symbols like "C++".
func containsWord(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	for start := 0; start+len(needle) <= len(haystack); {
		idx := strings.Index(haystack[start:], needle)
		if idx < 0 {
			return false
		}
		idx += start
		if boundaryBefore(haystack, idx) && boundaryAfter(haystack, idx+len(needle)) {
			return true
		}
		start = idx + 1
	}
	return false
}

func boundaryBefore(s string, idx int) bool {
	if idx == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:idx])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func boundaryAfter(s string, idx int) bool {
	if idx >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[idx:])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
