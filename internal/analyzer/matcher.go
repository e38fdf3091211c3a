// Package analyzer scans page text for term mentions. The pipeline uses it
// to check that a resolved website actually talks about the company it was
// picked for.
package analyzer

import (
	"strings"
	"unicode"
)

// Mention records occurrences of one term within a page.
type Mention struct {
	Term      string   `json:"term"`
	Count     int      `json:"count"`
	Sentences []string `json:"sentences"`
}

// sentence keeps the original and lowercase forms together so the scan
// lowercases each one exactly once.
type sentence struct {
	original string
	lower    string
}

// Mentions scans content for each term, case-insensitive, and returns a
// Mention per term found, with the sentences the term appears in. Terms
// absent from the content produce no entry.
func Mentions(content string, terms []string) []Mention {
	if len(content) == 0 || len(terms) == 0 {
		return nil
	}

	out := make([]Mention, 0, len(terms))
	lowerContent := strings.ToLower(content)
	sentences := splitSentences(content)

	for _, term := range terms {
		lowerTerm := strings.ToLower(term)
		if lowerTerm == "" {
			continue
		}
		count := strings.Count(lowerContent, lowerTerm)
		if count == 0 {
			continue
		}

		var matched []string
		for _, s := range sentences {
			if strings.Contains(s.lower, lowerTerm) {
				matched = append(matched, s.original)
			}
		}
		out = append(out, Mention{Term: term, Count: count, Sentences: matched})
	}
	return out
}

// splitSentences naively splits on '.', '!' and '?', keeping the delimiter
// at the end of each sentence.
func splitSentences(text string) []sentence {
	if len(text) == 0 {
		return nil
	}

	// Roughly one sentence per 50 chars.
	estimated := len(text) / 50
	if estimated < 1 {
		estimated = 1
	}

	out := make([]sentence, 0, estimated)
	start := 0

	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			end := i + 1
			for end < len(text) && unicode.IsSpace(rune(text[end])) {
				end++
			}
			orig := strings.TrimSpace(text[start:end])
			out = append(out, sentence{original: orig, lower: strings.ToLower(orig)})
			start = end
		}
	}

	if start < len(text) {
		orig := strings.TrimSpace(text[start:])
		out = append(out, sentence{original: orig, lower: strings.ToLower(orig)})
	}

	return out
}
