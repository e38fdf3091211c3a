package model

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CompanyInput is one enrichment request. Name is required, the rest is
// optional context that improves website disambiguation.
type CompanyInput struct {
	CompanyName string `json:"company_name"`
	Country     string `json:"country"`
	Sector      string `json:"sector"`
}

// CandidateOrigin records which part of a result page produced a candidate URL.
type CandidateOrigin string

const (
	OriginSearchResult   CandidateOrigin = "search-result"
	OriginAISummary      CandidateOrigin = "ai-summary"
	OriginKnowledgePanel CandidateOrigin = "knowledge-panel"
)

// CandidateURL is a website candidate harvested during search. Candidates are
// transient; only the selected website survives into the result.
type CandidateURL struct {
	URL    string
	Origin CandidateOrigin
}

// ScoredCandidate pairs a candidate with its score. Ordering is by score
// descending; ties keep first-seen order.
type ScoredCandidate struct {
	URL   string
	Score float64
}

// Provenance tags for the Source field.
const (
	SourceGoogle     = "google"
	SourceDuckDuckGo = "duckduckgo"
	SourceWebsite    = "website"
)

// Bundle holds contact facts extracted from one page or source.
type Bundle struct {
	Emails      []string `json:"emails"`
	Phones      []string `json:"phones"`
	Address     string   `json:"address"`
	SocialLinks []string `json:"social_links"`
}

// Empty reports whether the bundle carries no facts at all.
func (b Bundle) Empty() bool {
	return len(b.Emails) == 0 && len(b.Phones) == 0 && b.Address == "" && len(b.SocialLinks) == 0
}

// Merge unions other into b. Sets keep first-seen order; the address is
// filled only if still empty.
func (b *Bundle) Merge(other Bundle) {
	b.Emails = appendUnique(b.Emails, other.Emails, strings.ToLower)
	b.Phones = appendUnique(b.Phones, other.Phones, DigitSignature)
	b.SocialLinks = appendUnique(b.SocialLinks, other.SocialLinks, strings.ToLower)
	if b.Address == "" {
		b.Address = other.Address
	}
}

// CompanyResult is the enrichment outcome for one company. It is created once
// per company, filled additively by the pipeline stages, and finalized before
// being handed to the caller. Never shared across companies.
type CompanyResult struct {
	ID                string    `json:"id"`
	CompanyName       string    `json:"company_name"`
	Country           string    `json:"country"`
	Sector            string    `json:"sector"`
	Website           string    `json:"website"`
	WebsiteConfidence float64   `json:"website_confidence"`
	Emails            []string  `json:"emails"`
	Phones            []string  `json:"phones"`
	Address           string    `json:"address"`
	SocialLinks       []string  `json:"social_links"`
	Source            []string  `json:"source"`
	CreatedAt         time.Time `json:"created_at"`
}

// NewResult initializes an empty result from the input fields.
func NewResult(in CompanyInput) *CompanyResult {
	return &CompanyResult{
		ID:          uuid.New().String(),
		CompanyName: in.CompanyName,
		Country:     in.Country,
		Sector:      in.Sector,
		CreatedAt:   time.Now().UTC(),
	}
}

// MergeBundle unions the bundle's facts into the result.
func (r *CompanyResult) MergeBundle(b Bundle) {
	r.Emails = appendUnique(r.Emails, b.Emails, strings.ToLower)
	r.Phones = appendUnique(r.Phones, b.Phones, DigitSignature)
	r.SocialLinks = appendUnique(r.SocialLinks, b.SocialLinks, strings.ToLower)
	if r.Address == "" {
		r.Address = b.Address
	}
}

// AddSource appends a provenance tag unless already present.
func (r *CompanyResult) AddSource(tag string) {
	for _, s := range r.Source {
		if s == tag {
			return
		}
	}
	r.Source = append(r.Source, tag)
}

// Finalize normalizes the result in place: deduplicates the contact sets by
// their canonical keys, collapses address whitespace, and rounds the website
// confidence to two decimals.
func (r *CompanyResult) Finalize() {
	r.Emails = dedupeBy(r.Emails, strings.ToLower)
	for i, e := range r.Emails {
		r.Emails[i] = strings.ToLower(e)
	}
	r.Phones = dedupeBy(r.Phones, DigitSignature)
	r.SocialLinks = dedupeBy(r.SocialLinks, strings.ToLower)
	r.Address = strings.Join(strings.Fields(r.Address), " ")
	r.WebsiteConfidence = math.Round(r.WebsiteConfidence*100) / 100
}

// DigitSignature strips everything but digits from a phone number. It is the
// canonical dedup key: two formattings of the same number share a signature.
func DigitSignature(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func dedupeBy(items []string, key func(string) string) []string {
	if len(items) == 0 {
		return items
	}
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, it := range items {
		k := key(it)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
	}
	return out
}

func appendUnique(dst, src []string, key func(string) string) []string {
	seen := make(map[string]struct{}, len(dst)+len(src))
	for _, d := range dst {
		seen[key(d)] = struct{}{}
	}
	for _, s := range src {
		k := key(s)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		dst = append(dst, s)
	}
	return dst
}
