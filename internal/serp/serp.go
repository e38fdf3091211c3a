// Package serp searches for a company's official website and harvests any
// contact facts visible on the result page itself.
package serp

import (
	"context"
	"fmt"

	"github.com/intakehq/prospector/internal/model"
)

// maxCandidates bounds how many URLs are handed to the scorer.
const maxCandidates = 20

// Result is one backend's harvest: candidate website URLs in priority order
// plus whatever facts the result page showed directly.
type Result struct {
	Candidates []model.CandidateURL
	Bundle     model.Bundle
	// Source is the provenance tag of the backend that produced the result.
	Source string
}

// Cap truncates the candidate list to the scoring bound.
func (r *Result) Cap() {
	if len(r.Candidates) > maxCandidates {
		r.Candidates = r.Candidates[:maxCandidates]
	}
}

// Provider is a search backend.
type Provider interface {
	Name() string
	Search(ctx context.Context, in model.CompanyInput) (*Result, error)
}

// PrimaryProvider extends Provider with re-extraction from the already
// loaded result page, used after an operator resolves a challenge.
type PrimaryProvider interface {
	Provider
	Harvest(ctx context.Context, in model.CompanyInput) (*Result, error)
}

// ChallengeError signals that the backend's response page was a bot
// interstitial rather than search results.
type ChallengeError struct {
	URL string
}

func (e *ChallengeError) Error() string {
	return fmt.Sprintf("challenge page at %s", e.URL)
}

// Query builds the primary search query. Quoting the company name keeps the
// engine from splitting it into loose terms.
func Query(in model.CompanyInput) string {
	return fmt.Sprintf("%q %s official website contact", in.CompanyName, in.Country)
}

// FallbackQuery omits the word "contact": on the secondary engine it skews
// results toward directories instead of the official site.
func FallbackQuery(in model.CompanyInput) string {
	return fmt.Sprintf("%q %s official website", in.CompanyName, in.Country)
}
