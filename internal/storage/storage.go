// Package storage persists enrichment results behind a pluggable backend.
package storage

import (
	"context"
	"time"

	"github.com/intakehq/prospector/internal/model"
)

// Filter allows querying for specific results.
type Filter struct {
	CompanyName string
	// Source matches results carrying this provenance tag.
	Source string
	// Resolved filters on whether a website was picked.
	Resolved *bool
	Since    *time.Time
	Limit    int
	Offset   int
}

// Matches reports whether a result passes the non-paging filter fields. The
// file-backed backends filter in memory with it; the SQL backends push the
// equivalent predicates into the query.
func (f Filter) Matches(r *model.CompanyResult) bool {
	if f.CompanyName != "" && r.CompanyName != f.CompanyName {
		return false
	}
	if f.Resolved != nil && (r.Website != "") != *f.Resolved {
		return false
	}
	if f.Since != nil && r.CreatedAt.Before(*f.Since) {
		return false
	}
	if f.Source != "" {
		found := false
		for _, s := range r.Source {
			if s == f.Source {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Page applies offset and limit to an already filtered, ordered slice.
func (f Filter) Page(results []*model.CompanyResult) []*model.CompanyResult {
	if f.Offset > 0 {
		if f.Offset >= len(results) {
			return []*model.CompanyResult{}
		}
		results = results[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(results) {
		results = results[:f.Limit]
	}
	return results
}

// Backend defines the interface for storing and querying company results.
type Backend interface {
	Save(ctx context.Context, result *model.CompanyResult) error
	Query(ctx context.Context, filter Filter) ([]*model.CompanyResult, error)
	Close() error
}
