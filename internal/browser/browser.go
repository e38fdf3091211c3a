// Package browser wraps the headless-browser collaborator behind small
// interfaces so the search and crawl stages stay testable without Chrome.
package browser

import (
	"context"
	"time"
)

// Element is a DOM element snapshot: visible text plus its attributes.
type Element struct {
	Text  string
	Attrs map[string]string
}

// Attr returns the named attribute or "".
func (e Element) Attr(name string) string {
	return e.Attrs[name]
}

// Session is one browser tab. The pipeline opens one session per company and
// closes it on completion; navigation calls are the only suspension points.
type Session interface {
	// Navigate loads the URL and waits for the document to be ready.
	Navigate(ctx context.Context, url string) error
	// Content returns the full current HTML.
	Content(ctx context.Context) (string, error)
	// Elements returns snapshots of every element matching the selector.
	Elements(ctx context.Context, selector string) ([]Element, error)
	// Click clicks the first visible element matching the selector.
	Click(ctx context.Context, selector string) error
	// URL reports the current page location.
	URL(ctx context.Context) (string, error)
	Close() error
}

// Launcher creates sessions. The chromedp implementation owns the browser
// process; fakes in tests serve canned HTML.
type Launcher interface {
	NewSession(ctx context.Context) (Session, error)
	Close() error
}

// Config controls the chromedp launcher.
type Config struct {
	Headless   bool
	UserAgent  string
	BlockMedia bool
	NavTimeout time.Duration
}
