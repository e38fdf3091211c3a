// Package challenge detects bot-verification interstitials on search result
// pages and coordinates the manual-resolution pause.
package challenge

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/intakehq/prospector/internal/browser"
)

// Policy selects what happens when a challenge page is detected.
type Policy string

const (
	// PolicyFallback switches to the secondary search backend. Default:
	// a direct HTTP backend rarely trips bot defenses, so it beats waiting
	// on a human.
	PolicyFallback Policy = "fallback"
	// PolicyPause blocks until an operator resolves the challenge in the
	// live browser session, then retries extraction on the same page.
	PolicyPause Policy = "pause"
)

// A genuine result page is rarely under this size; challenge interstitials
// almost always are.
const minGenuineHTMLSize = 20000

// WidgetSelectors match known challenge widgets in the DOM.
var WidgetSelectors = []string{".g-recaptcha", "#captcha-form", "iframe[src*='recaptcha']"}

// OrganicSelector matches organic result containers; zero such containers on
// a page carrying challenge markers is a strong block signal.
const OrganicSelector = "div.g"

// Page is the snapshot Detect evaluates.
type Page struct {
	HTML         string
	WidgetCount  int
	OrganicCount int
}

// Detect combines signals: a challenge marker alone is not enough, it must
// coincide with a widget, an implausibly small page, or zero organic results.
func Detect(p Page) bool {
	lower := strings.ToLower(p.HTML)
	if !strings.Contains(lower, "recaptcha") && !strings.Contains(lower, "unusual traffic") {
		return false
	}
	if p.WidgetCount > 0 {
		return true
	}
	if len(p.HTML) < minGenuineHTMLSize {
		return true
	}
	if p.OrganicCount == 0 {
		return true
	}
	return false
}

// Snapshot collects the detection signals from a live session. Selector
// failures degrade to zero counts; the size heuristic still applies.
func Snapshot(ctx context.Context, sess browser.Session) (Page, error) {
	html, err := sess.Content(ctx)
	if err != nil {
		return Page{}, err
	}

	p := Page{HTML: html}
	for _, sel := range WidgetSelectors {
		if els, err := sess.Elements(ctx, sel); err == nil {
			p.WidgetCount += len(els)
		}
	}
	if els, err := sess.Elements(ctx, OrganicSelector); err == nil {
		p.OrganicCount = len(els)
	}
	return p, nil
}

// Event records one challenge encounter for the operator follow-up report.
type Event struct {
	ID      string    `json:"id"`
	Company string    `json:"company"`
	URL     string    `json:"url"`
	At      time.Time `json:"at"`
}

// Log is the process-wide challenge log. It is created at batch start,
// injected into workers, appended concurrently, and drained once at batch
// end for the side-channel report.
type Log struct {
	mu     sync.Mutex
	events []Event
}

func NewLog() *Log {
	return &Log{}
}

// Record appends an event. Safe for concurrent use.
func (l *Log) Record(company, url string) Event {
	ev := Event{
		ID:      uuid.New().String(),
		Company: company,
		URL:     url,
		At:      time.Now().UTC(),
	}
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
	return ev
}

// Len reports how many events have been recorded.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// Drain returns all events and clears the log.
func (l *Log) Drain() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.events
	l.events = nil
	return out
}
