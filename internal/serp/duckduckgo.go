package serp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/intakehq/prospector/internal/bypass"
	"github.com/intakehq/prospector/internal/extract"
	"github.com/intakehq/prospector/internal/model"
	"github.com/intakehq/prospector/internal/score"
	"github.com/intakehq/prospector/pkg/httpclient"
	"github.com/intakehq/prospector/pkg/useragent"
)

const ddgEndpoint = "https://html.duckduckgo.com/html/"

// DDG wraps result links in redirects carrying the target in the uddg param.
var uddgPattern = regexp.MustCompile(`uddg=([^&"']+)`)

// DuckDuckGo is the secondary backend: a plain GET against the HTML-only
// endpoint, no browser involved, which rarely trips bot defenses. Safe to
// share across workers.
type DuckDuckGo struct {
	client   *httpclient.Client
	agents   *useragent.Pool
	logger   *slog.Logger
	endpoint string
}

var _ Provider = (*DuckDuckGo)(nil)

// NewDuckDuckGo builds the fallback backend.
func NewDuckDuckGo(client *httpclient.Client, agents *useragent.Pool, logger *slog.Logger) *DuckDuckGo {
	if logger == nil {
		logger = slog.Default()
	}
	if agents == nil {
		agents = useragent.NewPool(nil)
	}
	return &DuckDuckGo{client: client, agents: agents, logger: logger, endpoint: ddgEndpoint}
}

func (d *DuckDuckGo) Name() string {
	return model.SourceDuckDuckGo
}

// Search issues the fallback query and parses the static result HTML.
// Failures are non-fatal to the company; callers treat an error here as
// backend exhaustion.
func (d *DuckDuckGo) Search(ctx context.Context, in model.CompanyInput) (*Result, error) {
	endpoint := d.endpoint + "?q=" + url.QueryEscape(FallbackQuery(in))

	resp, err := d.client.Get(ctx, endpoint, map[string]string{
		"User-Agent":      d.agents.Next(),
		"Accept":          "text/html,application/xhtml+xml",
		"Accept-Language": "en-US,en;q=0.9",
	})
	if err != nil {
		return nil, fmt.Errorf("duckduckgo search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if vendor, ok := bypass.Identify(bypass.Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}); ok {
			d.logger.Warn("duckduckgo blocked", "vendor", vendor, "status", resp.StatusCode)
			return nil, fmt.Errorf("duckduckgo search: blocked by %s (status %d)", vendor, resp.StatusCode)
		}
		return nil, fmt.Errorf("duckduckgo search: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo search: %w", err)
	}

	return d.Parse(string(body)), nil
}

// Parse extracts candidates and facts from a DuckDuckGo HTML result page.
func (d *DuckDuckGo) Parse(html string) *Result {
	res := &Result{Source: model.SourceDuckDuckGo}

	// The engine serves a short error page instead of results when it is
	// unhappy; treat it as an empty harvest, not an error.
	if strings.Contains(html, "Error getting results") || len(html) < 3000 {
		d.logger.Warn("duckduckgo returned error or empty page", "size", len(html))
		return res
	}

	for _, target := range resultLinks(html) {
		res.Candidates = appendCandidate(res.Candidates, target, model.OriginSearchResult)
	}

	res.Bundle = extract.Bundle(html)

	// Bare domains in snippets go ahead of redirect links: when present they
	// usually name the official site directly.
	if domains := extract.Domains(html); len(domains) > 0 {
		lead := make([]model.CandidateURL, 0, len(domains))
		for _, dom := range domains {
			lead = appendCandidate(lead, dom, model.OriginAISummary)
		}
		for _, c := range res.Candidates {
			lead = appendCandidate(lead, c.URL, c.Origin)
		}
		res.Candidates = lead
	}

	res.Cap()
	return res
}

// resultLinks decodes uddg redirect targets, preferring the anchor structure
// and falling back to a raw scan of the page.
func resultLinks(html string) []string {
	var raw []string

	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		doc.Find("a.result__a[href]").Each(func(_ int, s *goquery.Selection) {
			if href, ok := s.Attr("href"); ok {
				raw = append(raw, href)
			}
		})
	}
	if len(raw) == 0 {
		for _, m := range uddgPattern.FindAllStringSubmatch(html, -1) {
			raw = append(raw, "?uddg="+m[1])
		}
	}

	var out []string
	for _, href := range raw {
		target := decodeRedirect(href)
		if target == "" {
			continue
		}
		lower := strings.ToLower(target)
		if strings.Contains(lower, "duckduckgo") || strings.Contains(target, "subject=") || strings.Contains(target, "feedback") {
			continue
		}
		u, err := url.Parse(target)
		if err != nil || score.ExcludedHost(u.Hostname()) {
			continue
		}
		out = append(out, target)
	}
	return out
}

// decodeRedirect unwraps //duckduckgo.com/l/?uddg=<encoded> links; direct
// http targets pass through.
func decodeRedirect(href string) string {
	if i := strings.Index(href, "uddg="); i >= 0 {
		enc := href[i+len("uddg="):]
		if j := strings.IndexAny(enc, "&\"'"); j >= 0 {
			enc = enc[:j]
		}
		decoded, err := url.QueryUnescape(enc)
		if err != nil || !strings.HasPrefix(decoded, "http") {
			return ""
		}
		return decoded
	}
	if strings.HasPrefix(href, "http") {
		return href
	}
	return ""
}
