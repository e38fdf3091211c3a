// Package sitemap discovers contact pages through a site's sitemap when
// neither visible links nor conventional paths turn one up.
package sitemap

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	parser "github.com/oxffaa/gopher-parse-sitemap"
	"github.com/temoto/robotstxt"

	"github.com/intakehq/prospector/pkg/httpclient"
	"github.com/intakehq/prospector/pkg/useragent"
)

const (
	maxSitemaps = 3
	maxNesting  = 2
	maxURLs     = 500
	maxBody     = 2 << 20
)

// Locator fetches robots.txt and sitemap XML over plain HTTP and filters the
// listed URLs for contact-ish paths. Safe to share across workers.
type Locator struct {
	client *httpclient.Client
	agents *useragent.Pool
	logger *slog.Logger
}

// NewLocator builds a locator on the direct HTTP client.
func NewLocator(client *httpclient.Client, agents *useragent.Pool, logger *slog.Logger) *Locator {
	if agents == nil {
		agents = useragent.NewPool(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Locator{client: client, agents: agents, logger: logger}
}

// ContactPages returns URLs on the site whose path mentions one of the
// hints, in sitemap order, capped at three.
func (l *Locator) ContactPages(ctx context.Context, site string, hints []string) ([]string, error) {
	u, err := url.Parse(site)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid site url: %q", site)
	}
	root := u.Scheme + "://" + u.Host

	maps := l.sitemapURLs(ctx, root)
	if len(maps) > maxSitemaps {
		maps = maps[:maxSitemaps]
	}

	var urls []string
	for _, m := range maps {
		found, err := l.fetchSitemap(ctx, m, 0)
		if err != nil {
			l.logger.Debug("sitemap fetch failed", "url", m, "err", err)
			continue
		}
		urls = append(urls, found...)
		if len(urls) >= maxURLs {
			urls = urls[:maxURLs]
			break
		}
	}

	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	var out []string
	for _, raw := range urls {
		p, err := url.Parse(raw)
		if err != nil {
			continue
		}
		if strings.TrimPrefix(strings.ToLower(p.Host), "www.") != host {
			continue
		}
		if hintedPath(p.Path, hints) {
			out = append(out, raw)
			if len(out) == 3 {
				break
			}
		}
	}
	return out, nil
}

// sitemapURLs reads the Sitemap directives from robots.txt, falling back to
// the conventional /sitemap.xml location.
func (l *Locator) sitemapURLs(ctx context.Context, root string) []string {
	fallback := []string{root + "/sitemap.xml"}

	body, err := l.fetch(ctx, root+"/robots.txt")
	if err != nil {
		return fallback
	}
	data, err := robotstxt.FromBytes(body)
	if err != nil || len(data.Sitemaps) == 0 {
		return fallback
	}
	return data.Sitemaps
}

// fetchSitemap parses a sitemap, recursing into index files.
func (l *Locator) fetchSitemap(ctx context.Context, sitemapURL string, depth int) ([]string, error) {
	if depth >= maxNesting {
		return nil, fmt.Errorf("sitemap nesting too deep: %s", sitemapURL)
	}

	body, err := l.fetch(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}

	var urls []string
	err = parser.Parse(bytes.NewReader(body), func(e parser.Entry) error {
		urls = append(urls, e.GetLocation())
		return nil
	})
	if err == nil && len(urls) > 0 {
		return urls, nil
	}

	// Index files parse as zero entries; try the nested maps.
	var nested []string
	indexErr := parser.ParseIndex(bytes.NewReader(body), func(e parser.IndexEntry) error {
		nested = append(nested, e.GetLocation())
		return nil
	})
	if indexErr != nil || len(nested) == 0 {
		return nil, fmt.Errorf("not a sitemap or index: %s", sitemapURL)
	}

	if len(nested) > maxSitemaps {
		nested = nested[:maxSitemaps]
	}
	for _, n := range nested {
		found, err := l.fetchSitemap(ctx, n, depth+1)
		if err != nil {
			l.logger.Debug("nested sitemap fetch failed", "url", n, "err", err)
			continue
		}
		urls = append(urls, found...)
	}
	return urls, nil
}

func (l *Locator) fetch(ctx context.Context, u string) ([]byte, error) {
	resp, err := l.client.Get(ctx, u, map[string]string{"User-Agent": l.agents.Next()})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("get %s: status %d", u, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBody))
}

// hintedPath matches hints against the path with word separators collapsed,
// so "contact us" finds /contact-us and /contact_us alike.
func hintedPath(path string, hints []string) bool {
	norm := strings.NewReplacer("-", "", "_", "", "/", "").Replace(strings.ToLower(path))
	for _, h := range hints {
		h = strings.ReplaceAll(strings.ToLower(h), " ", "")
		if h != "" && strings.Contains(norm, h) {
			return true
		}
	}
	return false
}
