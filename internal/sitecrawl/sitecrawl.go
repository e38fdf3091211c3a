// Package sitecrawl visits a resolved company website and harvests contact
// facts from the homepage plus at most one contact/about page.
package sitecrawl

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/intakehq/prospector/internal/analyzer"
	"github.com/intakehq/prospector/internal/browser"
	"github.com/intakehq/prospector/internal/extract"
	"github.com/intakehq/prospector/internal/model"
	"github.com/intakehq/prospector/internal/sitemap"
	"github.com/intakehq/prospector/pkg/pacing"
)

// defaultProbePaths are tried in order when no contact link is visible on the
// homepage. The first path that navigates successfully wins.
var defaultProbePaths = []string{
	"/contact", "/contact-us", "/about", "/about-us", "/get-in-touch", "/reach-us", "/support",
}

// defaultLinkHints match anchor text pointing at a contact or about page.
var defaultLinkHints = []string{
	"contact", "contact us", "about", "about us", "reach us", "get in touch", "support",
}

// addressSelectors locate structured address regions. Tried in order; the
// first plausible text wins over the page-wide line heuristic.
var addressSelectors = []string{"[itemprop='address']", "address", "footer", "[class*='address']"}

// Config tunes the crawler. Zero values get sensible defaults.
type Config struct {
	ProbePaths []string
	LinkHints  []string
	// CompanyName, when set, is checked against homepage text to confirm
	// the site belongs to the company.
	CompanyName string
	// Sitemaps, when set, is the last-resort contact page source after
	// links and path probes fail.
	Sitemaps *sitemap.Locator
}

// Crawler drives one browser session across a company website. Like the
// search providers it uses the session but never owns its lifecycle.
type Crawler struct {
	cfg    Config
	sess   browser.Session
	pace   *pacing.Window
	logger *slog.Logger
}

// New wires a crawler onto an open session.
func New(cfg Config, sess browser.Session, pace *pacing.Window, logger *slog.Logger) *Crawler {
	if len(cfg.ProbePaths) == 0 {
		cfg.ProbePaths = defaultProbePaths
	}
	if len(cfg.LinkHints) == 0 {
		cfg.LinkHints = defaultLinkHints
	}
	if pace == nil {
		pace = pacing.New(0, 0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Crawler{cfg: cfg, sess: sess, pace: pace, logger: logger}
}

// Crawl fetches the homepage, discovers a contact page, and returns the
// union of extracted facts plus whether the homepage mentions the company
// name. Every navigation failure degrades to whatever has been accumulated
// so far; Crawl never fails the company.
func (c *Crawler) Crawl(ctx context.Context, site string) (model.Bundle, bool) {
	var bundle model.Bundle
	verified := false

	if err := c.sess.Navigate(ctx, site); err != nil {
		c.logger.Warn("homepage navigation failed", "url", site, "err", err)
		return bundle, verified
	}
	if err := c.pace.Wait(ctx); err != nil {
		return bundle, verified
	}

	if html, err := c.sess.Content(ctx); err == nil {
		bundle = extract.Bundle(html)
		if c.cfg.CompanyName != "" {
			verified = len(analyzer.Mentions(extract.StripHTML(html), []string{c.cfg.CompanyName})) > 0
		}
	} else {
		c.logger.Warn("homepage content read failed", "url", site, "err", err)
	}

	// A structured address region beats the page-wide line heuristic.
	if addr := c.structuredAddress(ctx); addr != "" {
		bundle.Address = addr
	}
	bundle.Emails = c.mailtoEmails(ctx, bundle.Emails)

	contact := c.contactLink(ctx, site)
	onContactPage := false
	if contact == "" {
		contact, onContactPage = c.probeConventional(ctx, site)
	}
	if contact == "" && c.cfg.Sitemaps != nil {
		if pages, err := c.cfg.Sitemaps.ContactPages(ctx, site, c.cfg.LinkHints); err == nil && len(pages) > 0 {
			contact = pages[0]
		}
	}
	if contact == "" || samePage(contact, site) {
		return bundle, verified
	}

	if !onContactPage {
		if err := c.sess.Navigate(ctx, contact); err != nil {
			c.logger.Warn("contact page navigation failed", "url", contact, "err", err)
			return bundle, verified
		}
		if err := c.pace.Wait(ctx); err != nil {
			return bundle, verified
		}
	}

	html, err := c.sess.Content(ctx)
	if err != nil {
		c.logger.Warn("contact page content read failed", "url", contact, "err", err)
		return bundle, verified
	}
	bundle.Merge(extract.Bundle(html))
	if bundle.Address == "" {
		bundle.Address = c.structuredAddress(ctx)
	}
	bundle.Emails = c.mailtoEmails(ctx, bundle.Emails)

	return bundle, verified
}

// contactLink scans anchors for contact/about text, footer regions first.
// It inspects the already-loaded page only, no navigation.
func (c *Crawler) contactLink(ctx context.Context, base string) string {
	selectors := []string{"footer a[href]", "[role='contentinfo'] a[href]", "a[href]"}
	for _, sel := range selectors {
		els, err := c.sess.Elements(ctx, sel)
		if err != nil {
			continue
		}
		for _, el := range els {
			text := strings.ToLower(strings.TrimSpace(el.Text))
			if text == "" || !c.hinted(text) {
				continue
			}
			full := resolveHref(base, el.Attr("href"))
			if full != "" {
				return full
			}
		}
	}
	return ""
}

// probeConventional navigates to fixed paths under the site root and accepts
// the first that loads. The session is left on the accepted page.
func (c *Crawler) probeConventional(ctx context.Context, site string) (string, bool) {
	u, err := url.Parse(site)
	if err != nil || u.Host == "" {
		return "", false
	}
	root := u.Scheme + "://" + u.Host

	for _, path := range c.cfg.ProbePaths {
		probe := root + path
		if err := c.sess.Navigate(ctx, probe); err != nil {
			c.logger.Debug("contact path probe failed", "url", probe, "err", err)
			continue
		}
		return probe, true
	}
	return "", false
}

// mailtoEmails harvests mailto: anchors into the running email set. A mailto
// link is authoritative even when the address never appears in body text.
func (c *Crawler) mailtoEmails(ctx context.Context, emails []string) []string {
	els, err := c.sess.Elements(ctx, "a[href^='mailto:']")
	if err != nil {
		return emails
	}
	for _, el := range els {
		addr := strings.TrimPrefix(el.Attr("href"), "mailto:")
		if i := strings.Index(addr, "?"); i >= 0 {
			addr = addr[:i]
		}
		addr = strings.ToLower(strings.TrimSpace(addr))
		if !strings.Contains(addr, "@") {
			continue
		}
		dup := false
		for _, e := range emails {
			if e == addr {
				dup = true
				break
			}
		}
		if !dup {
			emails = append(emails, addr)
		}
	}
	return emails
}

func (c *Crawler) structuredAddress(ctx context.Context) string {
	for _, sel := range addressSelectors {
		els, err := c.sess.Elements(ctx, sel)
		if err != nil || len(els) == 0 {
			continue
		}
		text := els[0].Text
		if len(text) <= 15 || len(text) >= 400 {
			continue
		}
		if addr := extract.Address(text); addr != "" {
			return addr
		}
	}
	return ""
}

func (c *Crawler) hinted(text string) bool {
	for _, h := range c.cfg.LinkHints {
		if strings.Contains(text, h) {
			return true
		}
	}
	return false
}

// resolveHref absolutizes href against base and rejects non-http schemes.
func resolveHref(base, href string) string {
	if href == "" || strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	h, err := url.Parse(href)
	if err != nil {
		return ""
	}
	full := b.ResolveReference(h)
	if full.Scheme != "http" && full.Scheme != "https" {
		return ""
	}
	return full.String()
}

func samePage(a, b string) bool {
	return strings.TrimRight(a, "/") == strings.TrimRight(b, "/")
}
