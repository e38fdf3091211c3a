package serp

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/intakehq/prospector/internal/browser"
	"github.com/intakehq/prospector/internal/challenge"
	"github.com/intakehq/prospector/internal/extract"
	"github.com/intakehq/prospector/internal/model"
	"github.com/intakehq/prospector/internal/score"
	"github.com/intakehq/prospector/pkg/pacing"
)

// knowledgePanelSelectors are tried in priority order; the first non-empty
// region wins for each fact.
var knowledgePanelSelectors = []string{
	"[data-attrid='kc:/location/location:address']",
	"[data-attrid='og:website']",
	".knowledge-panel",
	"[role='complementary']",
	".kp-wholepage",
}

// consentSelectors dismiss the cookie popup Google shows to fresh sessions.
var consentSelectors = []string{
	"#L2AGLb",
	"button[aria-label*='Accept']",
	"form[action*='consent'] button",
}

// Google queries the primary backend through a live browser session. One
// Google instance per company; it owns no session lifecycle, only uses it.
type Google struct {
	sess   browser.Session
	pace   *pacing.Window
	logger *slog.Logger
}

var _ PrimaryProvider = (*Google)(nil)

// NewGoogle wires a provider onto an open session.
func NewGoogle(sess browser.Session, pace *pacing.Window, logger *slog.Logger) *Google {
	if logger == nil {
		logger = slog.Default()
	}
	if pace == nil {
		pace = pacing.New(0, 0)
	}
	return &Google{sess: sess, pace: pace, logger: logger}
}

func (g *Google) Name() string {
	return model.SourceGoogle
}

// Search navigates to the result page, dismisses the consent popup, and
// harvests. A detected challenge page surfaces as *ChallengeError so the
// strategy can apply its policy; the page stays loaded for a pause-and-retry.
func (g *Google) Search(ctx context.Context, in model.CompanyInput) (*Result, error) {
	searchURL := "https://www.google.com/search?q=" + url.QueryEscape(Query(in))

	if err := g.sess.Navigate(ctx, searchURL); err != nil {
		return nil, fmt.Errorf("google search: %w", err)
	}
	g.dismissConsent(ctx)
	if err := g.pace.Wait(ctx); err != nil {
		return nil, err
	}

	page, err := challenge.Snapshot(ctx, g.sess)
	if err != nil {
		return nil, fmt.Errorf("google snapshot: %w", err)
	}
	if challenge.Detect(page) {
		loc, locErr := g.sess.URL(ctx)
		if locErr != nil {
			loc = searchURL
		}
		return nil, &ChallengeError{URL: loc}
	}

	return g.harvest(ctx, page.HTML)
}

// Harvest re-extracts from whatever page the session currently shows. Called
// after an operator resolved a challenge in the live browser.
func (g *Google) Harvest(ctx context.Context, in model.CompanyInput) (*Result, error) {
	html, err := g.sess.Content(ctx)
	if err != nil {
		return nil, fmt.Errorf("google harvest: %w", err)
	}
	return g.harvest(ctx, html)
}

func (g *Google) harvest(ctx context.Context, html string) (*Result, error) {
	res := &Result{Source: model.SourceGoogle}

	kp := g.knowledgePanel(ctx)

	// Organic anchors first: tie-breaks in scoring favor first-seen order,
	// so the panel website leads, then organic links, then AI-summary text.
	if kp.website != "" {
		res.Candidates = append(res.Candidates, model.CandidateURL{URL: kp.website, Origin: model.OriginKnowledgePanel})
	}
	for _, href := range g.organicLinks(ctx) {
		res.Candidates = appendCandidate(res.Candidates, href, model.OriginSearchResult)
	}
	for _, d := range extract.Domains(html) {
		res.Candidates = appendCandidate(res.Candidates, d, model.OriginAISummary)
	}

	// Knowledge-panel facts take priority over regex finds in the page body.
	kpBundle := model.Bundle{Address: kp.address}
	if kp.phone != "" {
		kpBundle.Phones = []string{kp.phone}
	}
	kpBundle.Merge(extract.Bundle(html))
	res.Bundle = kpBundle

	res.Cap()
	return res, nil
}

type panelFacts struct {
	website string
	phone   string
	address string
}

// knowledgePanel pulls directly displayed facts from the sidebar region.
// Everything here is best-effort: a missing panel yields empty facts.
func (g *Google) knowledgePanel(ctx context.Context) panelFacts {
	var facts panelFacts

	for _, sel := range knowledgePanelSelectors {
		els, err := g.sess.Elements(ctx, sel)
		if err != nil || len(els) == 0 {
			continue
		}
		text := els[0].Text
		if text == "" {
			continue
		}
		if facts.address == "" {
			facts.address = extract.Address(text)
		}
		if facts.phone == "" {
			if phones := extract.Phones(text); len(phones) > 0 {
				facts.phone = phones[0]
			}
		}
	}

	// The panel's website link: prefer the shortest eligible host, which is
	// almost always the bare official domain.
	els, err := g.sess.Elements(ctx, "a[href^='http']")
	if err != nil {
		return facts
	}
	bestHost := ""
	for _, el := range els {
		href := el.Attr("href")
		if href == "" || strings.Contains(href, "google") || strings.Contains(href, "maps") {
			continue
		}
		u, err := url.Parse(href)
		if err != nil {
			continue
		}
		host := strings.ToLower(u.Hostname())
		if host == "" || score.ExcludedHost(host) {
			continue
		}
		if facts.website == "" || len(host) < len(bestHost) {
			facts.website = href
			bestHost = host
		}
	}
	return facts
}

// organicLinks enumerates outbound result anchors in page order.
func (g *Google) organicLinks(ctx context.Context) []string {
	els, err := g.sess.Elements(ctx, "a[href^='http']")
	if err != nil {
		g.logger.Warn("organic link harvest failed", "err", err)
		return nil
	}

	var out []string
	for _, el := range els {
		href := el.Attr("href")
		if href == "" || strings.Contains(href, "google.com") || strings.Contains(href, "accounts.google") {
			continue
		}
		u, err := url.Parse(href)
		if err != nil {
			continue
		}
		if score.ExcludedHost(u.Hostname()) {
			continue
		}
		out = append(out, href)
	}
	return out
}

func (g *Google) dismissConsent(ctx context.Context) {
	for _, sel := range consentSelectors {
		if err := g.sess.Click(ctx, sel); err == nil {
			g.logger.Debug("consent popup dismissed", "selector", sel)
			return
		}
	}
}

func appendCandidate(list []model.CandidateURL, rawURL string, origin model.CandidateOrigin) []model.CandidateURL {
	for _, c := range list {
		if c.URL == rawURL {
			return list
		}
	}
	return append(list, model.CandidateURL{URL: rawURL, Origin: origin})
}
