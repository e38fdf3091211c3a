// Package pipeline runs the per-company enrichment flow: search, website
// scoring, site crawl, and result finalization, across a bounded worker pool.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/intakehq/prospector/internal/browser"
	"github.com/intakehq/prospector/internal/challenge"
	"github.com/intakehq/prospector/internal/metrics"
	"github.com/intakehq/prospector/internal/model"
	"github.com/intakehq/prospector/internal/score"
	"github.com/intakehq/prospector/internal/serp"
	"github.com/intakehq/prospector/internal/sitecrawl"
	"github.com/intakehq/prospector/internal/sitemap"
	"github.com/intakehq/prospector/pkg/pacing"
)

// Config provides parameters for the enrichment run.
type Config struct {
	// Workers bounds how many companies are in flight at once. Each worker
	// owns one browser session at a time.
	Workers int
	// DelayMin/DelayMax set the per-worker jitter window between navigations.
	DelayMin time.Duration
	DelayMax time.Duration
	// Policy decides what happens when the primary backend serves a
	// challenge page.
	Policy challenge.Policy
	// Sitemaps, when set, lets the site crawl fall back to sitemap-listed
	// contact pages.
	Sitemaps *sitemap.Locator
}

// Pipeline coordinates enrichment across companies. One Pipeline per run.
type Pipeline struct {
	cfg        Config
	launcher   browser.Launcher
	secondary  serp.Provider
	challenges *challenge.Log
	resolver   challenge.Resolver
	logger     *slog.Logger
}

// New creates a pipeline. The secondary provider may be nil, which disables
// the fallback backend.
func New(cfg Config, launcher browser.Launcher, secondary serp.Provider, log *challenge.Log, resolver challenge.Resolver, logger *slog.Logger) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if log == nil {
		log = challenge.NewLog()
	}
	if resolver == nil {
		resolver = challenge.AutoResolver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:        cfg,
		launcher:   launcher,
		secondary:  secondary,
		challenges: log,
		resolver:   resolver,
		logger:     logger,
	}
}

// Challenges exposes the shared challenge log for the end-of-run report.
func (p *Pipeline) Challenges() *challenge.Log {
	return p.challenges
}

// Run enriches every company and returns results in input order, not
// completion order. A company is never skipped and never aborts the batch:
// the worst outcome is a result carrying only the input fields.
func (p *Pipeline) Run(ctx context.Context, companies []model.CompanyInput) []*model.CompanyResult {
	results := make([]*model.CompanyResult, len(companies))

	g := new(errgroup.Group)
	g.SetLimit(p.cfg.Workers)
	for i, in := range companies {
		g.Go(func() error {
			results[i] = p.enrichOne(ctx, in)
			return nil
		})
	}
	// Workers contain their own failures; Wait only synchronizes.
	_ = g.Wait()

	for i, in := range companies {
		if results[i] == nil {
			results[i] = model.NewResult(in)
			results[i].Finalize()
		}
	}
	return results
}

// enrichOne is the company boundary: every failure inside it degrades to a
// partial result.
func (p *Pipeline) enrichOne(ctx context.Context, in model.CompanyInput) *model.CompanyResult {
	started := time.Now()
	res := model.NewResult(in)
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("enrichment panic", "company", in.CompanyName, "panic", r)
		}
		res.Finalize()
		metrics.RecordCompany(res, time.Since(started))
	}()

	p.logger.Info("processing company", "company", in.CompanyName, "country", in.Country)

	sess, err := p.launcher.NewSession(ctx)
	if err != nil {
		p.logger.Error("browser session", "company", in.CompanyName, "err", err)
		return res
	}
	defer sess.Close()

	pace := pacing.New(p.cfg.DelayMin, p.cfg.DelayMax)
	strat := &serp.Strategy{
		Primary:   serp.NewGoogle(sess, pace, p.logger),
		Secondary: p.secondary,
		Policy:    p.cfg.Policy,
		Log:       p.challenges,
		Resolver:  p.resolver,
		Logger:    p.logger,
	}

	sr, err := strat.Run(ctx, in)
	if err != nil {
		p.logger.Warn("search exhausted", "company", in.CompanyName, "err", err)
		return res
	}

	res.MergeBundle(sr.Bundle)
	if !sr.Bundle.Empty() {
		res.AddSource(sr.Source)
	}

	if len(sr.Candidates) > 0 {
		website, conf := score.PickBest(sr.Candidates, in.CompanyName, in.Country)
		res.Website = website
		res.WebsiteConfidence = conf
		if website != "" {
			res.AddSource(sr.Source)
		}
	}

	if res.Website != "" {
		if err := pace.Wait(ctx); err != nil {
			return res
		}
		crawler := sitecrawl.New(sitecrawl.Config{
			CompanyName: in.CompanyName,
			Sitemaps:    p.cfg.Sitemaps,
		}, sess, pace, p.logger)
		bundle, verified := crawler.Crawl(ctx, res.Website)
		res.MergeBundle(bundle)
		if !bundle.Empty() {
			res.AddSource(model.SourceWebsite)
		}
		if verified && res.WebsiteConfidence > 0 {
			res.WebsiteConfidence = clamp(res.WebsiteConfidence + 0.15)
		}
	}

	return res
}

func clamp(c float64) float64 {
	if c > 1 {
		return 1
	}
	return c
}
