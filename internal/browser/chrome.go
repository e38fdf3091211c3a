package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// blockedPatterns lists subresource URL patterns aborted for performance.
// Images, media, and fonts are never needed for contact extraction.
var blockedPatterns = []string{
	"*.png", "*.jpg", "*.jpeg", "*.gif", "*.webp", "*.svg",
	"*.woff", "*.woff2", "*.ttf", "*.otf",
	"*.mp4", "*.webm", "*.mp3", "*.avi",
}

// Chrome is the chromedp-backed Launcher. One allocator is shared; every
// session is its own tab context.
type Chrome struct {
	cfg      Config
	logger   *slog.Logger
	allocCtx context.Context
	cancel   context.CancelFunc
}

var _ Launcher = (*Chrome)(nil)

// NewChrome starts a browser allocator with the given config.
func NewChrome(cfg Config, logger *slog.Logger) *Chrome {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = 15 * time.Second
	}

	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
		chromedp.NoSandbox,
	}
	if cfg.Headless {
		opts = append(opts, chromedp.Headless)
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
	return &Chrome{cfg: cfg, logger: logger, allocCtx: allocCtx, cancel: cancel}
}

// NewSession opens a fresh tab. Callers must Close it.
func (c *Chrome) NewSession(ctx context.Context) (Session, error) {
	tabCtx, tabCancel := chromedp.NewContext(c.allocCtx)

	actions := []chromedp.Action{network.Enable()}
	if c.cfg.BlockMedia {
		actions = append(actions, network.SetBlockedURLs(blockedPatterns))
	}
	if err := chromedp.Run(tabCtx, actions...); err != nil {
		tabCancel()
		return nil, fmt.Errorf("session init: %w", err)
	}

	return &chromeSession{ctx: tabCtx, cancel: tabCancel, timeout: c.cfg.NavTimeout, logger: c.logger}, nil
}

// Close tears down the allocator and any remaining tabs.
func (c *Chrome) Close() error {
	c.cancel()
	return nil
}

type chromeSession struct {
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
	logger  *slog.Logger
}

var _ Session = (*chromeSession)(nil)

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	runCtx, cancel := s.bound(ctx)
	defer cancel()

	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (s *chromeSession) Content(ctx context.Context) (string, error) {
	runCtx, cancel := s.bound(ctx)
	defer cancel()

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("page content: %w", err)
	}
	return html, nil
}

func (s *chromeSession) Elements(ctx context.Context, selector string) ([]Element, error) {
	runCtx, cancel := s.bound(ctx)
	defer cancel()

	type dto struct {
		Text  string            `json:"text"`
		Attrs map[string]string `json:"attrs"`
	}
	js := fmt.Sprintf(`Array.from(document.querySelectorAll(%q)).map(e => ({
		text: e.innerText || "",
		attrs: Object.fromEntries(Array.from(e.attributes).map(a => [a.name, a.value])),
	}))`, selector)

	var nodes []dto
	if err := chromedp.Run(runCtx, chromedp.Evaluate(js, &nodes)); err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}

	out := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, Element{Text: n.Text, Attrs: n.Attrs})
	}
	return out, nil
}

func (s *chromeSession) Click(ctx context.Context, selector string) error {
	runCtx, cancel := s.bound(ctx)
	defer cancel()

	if err := chromedp.Run(runCtx, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
		return fmt.Errorf("click %q: %w", selector, err)
	}
	return nil
}

func (s *chromeSession) URL(ctx context.Context) (string, error) {
	runCtx, cancel := s.bound(ctx)
	defer cancel()

	var loc string
	if err := chromedp.Run(runCtx, chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("location: %w", err)
	}
	return loc, nil
}

func (s *chromeSession) Close() error {
	s.cancel()
	return nil
}

// bound derives a run context honoring both the caller's cancellation and the
// per-navigation timeout, while staying parented to the tab context chromedp
// requires.
func (s *chromeSession) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithTimeout(s.ctx, s.timeout)
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}
