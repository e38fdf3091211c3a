package serp

import (
	"context"
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/intakehq/prospector/internal/browser"
)

// fakeSession serves canned HTML and answers selector queries with goquery,
// standing in for a live chromedp tab.
type fakeSession struct {
	html      string
	url       string
	navErr    error
	navigated []string
}

var _ browser.Session = (*fakeSession)(nil)

func (f *fakeSession) Navigate(ctx context.Context, url string) error {
	f.navigated = append(f.navigated, url)
	if f.navErr != nil {
		return f.navErr
	}
	f.url = url
	return nil
}

func (f *fakeSession) Content(ctx context.Context) (string, error) {
	return f.html, nil
}

func (f *fakeSession) Elements(ctx context.Context, selector string) ([]browser.Element, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(f.html))
	if err != nil {
		return nil, err
	}

	var out []browser.Element
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		attrs := map[string]string{}
		for _, n := range s.Nodes {
			for _, a := range n.Attr {
				attrs[a.Key] = a.Val
			}
		}
		out = append(out, browser.Element{Text: strings.TrimSpace(s.Text()), Attrs: attrs})
	})
	return out, nil
}

func (f *fakeSession) Click(ctx context.Context, selector string) error {
	return errors.New("nothing to click")
}

func (f *fakeSession) URL(ctx context.Context) (string, error) {
	return f.url, nil
}

func (f *fakeSession) Close() error { return nil }
