package serp

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/intakehq/prospector/internal/model"
	"github.com/intakehq/prospector/pkg/httpclient"
	"github.com/intakehq/prospector/pkg/useragent"
)

// ddgFixture builds a result page large enough to clear the empty-page guard.
func ddgFixture() string {
	var b strings.Builder
	b.WriteString(`<html><body><div id="links">`)
	b.WriteString(`<div class="result"><a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Facme-corp.de%2F&amp;rut=abc">Acme Corp</a>`)
	b.WriteString(`<div class="result__snippet">Acme Corp official site acme-corp.de. Reach us at info@acme-corp.de or +49 30 1234 5678.</div></div>`)
	b.WriteString(`<div class="result"><a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.linkedin.com%2Fcompany%2Facme">Acme on LinkedIn</a></div>`)
	b.WriteString(`<div class="result"><a class="result__a" href="https://duckduckgo.com/feedback">Send feedback</a></div>`)
	for i := 0; i < 200; i++ {
		b.WriteString(`<p>listing filler row with nothing of interest here</p>`)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

func newTestDDG(t *testing.T) *DuckDuckGo {
	t.Helper()
	client := httpclient.New(httpclient.Config{})
	return NewDuckDuckGo(client, useragent.NewPool(nil), slog.Default())
}

func TestDuckDuckGoParse(t *testing.T) {
	res := newTestDDG(t).Parse(ddgFixture())

	if res.Source != model.SourceDuckDuckGo {
		t.Errorf("source = %q", res.Source)
	}
	if len(res.Candidates) == 0 {
		t.Fatal("no candidates parsed")
	}

	// A bare domain in the snippet leads the redirect targets.
	if res.Candidates[0].URL != "https://acme-corp.de" {
		t.Errorf("lead candidate = %q", res.Candidates[0].URL)
	}
	if res.Candidates[0].Origin != model.OriginAISummary {
		t.Errorf("lead origin = %q", res.Candidates[0].Origin)
	}

	var sawRedirectTarget bool
	for _, c := range res.Candidates {
		if c.URL == "https://acme-corp.de/" {
			sawRedirectTarget = true
		}
		if strings.Contains(c.URL, "linkedin.com") {
			t.Errorf("excluded host kept: %q", c.URL)
		}
		if strings.Contains(c.URL, "duckduckgo") {
			t.Errorf("engine self-link kept: %q", c.URL)
		}
	}
	if !sawRedirectTarget {
		t.Errorf("decoded redirect target missing from %v", res.Candidates)
	}

	if len(res.Bundle.Emails) != 1 || res.Bundle.Emails[0] != "info@acme-corp.de" {
		t.Errorf("emails = %v", res.Bundle.Emails)
	}
	if len(res.Bundle.Phones) == 0 {
		t.Error("snippet phone not harvested")
	}
}

func TestDuckDuckGoParseErrorPage(t *testing.T) {
	d := newTestDDG(t)

	for name, html := range map[string]string{
		"error banner": "<html><body>Error getting results" + strings.Repeat(" x", 2000) + "</body></html>",
		"tiny page":    "<html><body>nothing</body></html>",
	} {
		res := d.Parse(html)
		if len(res.Candidates) != 0 || !res.Bundle.Empty() {
			t.Errorf("%s: expected empty result, got %+v", name, res)
		}
		if res.Source != model.SourceDuckDuckGo {
			t.Errorf("%s: source = %q", name, res.Source)
		}
	}
}

func TestDuckDuckGoSearch(t *testing.T) {
	var gotQuery, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(ddgFixture()))
	}))
	defer srv.Close()

	d := newTestDDG(t)
	d.endpoint = srv.URL

	res, err := d.Search(context.Background(), model.CompanyInput{CompanyName: "Acme Corp", Country: "Germany"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res.Candidates) == 0 {
		t.Error("no candidates from live parse")
	}
	if want := `"Acme Corp" Germany official website`; gotQuery != want {
		t.Errorf("query = %q, want %q", gotQuery, want)
	}
	if gotUA == "" {
		t.Error("request sent without a User-Agent")
	}
}

func TestDuckDuckGoSearchBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	d := newTestDDG(t)
	d.endpoint = srv.URL

	if _, err := d.Search(context.Background(), model.CompanyInput{CompanyName: "Acme"}); err == nil {
		t.Fatal("expected error on 429")
	}
}

func TestDuckDuckGoSearchBlocked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", "cloudflare")
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	d := newTestDDG(t)
	d.endpoint = srv.URL

	_, err := d.Search(context.Background(), model.CompanyInput{CompanyName: "Acme"})
	if err == nil {
		t.Fatal("expected error on block page")
	}
	if !strings.Contains(err.Error(), "Cloudflare") {
		t.Errorf("err = %v, want vendor named", err)
	}
}

func TestDecodeRedirect(t *testing.T) {
	cases := []struct {
		href string
		want string
	}{
		{"//duckduckgo.com/l/?uddg=https%3A%2F%2Facme.de%2F&rut=x", "https://acme.de/"},
		{"https://acme.de/contact", "https://acme.de/contact"},
		{"/html/?q=next", ""},
		{"//duckduckgo.com/l/?uddg=javascript%3Aalert(1)", ""},
	}
	for _, tc := range cases {
		if got := decodeRedirect(tc.href); got != tc.want {
			t.Errorf("decodeRedirect(%q) = %q, want %q", tc.href, got, tc.want)
		}
	}
}
