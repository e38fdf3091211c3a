// Package score ranks candidate URLs by how likely they are to be a
// company's official website.
package score

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/intakehq/prospector/internal/model"
)

// RejectScore marks a candidate on an excluded host. It is lower than any
// score an acceptable candidate can accumulate, so excluded hosts are never
// selected even when nothing else is available.
const RejectScore = -1000.0

// excludedHosts are domains that can never be an official company website:
// social networks, encyclopedias, press-release wires, business directories,
// news outlets, and the search engines themselves.
var excludedHosts = []string{
	"linkedin.com", "facebook.com", "fb.com", "twitter.com", "x.com",
	"crunchbase.com", "wikipedia.org", "wikipedia.com", "wikimedia.org",
	"youtube.com", "instagram.com", "pinterest.com", "tiktok.com",
	"reddit.com", "medium.com", "slideshare.net",
	"bloomberg.com", "reuters.com", "bbc.com", "cnn.com", "nytimes.com",
	"theguardian.com", "forbes.com", "techcrunch.com",
	"businesswire.com", "prnewswire.com", "press-release",
	"news.", "blog.",
	"zoominfo.com", "glassdoor.com", "craft.co", "datanyze.com",
	"indiamart.com", "dial4trade.com", "zaubacorp.com", "cleartax.in",
	"salezshark.com", "gust.com", "emis.com", "f6s.com",
	"duckduckgo.com", "google.com", "w3.org",
}

// countryFragments are short country-code hints that lend a small boost when
// they appear in the host.
var countryFragments = []string{"uk", "de", "fr", "in", "ae"}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]`)

// ExcludedHost reports whether the host belongs to the fixed exclusion set,
// either by substring or as a suffix domain.
func ExcludedHost(host string) bool {
	host = strings.ToLower(host)
	for _, ex := range excludedHosts {
		if strings.Contains(host, ex) || strings.HasSuffix(host, "."+ex) {
			return true
		}
	}
	return false
}

// Slug reduces a company name to its alphanumeric core, capped at 15
// characters, for substring matching against hosts.
func Slug(companyName string) string {
	s := nonAlnum.ReplaceAllString(strings.ToLower(companyName), "")
	if len(s) > 15 {
		s = s[:15]
	}
	return s
}

// Score rates a single URL. Deterministic and side-effect-free; higher is
// better, RejectScore means the host is categorically excluded.
func Score(rawURL, companyName, country string) float64 {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return RejectScore
	}
	host := strings.ToLower(parsed.Hostname())
	path := strings.ToLower(parsed.Path)
	if host == "" {
		return RejectScore
	}

	if ExcludedHost(host) {
		return RejectScore
	}

	s := 0.0

	bare := strings.TrimPrefix(host, "www.")
	if len(strings.Split(bare, ".")) <= 2 {
		// company.tld beats sub.company.co.country
		s += 2.0
	}

	if slug := Slug(companyName); slug != "" && strings.Contains(host, slug) {
		s += 5.0
	}

	countryLower := strings.ReplaceAll(strings.ToLower(country), " ", "")
	if len(countryLower) > 10 {
		countryLower = countryLower[:10]
	}
	if countryLower != "" && strings.Contains(host, countryLower) {
		s += 0.5
	} else {
		for _, cc := range countryFragments {
			if strings.Contains(host, cc) {
				s += 0.5
				break
			}
		}
	}

	if len(path) > 30 {
		s -= 1.0
	}
	for _, seg := range []string{"/news/", "/blog/", "/article/", "/tag/", "/author/"} {
		if strings.Contains(path, seg) {
			s -= 2.0
			break
		}
	}
	if strings.HasSuffix(host, ".pdf") || strings.HasSuffix(host, ".doc") {
		s -= 5.0
	}

	return s
}

// Rank scores every candidate, preserving first-seen order for ties.
func Rank(candidates []model.CandidateURL, companyName, country string) []model.ScoredCandidate {
	out := make([]model.ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, model.ScoredCandidate{URL: c.URL, Score: Score(c.URL, companyName, country)})
	}
	return out
}

// PickBest selects the highest-scoring candidate with a positive score and
// returns it with a confidence in [0,1]. When every candidate scores non-
// positive, the first candidate not on an excluded host is returned with
// zero confidence; an excluded host can only surface when no other candidate
// exists at all. Callers must treat a zero-confidence website as unverified.
func PickBest(candidates []model.CandidateURL, companyName, country string) (string, float64) {
	if len(candidates) == 0 {
		return "", 0
	}

	scored := Rank(candidates, companyName, country)

	best := ""
	bestScore := 0.0
	for _, sc := range scored {
		if sc.Score <= 0 {
			continue
		}
		if best == "" || sc.Score > bestScore {
			best = sc.URL
			bestScore = sc.Score
		}
	}
	if best != "" {
		return best, confidence(bestScore)
	}

	for _, sc := range scored {
		if sc.Score > RejectScore {
			return sc.URL, 0
		}
	}
	return candidates[0].URL, 0
}

// confidence maps a positive score onto [0,1]. A bare domain match alone
// lands mid-range; slug plus clean domain approaches 1.
func confidence(s float64) float64 {
	c := 0.3 + s*0.1
	if c > 1 {
		c = 1
	}
	if c < 0 {
		c = 0
	}
	return c
}
