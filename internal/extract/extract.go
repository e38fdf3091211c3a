// Package extract turns raw page text and HTML into validated contact facts.
// Every function tolerates arbitrary, malformed input; the absence of a match
// is the failure mode, never an error.
package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/intakehq/prospector/internal/model"
	"github.com/intakehq/prospector/internal/score"
)

var (
	tagPattern   = regexp.MustCompile(`<[^>]+>`)
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

	// Strict pattern first: a leading +country-code prefix cuts false
	// positives from prices and IDs. The loose pattern is the fallback.
	phoneStrict = regexp.MustCompile(`\+\d{1,4}[-.\s]?\d{2,4}[-.\s]?\d{3,4}[-.\s]?\d{3,4}(?:[-.\s]?\d{2,4})?`)
	phoneLoose  = regexp.MustCompile(`(?:\+?\d{1,4}[-.\s]?)?(?:\(?\d{2,4}\)?[-.\s]?)?\d{3,4}[-.\s]?\d{3,4}(?:[-.\s]?\d{2,4})?`)

	linkedinPattern = regexp.MustCompile(`(?i)https?://(?:www\.)?linkedin\.com/[^\s"'<>]+`)
	twitterPattern  = regexp.MustCompile(`(?i)https?://(?:www\.)?(?:twitter\.com|x\.com)/[^\s"'<>]+`)
	facebookPattern = regexp.MustCompile(`(?i)https?://(?:www\.)?(?:facebook|fb)\.com/[^\s"'<>]+`)

	domainPattern = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?([a-zA-Z0-9][-a-zA-Z0-9]*\.(?:com|org|net|io|co|in|de|uk|fr|ae)[^\s"'<>]*)`)

	postalToken   = regexp.MustCompile(`\d{4,6}`)
	streetKeyword = regexp.MustCompile(`(?i)\b(street|st|road|rd|avenue|ave|floor|fl)\b`)
	nonDigit      = regexp.MustCompile(`\D`)
)

// emailSkip lists placeholder and platform domains whose addresses are noise.
var emailSkip = []string{
	"example.com", "test.com", "domain.com", "duckduckgo.com",
	"wixpress.com", "sentry.io", "google.com",
	".png", ".jpg", ".gif",
}

// phoneJunk are digit signatures that regularly appear in markup but are
// never real numbers (the 2147483647 int-max string shows up in pagination
// and tracking attributes).
var phoneJunk = map[string]struct{}{
	"2147483647":  {},
	"1234567890":  {},
	"12345678901": {},
	"9999999999":  {},
}

const maxPhones = 10

// StripHTML replaces tags with spaces and unescapes the entities that matter
// for contact extraction.
func StripHTML(text string) string {
	if text == "" {
		return ""
	}
	out := tagPattern.ReplaceAllString(text, " ")
	out = strings.ReplaceAll(out, "&nbsp;", " ")
	out = strings.ReplaceAll(out, "&amp;", "&")
	return out
}

// Emails returns the sorted unique set of plausible addresses in the text,
// normalized to lower case. Both the raw blob and its stripped form are
// scanned: mailto: hrefs live inside tags, which StripHTML discards.
func Emails(text string) []string {
	if text == "" {
		return nil
	}
	seen := map[string]struct{}{}
	for _, src := range []string{text, StripHTML(text)} {
		for _, m := range emailPattern.FindAllString(src, -1) {
			e := strings.ToLower(strings.TrimSpace(m))
			if len(e) <= 5 {
				continue
			}
			at := strings.LastIndex(e, "@")
			if at < 1 || !strings.Contains(e[at:], ".") {
				continue
			}
			if skipEmail(e) {
				continue
			}
			seen[e] = struct{}{}
		}
	}
	return sortedSet(seen)
}

func skipEmail(e string) bool {
	for _, s := range emailSkip {
		if strings.Contains(e, s) {
			return true
		}
	}
	return false
}

// Phones extracts phone numbers. The strict international pattern runs first;
// only if it finds nothing does the loose pattern apply. Candidates survive
// only with a 10-15 digit signature that is not a known junk sequence.
// Deduplication is by digit signature, +prefixed numbers sort first, output
// is capped at ten entries.
func Phones(text string) []string {
	if text == "" {
		return nil
	}
	text = StripHTML(text)

	var raw []string
	for _, m := range phoneStrict.FindAllString(text, -1) {
		raw = append(raw, strings.TrimSpace(m))
	}
	if len(raw) == 0 {
		for _, m := range phoneLoose.FindAllString(text, -1) {
			raw = append(raw, strings.TrimSpace(m))
		}
	}

	seen := map[string]struct{}{}
	var out []string
	for _, p := range raw {
		sig := nonDigit.ReplaceAllString(p, "")
		if len(sig) < 10 || len(sig) > 15 {
			continue
		}
		if junkSignature(sig) {
			continue
		}
		if _, ok := seen[sig]; ok {
			continue
		}
		seen[sig] = struct{}{}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		pi := strings.HasPrefix(out[i], "+")
		pj := strings.HasPrefix(out[j], "+")
		return pi && !pj
	})

	if len(out) > maxPhones {
		out = out[:maxPhones]
	}
	return out
}

// junkSignature rejects known fillers: the fixed junk set, all-same-digit
// runs, and ascending/descending sequential runs.
func junkSignature(sig string) bool {
	if _, ok := phoneJunk[sig]; ok {
		return true
	}
	if strings.Contains(sig, "2147483647") {
		return true
	}
	same, asc, desc := true, true, true
	for i := 1; i < len(sig); i++ {
		if sig[i] != sig[0] {
			same = false
		}
		if sig[i] != next(sig[i-1]) {
			asc = false
		}
		if sig[i] != prev(sig[i-1]) {
			desc = false
		}
	}
	return same || asc || desc
}

func next(d byte) byte {
	if d == '9' {
		return '0'
	}
	return d + 1
}

func prev(d byte) byte {
	if d == '0' {
		return '9'
	}
	return d - 1
}

// SocialLinks returns the sorted unique set of LinkedIn, X/Twitter, and
// Facebook profile URLs in the HTML.
func SocialLinks(html string) []string {
	seen := map[string]struct{}{}
	for _, p := range []*regexp.Regexp{linkedinPattern, twitterPattern, facebookPattern} {
		for _, m := range p.FindAllString(html, -1) {
			seen[m] = struct{}{}
		}
	}
	return sortedSet(seen)
}

// Address applies a line-based heuristic: prefer a line carrying both a
// postal-code-sized numeric token and either a street keyword or a comma;
// fall back to a line mentioning headquarters/location. Whitespace is
// collapsed and the result capped at 250 characters.
func Address(text string) string {
	if text == "" {
		return ""
	}
	text = StripHTML(text)

	var lines []string
	for _, l := range strings.Split(text, "\n") {
		l = strings.TrimSpace(l)
		if len(l) > 10 && len(l) < 200 {
			lines = append(lines, l)
		}
	}

	for _, line := range lines {
		if postalToken.MatchString(line) && (streetKeyword.MatchString(line) || strings.Contains(line, ",")) {
			return cap250(line)
		}
	}
	for _, line := range lines {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "headquartered") || strings.Contains(lower, "located") || strings.Contains(lower, "address") {
			return cap250(line)
		}
	}
	return ""
}

func cap250(line string) string {
	out := strings.Join(strings.Fields(line), " ")
	if len(out) > 250 {
		out = out[:250]
	}
	return out
}

// Domains finds bare domain mentions (the "acme.com" an AI summary or
// snippet prints without a scheme), rebuilds them as https URLs, and drops
// anything on an excluded host.
func Domains(text string) []string {
	if text == "" {
		return nil
	}
	text = StripHTML(text)

	seen := map[string]struct{}{}
	var out []string
	for _, m := range domainPattern.FindAllStringSubmatch(text, -1) {
		domain := strings.TrimRight(m[1], ".,;:)")
		if i := strings.Index(domain, "/"); i >= 0 {
			domain = domain[:i]
		}
		domain = strings.ToLower(domain)
		if domain == "" || score.ExcludedHost(domain) {
			continue
		}
		full := "https://" + domain
		if _, ok := seen[full]; ok {
			continue
		}
		seen[full] = struct{}{}
		out = append(out, full)
	}
	return out
}

// Bundle runs all extractors over one blob and packages the results.
func Bundle(html string) model.Bundle {
	return model.Bundle{
		Emails:      Emails(html),
		Phones:      Phones(html),
		Address:     Address(html),
		SocialLinks: SocialLinks(html),
	}
}

func sortedSet(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
