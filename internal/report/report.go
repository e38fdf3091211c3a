// Package report renders enrichment results, the challenge side-channel, and
// the end-of-run summary.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/intakehq/prospector/internal/challenge"
	"github.com/intakehq/prospector/internal/model"
)

// listSep joins list fields in the flat CSV shape.
const listSep = ", "

// csvHeader is the flat row shape. Column order is part of the output
// contract; downstream sheets key on it.
var csvHeader = []string{
	"company_name", "country", "sector", "website", "website_confidence",
	"emails", "phones", "address", "social_links", "source",
}

// WriteResultsJSON writes results as an indented JSON array, nested lists
// preserved.
func WriteResultsJSON(w io.Writer, results []*model.CompanyResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	return nil
}

// WriteResultsCSV writes results as flat rows, list fields joined.
func WriteResultsCSV(w io.Writer, results []*model.CompanyResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, r := range results {
		row := []string{
			r.CompanyName,
			r.Country,
			r.Sector,
			r.Website,
			strconv.FormatFloat(r.WebsiteConfidence, 'f', 2, 64),
			strings.Join(r.Emails, listSep),
			strings.Join(r.Phones, listSep),
			r.Address,
			strings.Join(r.SocialLinks, listSep),
			strings.Join(r.Source, listSep),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row for %s: %w", r.CompanyName, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteChallenges writes the challenge events captured during the run, so an
// operator can revisit blocked companies.
func WriteChallenges(w io.Writer, events []challenge.Event) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if events == nil {
		events = []challenge.Event{}
	}
	if err := enc.Encode(events); err != nil {
		return fmt.Errorf("encode challenges: %w", err)
	}
	return nil
}

// Summary contains aggregated metrics about an enrichment run.
type Summary struct {
	TotalCompanies   int
	WebsitesResolved int
	WithEmails       int
	WithPhones       int
	WithAddress      int
	BySource         map[string]int
	Challenges       int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}

// GenerateSummary aggregates a finished run.
func GenerateSummary(results []*model.CompanyResult, challenges int) Summary {
	s := Summary{
		BySource:   make(map[string]int),
		Challenges: challenges,
	}

	if len(results) == 0 {
		return s
	}

	s.StartTime = results[0].CreatedAt
	s.EndTime = results[0].CreatedAt

	for _, r := range results {
		s.TotalCompanies++
		if r.Website != "" {
			s.WebsitesResolved++
		}
		if len(r.Emails) > 0 {
			s.WithEmails++
		}
		if len(r.Phones) > 0 {
			s.WithPhones++
		}
		if r.Address != "" {
			s.WithAddress++
		}
		for _, src := range r.Source {
			s.BySource[src]++
		}

		if r.CreatedAt.Before(s.StartTime) {
			s.StartTime = r.CreatedAt
		}
		if r.CreatedAt.After(s.EndTime) {
			s.EndTime = r.CreatedAt
		}
	}

	s.Duration = s.EndTime.Sub(s.StartTime)
	return s
}

// WriteJSON writes the summary to the provided writer in JSON format.
func WriteJSON(w io.Writer, summary Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return nil
}

// WriteText writes a human-readable text summary to the provided writer.
func WriteText(w io.Writer, summary Summary) error {
	const textTmpl = `Prospector Run Summary
----------------------
Time:          {{.StartTime.Format "2006-01-02 15:04:05"}} - {{.EndTime.Format "2006-01-02 15:04:05"}}
Duration:      {{.Duration}}
Companies:     {{.TotalCompanies}}
Websites:      {{.WebsitesResolved}}
With Emails:   {{.WithEmails}}
With Phones:   {{.WithPhones}}
With Address:  {{.WithAddress}}

By Source:
{{- range $src, $count := .BySource}}
  {{$src}}: {{$count}}
{{- else}}
  None
{{- end}}

Challenges: {{.Challenges}}
`

	t, err := template.New("textReport").Parse(textTmpl)
	if err != nil {
		return fmt.Errorf("parse template: %w", err)
	}

	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("render summary: %w", err)
	}

	return nil
}

// WriteHTML writes a basic HTML report to the provided writer.
func WriteHTML(w io.Writer, summary Summary) error {
	const htmlTmpl = `<!DOCTYPE html>
<html>
<head>
<title>Prospector Run Report</title>
<style>
  body { font-family: sans-serif; margin: 40px; color: #333; }
  h1 { border-bottom: 2px solid #ccc; padding-bottom: 10px; }
  .stat-card { display: inline-block; padding: 20px; margin: 10px 10px 10px 0; background: #f4f4f4; border-radius: 5px; min-width: 150px; }
  .stat-val { font-size: 24px; font-weight: bold; }
  table { border-collapse: collapse; margin-top: 10px; }
  th, td { padding: 8px 12px; border: 1px solid #ccc; text-align: left; }
  th { background: #eaeaea; }
</style>
</head>
<body>
  <h1>Prospector Run Report</h1>
  <p><strong>Time:</strong> {{.StartTime.Format "2006-01-02 15:04:05"}} to {{.EndTime.Format "2006-01-02 15:04:05"}} ({{.Duration}})</p>

  <div class="stat-card">
    <div>Companies</div>
    <div class="stat-val">{{.TotalCompanies}}</div>
  </div>
  <div class="stat-card">
    <div>Websites Resolved</div>
    <div class="stat-val">{{.WebsitesResolved}}</div>
  </div>
  <div class="stat-card">
    <div>Challenges</div>
    <div class="stat-val" style="color: {{if gt .Challenges 0}}red{{else}}green{{end}};">{{.Challenges}}</div>
  </div>
  <div class="stat-card">
    <div>With Emails</div>
    <div class="stat-val">{{.WithEmails}}</div>
  </div>

  <h3>By Source</h3>
  <table>
    <tr><th>Source</th><th>Count</th></tr>
    {{- range $src, $count := .BySource}}
    <tr><td>{{$src}}</td><td>{{$count}}</td></tr>
    {{- else}}
    <tr><td colspan="2">None</td></tr>
    {{- end}}
  </table>
</body>
</html>
`
	t, err := template.New("htmlReport").Parse(htmlTmpl)
	if err != nil {
		return fmt.Errorf("parse template: %w", err)
	}

	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	return nil
}
