package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/intakehq/prospector/internal/challenge"
	"github.com/intakehq/prospector/internal/model"
)

func sampleResults() []*model.CompanyResult {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	return []*model.CompanyResult{
		{
			CompanyName:       "Acme Corp",
			Country:           "Germany",
			Website:           "https://acme-corp.de",
			WebsiteConfidence: 0.55,
			Emails:            []string{"info@acme-corp.de", "sales@acme-corp.de"},
			Phones:            []string{"+49 30 1234 5678"},
			Address:           "Hauptstrasse 5, 10115 Berlin",
			SocialLinks:       []string{"https://linkedin.com/company/acme"},
			Source:            []string{"google", "website"},
			CreatedAt:         now,
		},
		{
			CompanyName: "Ghost Ltd",
			Country:     "Nowhere",
			CreatedAt:   now.Add(2 * time.Minute),
		},
	}
}

func TestWriteResultsCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResultsCSV(&buf, sampleResults()); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("re-read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if rows[0][0] != "company_name" || rows[0][9] != "source" {
		t.Errorf("header = %v", rows[0])
	}

	acme := rows[1]
	if acme[4] != "0.55" {
		t.Errorf("confidence cell = %q", acme[4])
	}
	if acme[5] != "info@acme-corp.de, sales@acme-corp.de" {
		t.Errorf("emails cell = %q", acme[5])
	}
	if acme[9] != "google, website" {
		t.Errorf("source cell = %q", acme[9])
	}

	ghost := rows[2]
	if ghost[3] != "" || ghost[4] != "0.00" {
		t.Errorf("empty company row = %v", ghost)
	}
}

func TestWriteResultsJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResultsJSON(&buf, sampleResults()); err != nil {
		t.Fatalf("write json: %v", err)
	}

	var decoded []model.CompanyResult
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("re-read json: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("decoded = %d", len(decoded))
	}
	if len(decoded[0].Emails) != 2 {
		t.Errorf("nested list not preserved: %v", decoded[0].Emails)
	}
}

func TestWriteChallenges(t *testing.T) {
	var buf bytes.Buffer
	events := []challenge.Event{
		{ID: "1", Company: "Acme Corp", URL: "https://google.com/sorry"},
	}
	if err := WriteChallenges(&buf, events); err != nil {
		t.Fatalf("write challenges: %v", err)
	}
	if !strings.Contains(buf.String(), `"company": "Acme Corp"`) {
		t.Errorf("output = %s", buf.String())
	}

	buf.Reset()
	if err := WriteChallenges(&buf, nil); err != nil {
		t.Fatalf("write empty challenges: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("empty log should render [], got %q", buf.String())
	}
}

func TestGenerateSummary(t *testing.T) {
	s := GenerateSummary(sampleResults(), 1)

	if s.TotalCompanies != 2 || s.WebsitesResolved != 1 {
		t.Errorf("summary = %+v", s)
	}
	if s.WithEmails != 1 || s.WithPhones != 1 || s.WithAddress != 1 {
		t.Errorf("fact counts = %+v", s)
	}
	if s.BySource["google"] != 1 || s.BySource["website"] != 1 {
		t.Errorf("by source = %v", s.BySource)
	}
	if s.Challenges != 1 {
		t.Errorf("challenges = %d", s.Challenges)
	}
	if s.Duration != 2*time.Minute {
		t.Errorf("duration = %v", s.Duration)
	}
}

func TestGenerateSummaryEmpty(t *testing.T) {
	s := GenerateSummary(nil, 0)
	if s.TotalCompanies != 0 || len(s.BySource) != 0 {
		t.Errorf("summary = %+v", s)
	}
}

func TestWriteTextAndHTML(t *testing.T) {
	s := GenerateSummary(sampleResults(), 1)

	var text bytes.Buffer
	if err := WriteText(&text, s); err != nil {
		t.Fatalf("write text: %v", err)
	}
	for _, want := range []string{"Prospector Run Summary", "Companies:     2", "Challenges: 1", "google: 1"} {
		if !strings.Contains(text.String(), want) {
			t.Errorf("text summary missing %q:\n%s", want, text.String())
		}
	}

	var html bytes.Buffer
	if err := WriteHTML(&html, s); err != nil {
		t.Fatalf("write html: %v", err)
	}
	if !strings.Contains(html.String(), "<h1>Prospector Run Report</h1>") {
		t.Errorf("html report missing title")
	}
}
