package metrics

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/intakehq/prospector/internal/model"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsServer(t *testing.T) {
	srv := Start(8888)
	// Give it a tiny bit of time to start up
	time.Sleep(100 * time.Millisecond)

	defer srv.Stop(context.Background())

	// Record a result to verify metrics format correctly
	res := &model.CompanyResult{
		CompanyName:       "Acme Corp",
		Website:           "https://acme-corp.de",
		WebsiteConfidence: 0.8,
		Emails:            []string{"info@acme-corp.de"},
		Phones:            []string{"+49 30 1234 5678"},
	}

	RecordCompany(res, 12*time.Second)
	ChallengesTotal.Inc()

	resp, err := http.Get("http://localhost:8888/metrics")
	if err != nil {
		t.Fatalf("failed to fetch metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}

	output := string(body)

	if !strings.Contains(output, `prospector_companies_total{outcome="resolved"}`) {
		t.Errorf("expected prospector_companies_total metric")
	}

	if !strings.Contains(output, "prospector_enrich_duration_seconds_bucket") {
		t.Errorf("expected prospector_enrich_duration_seconds metric")
	}

	if !strings.Contains(output, `prospector_contacts_total{kind="email"}`) {
		t.Errorf("expected prospector_contacts_total metric for emails")
	}

	if !strings.Contains(output, "prospector_challenges_total") {
		t.Errorf("expected prospector_challenges_total metric")
	}
}

func TestRecordCompanyOutcomes(t *testing.T) {
	before := testutil.ToFloat64(CompaniesTotal.WithLabelValues("empty"))

	RecordCompany(&model.CompanyResult{CompanyName: "Ghost Ltd"}, time.Second)

	if after := testutil.ToFloat64(CompaniesTotal.WithLabelValues("empty")); after != before+1 {
		t.Errorf("empty outcome count = %v, want %v", after, before+1)
	}

	RecordCompany(nil, time.Second) // must not panic
}
