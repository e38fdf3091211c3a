package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/intakehq/prospector/internal/model"
	"github.com/intakehq/prospector/internal/storage"
)

func TestPostgresBackend(t *testing.T) {
	// Only run this test if PROSPECTOR_TEST_PG_DSN is set
	dsn := os.Getenv("PROSPECTOR_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("Skipping Postgres backend test: PROSPECTOR_TEST_PG_DSN not set")
	}

	ctx := context.Background()
	b, err := New(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to create Postgres backend: %v", err)
	}
	defer b.Close()

	now := time.Now().UTC()

	res := &model.CompanyResult{
		ID:                "pg-" + now.Format("20060102150405.000"),
		CompanyName:       "Acme Corp",
		Country:           "Germany",
		Website:           "https://acme-corp.de",
		WebsiteConfidence: 0.55,
		Emails:            []string{"info@acme-corp.de"},
		Phones:            []string{"+49 30 1234 5678"},
		SocialLinks:       []string{},
		Source:            []string{"google", "website"},
		CreatedAt:         now,
	}

	if err := b.Save(ctx, res); err != nil {
		t.Fatalf("Failed to save result: %v", err)
	}

	results, err := b.Query(ctx, storage.Filter{CompanyName: "Acme Corp", Source: "website", Limit: 1})
	if err != nil {
		t.Fatalf("Failed to query results: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}

	got := results[0]
	if got.ID != res.ID {
		t.Errorf("Expected ID %s, got %s", res.ID, got.ID)
	}
	if len(got.Emails) != 1 || got.Emails[0] != "info@acme-corp.de" {
		t.Errorf("Emails not round-tripped: %v", got.Emails)
	}
	if len(got.Source) != 2 {
		t.Errorf("Source not round-tripped: %v", got.Source)
	}
}
