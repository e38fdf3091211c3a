package input

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoadJSONArray(t *testing.T) {
	path := writeFile(t, "companies.json", `[
		{"company_name": "Acme Corp", "country": "Germany", "sector": "Manufacturing"},
		{"exhibitor_name": "Beta GmbH", "country": "Germany"},
		{"name": "  Gamma Ltd  "},
		{"country": "Nowhere"}
	]`)

	companies, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(companies) != 3 {
		t.Fatalf("companies = %d, want 3 (nameless row skipped)", len(companies))
	}
	if companies[0].CompanyName != "Acme Corp" || companies[0].Sector != "Manufacturing" {
		t.Errorf("first = %+v", companies[0])
	}
	if companies[1].CompanyName != "Beta GmbH" {
		t.Errorf("exhibitor_name alias not honored: %+v", companies[1])
	}
	if companies[2].CompanyName != "Gamma Ltd" {
		t.Errorf("name not trimmed: %q", companies[2].CompanyName)
	}
}

func TestLoadJSONCompaniesObject(t *testing.T) {
	path := writeFile(t, "companies.json", `{"companies": [{"company_name": "Acme Corp", "country": "Germany"}]}`)

	companies, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(companies) != 1 || companies[0].Country != "Germany" {
		t.Errorf("companies = %+v", companies)
	}
}

func TestLoadJSONSingleObject(t *testing.T) {
	path := writeFile(t, "one.json", `{"company_name": "Acme Corp"}`)

	companies, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(companies) != 1 || companies[0].CompanyName != "Acme Corp" {
		t.Errorf("companies = %+v", companies)
	}
}

func TestLoadCSV(t *testing.T) {
	path := writeFile(t, "companies.csv", strings.Join([]string{
		"Exhibitor_Name,Country,Sector",
		"Acme Corp,Germany,Manufacturing",
		",Nowhere,",
		"Beta GmbH,,",
	}, "\n"))

	companies, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(companies) != 2 {
		t.Fatalf("companies = %d, want 2", len(companies))
	}
	if companies[0].CompanyName != "Acme Corp" || companies[0].Country != "Germany" {
		t.Errorf("first = %+v", companies[0])
	}
	if companies[1].CompanyName != "Beta GmbH" || companies[1].Country != "" {
		t.Errorf("second = %+v", companies[1])
	}
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]string{
		"bad extension": writeFile(t, "companies.yaml", "company_name: Acme"),
		"malformed":     writeFile(t, "broken.json", `{"companies": [`),
		"empty":         writeFile(t, "empty.json", `[]`),
		"missing":       filepath.Join(t.TempDir(), "nope.json"),
	}
	for name, path := range cases {
		if _, err := Load(path); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
