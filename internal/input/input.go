// Package input loads the company list that seeds an enrichment run.
package input

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/intakehq/prospector/internal/model"
)

// nameAliases are accepted column/field names for the company name, in
// priority order.
var nameAliases = []string{"company_name", "exhibitor_name", "name"}

// Load reads companies from a JSON or CSV file. Any problem with the file is
// fatal to the run: enrichment never starts on a broken input.
func Load(path string) ([]model.CompanyInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	var companies []model.CompanyInput
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		companies, err = parseJSON(data)
	case ".csv", ".txt":
		companies, err = parseCSV(data)
	default:
		return nil, fmt.Errorf("unsupported input format %q: use .json or .csv", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if len(companies) == 0 {
		return nil, fmt.Errorf("no companies in %s", filepath.Base(path))
	}
	return companies, nil
}

type record map[string]any

func (r record) field(keys ...string) string {
	for _, k := range keys {
		if v, ok := r[k]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

func (r record) toInput() (model.CompanyInput, bool) {
	name := r.field(nameAliases...)
	if name == "" {
		return model.CompanyInput{}, false
	}
	return model.CompanyInput{
		CompanyName: name,
		Country:     r.field("country"),
		Sector:      r.field("sector"),
	}, true
}

// parseJSON accepts a top-level array, an object with a "companies" array,
// or a single company object.
func parseJSON(data []byte) ([]model.CompanyInput, error) {
	var records []record

	if err := json.Unmarshal(data, &records); err != nil {
		var doc struct {
			Companies []record `json:"companies"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		if doc.Companies != nil {
			records = doc.Companies
		} else {
			var single record
			if err := json.Unmarshal(data, &single); err != nil {
				return nil, err
			}
			records = []record{single}
		}
	}

	var out []model.CompanyInput
	for _, r := range records {
		if in, ok := r.toInput(); ok {
			out = append(out, in)
		}
	}
	return out, nil
}

// parseCSV requires a header row; rows without a recognizable company name
// are skipped.
func parseCSV(data []byte) ([]model.CompanyInput, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("missing header row")
	}

	cols := map[string]int{}
	for i, h := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}

	cell := func(row []string, key string) string {
		i, ok := cols[key]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []model.CompanyInput
	for _, row := range rows[1:] {
		r := record{}
		for _, k := range nameAliases {
			r[k] = cell(row, k)
		}
		r["country"] = cell(row, "country")
		r["sector"] = cell(row, "sector")
		if in, ok := r.toInput(); ok {
			out = append(out, in)
		}
	}
	return out, nil
}
