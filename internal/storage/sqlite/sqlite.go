package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/intakehq/prospector/internal/model"
	"github.com/intakehq/prospector/internal/storage"
	_ "modernc.org/sqlite"
)

// ensure sqliteBackend implements storage.Backend
var _ storage.Backend = (*sqliteBackend)(nil)

type sqliteBackend struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS company_results (
	id TEXT PRIMARY KEY,
	company_name TEXT NOT NULL,
	country TEXT,
	sector TEXT,
	website TEXT,
	website_confidence REAL NOT NULL,
	emails TEXT NOT NULL,
	phones TEXT NOT NULL,
	address TEXT,
	social_links TEXT NOT NULL,
	source TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
`

// New creates a new SQLite-backed storage.Backend.
func New(dsn string) (storage.Backend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &sqliteBackend{db: db}, nil
}

func (b *sqliteBackend) Save(ctx context.Context, result *model.CompanyResult) error {
	emails, phones, socials, sources, err := encodeLists(result)
	if err != nil {
		return err
	}

	query := `
	INSERT INTO company_results (
		id, company_name, country, sector, website, website_confidence, emails, phones, address, social_links, source, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = b.db.ExecContext(ctx, query,
		result.ID,
		result.CompanyName,
		result.Country,
		result.Sector,
		result.Website,
		result.WebsiteConfidence,
		emails,
		phones,
		result.Address,
		socials,
		sources,
		result.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}

	return nil
}

func (b *sqliteBackend) Query(ctx context.Context, filter storage.Filter) ([]*model.CompanyResult, error) {
	query := `SELECT id, company_name, country, sector, website, website_confidence, emails, phones, address, social_links, source, created_at FROM company_results WHERE 1=1`
	args := []any{}

	if filter.CompanyName != "" {
		query += ` AND company_name = ?`
		args = append(args, filter.CompanyName)
	}
	if filter.Resolved != nil {
		if *filter.Resolved {
			query += ` AND website != ''`
		} else {
			query += ` AND website = ''`
		}
	}
	if filter.Since != nil {
		query += ` AND created_at >= ?`
		args = append(args, *filter.Since)
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var results []*model.CompanyResult
	for rows.Next() {
		r, err := scanRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		// SQLite has no JSON containment operator, so the source-tag
		// predicate runs on the decoded list.
		if filter.Source != "" && !(storage.Filter{Source: filter.Source}).Matches(r) {
			continue
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}

	return results, nil
}

func (b *sqliteBackend) Close() error {
	return b.db.Close()
}

func encodeLists(result *model.CompanyResult) (emails, phones, socials, sources string, err error) {
	enc := func(v []string) (string, error) {
		data, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("encode list: %w", err)
		}
		return string(data), nil
	}

	if emails, err = enc(result.Emails); err != nil {
		return
	}
	if phones, err = enc(result.Phones); err != nil {
		return
	}
	if socials, err = enc(result.SocialLinks); err != nil {
		return
	}
	sources, err = enc(result.Source)
	return
}

func scanRow(scan func(dest ...any) error) (*model.CompanyResult, error) {
	var r model.CompanyResult
	var emails, phones, socials, sources string

	err := scan(
		&r.ID, &r.CompanyName, &r.Country, &r.Sector, &r.Website, &r.WebsiteConfidence,
		&emails, &phones, &r.Address, &socials, &sources, &r.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan result: %w", err)
	}

	if err := json.Unmarshal([]byte(emails), &r.Emails); err != nil {
		return nil, fmt.Errorf("decode emails: %w", err)
	}
	if err := json.Unmarshal([]byte(phones), &r.Phones); err != nil {
		return nil, fmt.Errorf("decode phones: %w", err)
	}
	if err := json.Unmarshal([]byte(socials), &r.SocialLinks); err != nil {
		return nil, fmt.Errorf("decode social links: %w", err)
	}
	if err := json.Unmarshal([]byte(sources), &r.Source); err != nil {
		return nil, fmt.Errorf("decode source: %w", err)
	}

	return &r, nil
}
