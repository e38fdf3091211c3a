package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/intakehq/prospector/internal/model"
	"github.com/intakehq/prospector/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ensure postgresBackend implements storage.Backend
var _ storage.Backend = (*postgresBackend)(nil)

type postgresBackend struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS company_results (
	id TEXT PRIMARY KEY,
	company_name TEXT NOT NULL,
	country TEXT,
	sector TEXT,
	website TEXT,
	website_confidence DOUBLE PRECISION NOT NULL,
	emails JSONB NOT NULL,
	phones JSONB NOT NULL,
	address TEXT,
	social_links JSONB NOT NULL,
	source JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
`

// New creates a new Postgres-backed storage.Backend.
func New(ctx context.Context, dsn string) (storage.Backend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &postgresBackend{pool: pool}, nil
}

func (b *postgresBackend) Save(ctx context.Context, result *model.CompanyResult) error {
	emails, err := json.Marshal(result.Emails)
	if err != nil {
		return fmt.Errorf("encode emails: %w", err)
	}
	phones, err := json.Marshal(result.Phones)
	if err != nil {
		return fmt.Errorf("encode phones: %w", err)
	}
	socials, err := json.Marshal(result.SocialLinks)
	if err != nil {
		return fmt.Errorf("encode social links: %w", err)
	}
	sources, err := json.Marshal(result.Source)
	if err != nil {
		return fmt.Errorf("encode source: %w", err)
	}

	query := `
	INSERT INTO company_results (
		id, company_name, country, sector, website, website_confidence, emails, phones, address, social_links, source, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = b.pool.Exec(ctx, query,
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

func (b *postgresBackend) Query(ctx context.Context, filter storage.Filter) ([]*model.CompanyResult, error) {
	query := `SELECT id, company_name, country, sector, website, website_confidence, emails, phones, address, social_links, source, created_at FROM company_results WHERE 1=1`
	args := []any{}
	paramCount := 1

	if filter.CompanyName != "" {
		query += fmt.Sprintf(` AND company_name = $%d`, paramCount)
		args = append(args, filter.CompanyName)
		paramCount++
	}
	if filter.Resolved != nil {
		if *filter.Resolved {
			query += ` AND website != ''`
		} else {
			query += ` AND website = ''`
		}
	}
	if filter.Since != nil {
		query += fmt.Sprintf(` AND created_at >= $%d`, paramCount)
		args = append(args, *filter.Since)
		paramCount++
	}
	if filter.Source != "" {
		query += fmt.Sprintf(` AND source @> $%d`, paramCount)
		tag, err := json.Marshal([]string{filter.Source})
		if err != nil {
			return nil, fmt.Errorf("encode source filter: %w", err)
		}
		args = append(args, tag)
		paramCount++
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, paramCount)
		args = append(args, filter.Limit)
		paramCount++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, paramCount)
		args = append(args, filter.Offset)
		paramCount++
	}

	rows, err := b.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var results []*model.CompanyResult
	for rows.Next() {
		var r model.CompanyResult
		var emails, phones, socials, sources []byte

		err := rows.Scan(
			&r.ID, &r.CompanyName, &r.Country, &r.Sector, &r.Website, &r.WebsiteConfidence,
			&emails, &phones, &r.Address, &socials, &sources, &r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}

		if err := json.Unmarshal(emails, &r.Emails); err != nil {
			return nil, fmt.Errorf("decode emails: %w", err)
		}
		if err := json.Unmarshal(phones, &r.Phones); err != nil {
			return nil, fmt.Errorf("decode phones: %w", err)
		}
		if err := json.Unmarshal(socials, &r.SocialLinks); err != nil {
			return nil, fmt.Errorf("decode social links: %w", err)
		}
		if err := json.Unmarshal(sources, &r.Source); err != nil {
			return nil, fmt.Errorf("decode source: %w", err)
		}

		results = append(results, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}

	return results, nil
}

func (b *postgresBackend) Close() error {
	b.pool.Close()
	return nil
}
