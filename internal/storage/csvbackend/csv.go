package csvbackend

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/intakehq/prospector/internal/model"
	"github.com/intakehq/prospector/internal/storage"
)

// ensure csvBackend implements storage.Backend
var _ storage.Backend = (*csvBackend)(nil)

type csvBackend struct {
	mu   sync.Mutex
	file *os.File
}

// headers defines the CSV column order. List fields are JSON-encoded in
// their cells so the row stays flat and lossless.
var headers = []string{
	"id",
	"company_name",
	"country",
	"sector",
	"website",
	"website_confidence",
	"emails_json",
	"phones_json",
	"address",
	"social_links_json",
	"source_json",
	"created_at",
}

// New creates a new CSV-backed storage.Backend.
func New(filePath string) (storage.Backend, error) {
	// Open file for appending, create if it doesn't exist
	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("open csv store: %w", err)
	}

	// Check if file is empty to write headers
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat csv store: %w", err)
	}

	if info.Size() == 0 {
		w := csv.NewWriter(f)
		if err := w.Write(headers); err != nil {
			f.Close()
			return nil, fmt.Errorf("write csv header: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("flush csv header: %w", err)
		}
	}

	return &csvBackend{file: f}, nil
}

func (b *csvBackend) Save(ctx context.Context, result *model.CompanyResult) error {
	emails, phones, socials, sources, err := encodeLists(result)
	if err != nil {
		return err
	}

	record := []string{
		result.ID,
		result.CompanyName,
		result.Country,
		result.Sector,
		result.Website,
		strconv.FormatFloat(result.WebsiteConfidence, 'f', 2, 64),
		emails,
		phones,
		result.Address,
		socials,
		sources,
		result.CreatedAt.Format(time.RFC3339Nano),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// Ensure we're at the end of the file for appending (just in case)
	if _, err := b.file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("seek csv store: %w", err)
	}

	w := csv.NewWriter(b.file)
	if err := w.Write(record); err != nil {
		return fmt.Errorf("write csv row: %w", err)
	}
	w.Flush()

	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv row: %w", err)
	}

	return nil
}

func (b *csvBackend) Query(ctx context.Context, filter storage.Filter) ([]*model.CompanyResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind csv store: %w", err)
	}
	defer func() {
		// Restore pointer to end for writing
		_, _ = b.file.Seek(0, io.SeekEnd)
	}()

	r := csv.NewReader(b.file)

	// Read headers
	if _, err := r.Read(); err != nil {
		if err == io.EOF {
			return []*model.CompanyResult{}, nil
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	var filtered []*model.CompanyResult
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		if len(record) != len(headers) {
			continue // skip malformed rows
		}

		res := decodeRecord(record)
		if filter.Matches(res) {
			filtered = append(filtered, res)
		}
	}

	// Newest first, matching the SQL backends
	for i, j := 0, len(filtered)-1; i < j; i, j = i+1, j-1 {
		filtered[i], filtered[j] = filtered[j], filtered[i]
	}

	return filter.Page(filtered), nil
}

func (b *csvBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.file.Close()
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

func decodeRecord(record []string) *model.CompanyResult {
	confidence, _ := strconv.ParseFloat(record[5], 64)
	createdAt, _ := time.Parse(time.RFC3339Nano, record[11])

	res := &model.CompanyResult{
		ID:                record[0],
		CompanyName:       record[1],
		Country:           record[2],
		Sector:            record[3],
		Website:           record[4],
		WebsiteConfidence: confidence,
		Address:           record[8],
		CreatedAt:         createdAt,
	}

	// Malformed list cells degrade to empty lists
	_ = json.Unmarshal([]byte(record[6]), &res.Emails)
	_ = json.Unmarshal([]byte(record[7]), &res.Phones)
	_ = json.Unmarshal([]byte(record[9]), &res.SocialLinks)
	_ = json.Unmarshal([]byte(record[10]), &res.Source)

	return res
}
