// Package store persists contractor directory records.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/directory-enrich/internal/model"
)

// ErrNotFound is returned when an update targets a record id that does not exist.
var ErrNotFound = eris.New("store: record not found")

// Store is the record surface the enrichment pipeline reads and writes.
type Store interface {
	// SelectIncomplete returns up to limit records whose city or state is
	// still unresolved, oldest first.
	SelectIncomplete(ctx context.Context, limit int) ([]model.Record, error)
	// ListRecords returns every record in store order.
	ListRecords(ctx context.Context) ([]model.Record, error)
	// UpdateByID writes the staged columns of u to record id.
	UpdateByID(ctx context.Context, id string, u model.RecordUpdate) error
	// InsertRecords adds new records, assigning ids and timestamps when unset.
	InsertRecords(ctx context.Context, records []model.Record) (int, error)
	// Stats reports directory coverage.
	Stats(ctx context.Context) (*model.Stats, error)

	Migrate(ctx context.Context) error
	Close() error
}

const recordTable = "contractors"

// incompletePredicate must agree with model.Record.IsIncomplete.
const incompletePredicate = `(COALESCE(city, '') IN ('', 'Unknown') OR COALESCE(state, '') IN ('', 'Unknown'))`

const storeOrder = `ORDER BY created_at, id`

var recordColumns = []string{
	"id", "name", "business_name", "category", "description",
	"address", "city", "state", "zip_code", "latitude", "longitude",
	"phone", "email", "website", "license_number", "years_in_business",
	"status", "created_at", "updated_at",
}

// selectList renders recordColumns, applying cast to the coordinate columns.
func selectList(coordCast string) string {
	cols := make([]string, len(recordColumns))
	for i, c := range recordColumns {
		if coordCast != "" && (c == "latitude" || c == "longitude") {
			cols[i] = c + coordCast
			continue
		}
		cols[i] = c
	}
	return strings.Join(cols, ", ")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (model.Record, error) {
	var r model.Record
	var status string
	err := row.Scan(
		&r.ID, &r.Name, &r.BusinessName, &r.Category, &r.Description,
		&r.Address, &r.City, &r.State, &r.ZipCode, &r.Latitude, &r.Longitude,
		&r.Phone, &r.Email, &r.Website, &r.LicenseNumber, &r.YearsInBusiness,
		&status, &r.CreatedAt, &r.UpdatedAt,
	)
	r.Status = model.RecordStatus(status)
	return r, err
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	return limit
}

var insertColumns = []string{
	"id", "name", "business_name", "category", "description",
	"address", "city", "state", "zip_code", "phone", "email", "website",
	"status", "created_at", "updated_at",
}

// prepareInsert fills ids, status and timestamps left unset by the caller.
func prepareInsert(records []model.Record, now time.Time) [][]any {
	rows := make([][]any, len(records))
	for i := range records {
		r := &records[i]
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		if r.Status == "" {
			r.Status = model.RecordStatusPending
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		if r.UpdatedAt.IsZero() {
			r.UpdatedAt = now
		}
		rows[i] = []any{
			r.ID, r.Name, r.BusinessName, r.Category, r.Description,
			r.Address, r.City, r.State, r.ZipCode, r.Phone, r.Email, r.Website,
			string(r.Status), r.CreatedAt, r.UpdatedAt,
		}
	}
	return rows
}

func joinColumns(cols []string) string {
	return strings.Join(cols, ", ")
}
