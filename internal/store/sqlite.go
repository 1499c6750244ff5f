package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/directory-enrich/internal/db"
	"github.com/sells-group/directory-enrich/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: conn, now: time.Now}, nil
}

// Coordinates are TEXT so the decimal text written is the text read back.
const sqliteMigration = `
CREATE TABLE IF NOT EXISTS contractors (
	id                TEXT PRIMARY KEY,
	name              TEXT NOT NULL,
	business_name     TEXT,
	category          TEXT NOT NULL,
	description       TEXT NOT NULL DEFAULT '',
	address           TEXT,
	city              TEXT NOT NULL DEFAULT 'Unknown',
	state             TEXT NOT NULL DEFAULT 'Unknown',
	zip_code          TEXT,
	latitude          TEXT,
	longitude         TEXT,
	phone             TEXT,
	email             TEXT,
	website           TEXT,
	license_number    TEXT,
	years_in_business INTEGER,
	status            TEXT NOT NULL DEFAULT 'pending',
	created_at        DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS contractor_category_idx ON contractors(category);
CREATE INDEX IF NOT EXISTS contractor_location_idx ON contractors(city, state);
CREATE INDEX IF NOT EXISTS contractor_status_idx ON contractors(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SelectIncomplete(ctx context.Context, limit int) ([]model.Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s %s LIMIT ?`,
		selectList(""), recordTable, incompletePredicate, storeOrder)
	return s.queryRecords(ctx, "select incomplete", query, clampLimit(limit))
}

func (s *SQLiteStore) ListRecords(ctx context.Context) ([]model.Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s %s`, selectList(""), recordTable, storeOrder)
	return s.queryRecords(ctx, "list records", query)
}

func (s *SQLiteStore) queryRecords(ctx context.Context, op, query string, args ...any) ([]model.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: %s", op)
	}
	defer rows.Close() //nolint:errcheck

	var records []model.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		records = append(records, r)
	}
	return records, eris.Wrapf(rows.Err(), "sqlite: %s iterate", op)
}

func (s *SQLiteStore) UpdateByID(ctx context.Context, id string, u model.RecordUpdate) error {
	staged := u.Columns()
	cols := make([]db.SetColumn, len(staged))
	args := make([]any, 0, len(staged)+1)
	for i, c := range staged {
		cols[i] = db.SetColumn{Name: c.Name}
		args = append(args, c.Value)
	}
	args = append(args, id)

	query, err := db.UpdateByKeySQL(recordTable, cols, "id", db.Question)
	if err != nil {
		return eris.Wrap(err, "sqlite: build update")
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update record %s", id)
	}
	return checkRowsAffected(res, id)
}

func (s *SQLiteStore) InsertRecords(ctx context.Context, records []model.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	rows := prepareInsert(records, s.now().UTC())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin insert")
	}
	defer tx.Rollback() //nolint:errcheck

	placeholders := "?"
	for range insertColumns[1:] {
		placeholders += ", ?"
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		recordTable, joinColumns(insertColumns), placeholders))
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert")
	}
	defer stmt.Close() //nolint:errcheck

	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert record %s", records[i].Name)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit insert")
	}
	return len(rows), nil
}

func (s *SQLiteStore) Stats(ctx context.Context) (*model.Stats, error) {
	var st model.Stats
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT
		COUNT(*),
		COALESCE(SUM(CASE WHEN %s THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN COALESCE(latitude, '') <> '' AND COALESCE(longitude, '') <> '' THEN 1 ELSE 0 END), 0)
		FROM %s`, incompletePredicate, recordTable),
	).Scan(&st.Total, &st.Incomplete, &st.WithCoordinates)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: stats")
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT name FROM %s WHERE %s %s`,
		recordTable, incompletePredicate, storeOrder))
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: stats names")
	}
	defer rows.Close() //nolint:errcheck
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan name")
		}
		st.IncompleteNames = append(st.IncompleteNames, name)
	}
	return &st, eris.Wrap(rows.Err(), "sqlite: stats names iterate")
}

func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "sqlite: update record %s", id)
	}
	return nil
}
