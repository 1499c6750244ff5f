package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/directory-enrich/internal/db"
	"github.com/sells-group/directory-enrich/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
	now     func() time.Time
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close, now: time.Now}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS contractors (
	id                TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name              TEXT NOT NULL,
	business_name     TEXT,
	category          TEXT NOT NULL,
	description       TEXT NOT NULL DEFAULT '',
	address           TEXT,
	city              TEXT NOT NULL DEFAULT 'Unknown',
	state             TEXT NOT NULL DEFAULT 'Unknown',
	zip_code          TEXT,
	latitude          NUMERIC(10, 8),
	longitude         NUMERIC(11, 8),
	phone             TEXT,
	email             TEXT,
	website           TEXT,
	license_number    TEXT,
	years_in_business INTEGER,
	status            TEXT NOT NULL DEFAULT 'pending',
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS contractor_category_idx ON contractors(category);
CREATE INDEX IF NOT EXISTS contractor_location_idx ON contractors(city, state);
CREATE INDEX IF NOT EXISTS contractor_status_idx ON contractors(status);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SelectIncomplete(ctx context.Context, limit int) ([]model.Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s %s LIMIT $1`,
		selectList("::text"), recordTable, incompletePredicate, storeOrder)
	return s.queryRecords(ctx, "select incomplete", query, clampLimit(limit))
}

func (s *PostgresStore) ListRecords(ctx context.Context) ([]model.Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s %s`, selectList("::text"), recordTable, storeOrder)
	return s.queryRecords(ctx, "list records", query)
}

func (s *PostgresStore) queryRecords(ctx context.Context, op, query string, args ...any) ([]model.Record, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: %s", op)
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		records = append(records, r)
	}
	return records, eris.Wrapf(rows.Err(), "postgres: %s iterate", op)
}

func (s *PostgresStore) UpdateByID(ctx context.Context, id string, u model.RecordUpdate) error {
	staged := u.Columns()
	cols := make([]db.SetColumn, len(staged))
	args := make([]any, 0, len(staged)+1)
	for i, c := range staged {
		cols[i] = db.SetColumn{Name: c.Name}
		if c.Name == "latitude" || c.Name == "longitude" {
			cols[i].Cast = "::numeric"
		}
		args = append(args, c.Value)
	}
	args = append(args, id)

	query, err := db.UpdateByKeySQL(recordTable, cols, "id", db.Dollar)
	if err != nil {
		return eris.Wrap(err, "postgres: build update")
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return eris.Wrapf(err, "postgres: update record %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: update record %s", id)
	}
	return nil
}

func (s *PostgresStore) InsertRecords(ctx context.Context, records []model.Record) (int, error) {
	rows := prepareInsert(records, s.now().UTC())
	n, err := db.CopyFrom(ctx, s.pool, recordTable, insertColumns, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: insert records")
	}
	return int(n), nil
}

func (s *PostgresStore) Stats(ctx context.Context) (*model.Stats, error) {
	var st model.Stats
	err := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT
		COUNT(*),
		COALESCE(SUM(CASE WHEN %s THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN latitude IS NOT NULL AND longitude IS NOT NULL THEN 1 ELSE 0 END), 0)
		FROM %s`, incompletePredicate, recordTable),
	).Scan(&st.Total, &st.Incomplete, &st.WithCoordinates)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: stats")
	}

	rows, err := s.pool.Query(ctx, fmt.Sprintf(`SELECT name FROM %s WHERE %s %s`,
		recordTable, incompletePredicate, storeOrder))
	if err != nil {
		return nil, eris.Wrap(err, "postgres: stats names")
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, eris.Wrap(err, "postgres: scan name")
		}
		st.IncompleteNames = append(st.IncompleteNames, name)
	}
	return &st, eris.Wrap(rows.Err(), "postgres: stats names iterate")
}
