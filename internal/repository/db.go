package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const (
	dialectPostgres = "postgres"
	dialectSQLite   = "sqlite"
)

type Config struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// DB wraps a *sql.DB with the dialect it speaks. Server mode runs on a
// pgx pool; batch mode runs on embedded sqlite (":memory:" supported).
type DB struct {
	*sql.DB
	dialect string
	pool    *pgxpool.Pool
}

// Open creates a pgx pool, wraps it as *sql.DB, and bootstraps the schema.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("connecting to database", "dsn", cfg.DSN)
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to parse database config", "error", err)
		return nil, err
	}

	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "invoice-tracker"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = cfg.StatementTimeout.String()
	}

	dialCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}

	d := &DB{DB: stdlib.OpenDBFromPool(pool), dialect: dialectPostgres, pool: pool}
	if err := d.EnsureSchema(ctx); err != nil {
		d.Close()
		return nil, err
	}
	logger.Info("successfully connected to database")
	return d, nil
}

// OpenSQLite opens an embedded database at path (":memory:" for tests and
// batch dry runs) and bootstraps the schema.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		logger.Error("failed to open sqlite database", "path", path, "error", err)
		return nil, err
	}
	// modernc sqlite is single-writer; a bigger pool just trades errors
	// for lock contention.
	db.SetMaxOpenConns(1)

	d := &DB{DB: db, dialect: dialectSQLite}
	if err := d.EnsureSchema(ctx); err != nil {
		d.Close()
		return nil, err
	}
	logger.Info("sqlite database ready", "path", path)
	return d, nil
}

func (d *DB) Close() {
	_ = d.DB.Close()
	if d.pool != nil {
		d.pool.Close()
	}
}

// HealthCheck pings the database with a bounded timeout.
func (d *DB) HealthCheck(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return d.PingContext(ctx)
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS invoice_file (
	id           TEXT PRIMARY KEY,
	source_path  TEXT NOT NULL,
	filename     TEXT NOT NULL,
	file_ext     TEXT NOT NULL,
	file_size    BIGINT NOT NULL,
	content_hash TEXT NOT NULL UNIQUE,
	uploaded_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS parse_job (
	id            TEXT PRIMARY KEY,
	file_id       TEXT NOT NULL REFERENCES invoice_file(id),
	format        TEXT NOT NULL,
	status        TEXT NOT NULL,
	raw_text      TEXT NOT NULL DEFAULT '',
	record_json   TEXT NOT NULL DEFAULT '',
	error_message TEXT NOT NULL DEFAULT '',
	started_at    TEXT NOT NULL,
	finished_at   TEXT
);

CREATE TABLE IF NOT EXISTS invoice (
	id               TEXT PRIMARY KEY,
	file_id          TEXT,
	order_id         TEXT NOT NULL,
	date             TEXT NOT NULL,
	price            TEXT NOT NULL,
	item_name        TEXT NOT NULL,
	delivery_address TEXT NOT NULL,
	delivery_state   TEXT NOT NULL,
	source_mode      TEXT NOT NULL,
	total_sold       TEXT NOT NULL DEFAULT 'N/A',
	logged_at        TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS invoice_logged_at_idx ON invoice (logged_at)
`

// EnsureSchema creates the tables if missing. The DDL sticks to the type
// subset both dialects accept; timestamps travel as RFC 3339 text.
func (d *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range strings.Split(schemaDDL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := d.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// rebind converts ?-style placeholders to the dialect's form.
func (d *DB) rebind(query string) string {
	if d.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
