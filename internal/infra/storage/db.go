package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "modernc.org/sqlite"             // Pure Go SQLite driver

	"github.com/MRamiBalles/JailbreakIdle/internal/platform/config"
)

// DB is an open database together with its dialect.
type DB struct {
	SQL     *sql.DB
	Dialect string
}

// Open connects to the configured backend and creates the schema.
func Open(ctx context.Context, cfg config.Database, tuning config.Tuning) (*DB, error) {
	var driver, dsn string
	switch cfg.Dialect {
	case config.DialectSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		driver, dsn = "sqlite", cfg.SQLitePath
	case config.DialectPostgres:
		driver, dsn = "pgx", cfg.PostgresDSN
	default:
		return nil, fmt.Errorf("unsupported database dialect %q", cfg.Dialect)
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Dialect, err)
	}
	if cfg.Dialect == config.DialectSQLite {
		// SQLite allows a single writer.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	} else {
		sqlDB.SetMaxOpenConns(tuning.DBMaxOpenConns)
		sqlDB.SetMaxIdleConns(tuning.DBMaxIdleConns)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", cfg.Dialect, err)
	}

	db := &DB{SQL: sqlDB, Dialect: cfg.Dialect}
	if err := db.createSchemas(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to create schemas: %w", err)
	}
	return db, nil
}

// OpenSQLite opens a SQLite database file with default tuning.
func OpenSQLite(ctx context.Context, path string) (*DB, error) {
	return Open(ctx, config.Database{Dialect: config.DialectSQLite, SQLitePath: path}, config.Default().Tuning)
}

// Close closes the underlying pool.
func (db *DB) Close() error {
	return db.SQL.Close()
}

// bind returns the placeholder for the pos-th (1-based) argument.
func (db *DB) bind(pos int) string {
	if db.Dialect == config.DialectPostgres {
		return fmt.Sprintf("$%d", pos)
	}
	return "?"
}

// q rewrites ? placeholders for the active dialect.
func (db *DB) q(query string) string {
	if db.Dialect != config.DialectPostgres {
		return query
	}
	out := make([]byte, 0, len(query)+8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			out = append(out, db.bind(n)...)
			continue
		}
		out = append(out, query[i])
	}
	return string(out)
}

func (db *DB) createSchemas(ctx context.Context) error {
	realType, text := "REAL", "TEXT"
	if db.Dialect == config.DialectPostgres {
		realType = "DOUBLE PRECISION"
	}
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS save_slots (
			slot ` + text + ` PRIMARY KEY,
			revision ` + text + ` NOT NULL,
			data ` + text + ` NOT NULL,
			playtime ` + realType + ` NOT NULL DEFAULT 0,
			stage INTEGER NOT NULL DEFAULT 0,
			reset_times INTEGER NOT NULL DEFAULT 0,
			saved_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS save_revisions (
			revision ` + text + ` PRIMARY KEY,
			slot ` + text + ` NOT NULL,
			data ` + text + ` NOT NULL,
			playtime ` + realType + ` NOT NULL DEFAULT 0,
			stage INTEGER NOT NULL DEFAULT 0,
			reset_times INTEGER NOT NULL DEFAULT 0,
			saved_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_save_revisions_slot ON save_revisions(slot, saved_at)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id ` + text + ` PRIMARY KEY,
			slot ` + text + ` NOT NULL,
			seq INTEGER NOT NULL,
			created_at BIGINT NOT NULL,
			msg_type ` + text + ` NOT NULL,
			body ` + text + ` NOT NULL,
			playtime ` + realType + ` NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_slot ON messages(slot, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_type ON messages(slot, msg_type)`,
	}

	for _, query := range schemas {
		if _, err := db.SQL.ExecContext(ctx, query); err != nil {
			return err
		}
	}
	return nil
}
