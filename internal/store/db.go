// Package store provides dual-engine persistence for the Mission Control
// board: an embedded SQLite file for local use and Postgres when a
// connection URL is configured.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Engine names reported by DB.Engine.
const (
	EngineSQLite   = "sqlite"
	EnginePostgres = "postgres"
)

// DB is the single query capability the rest of the package programs
// against. Statements are written with `?` placeholders; each engine
// rewrites them as needed. Execute is for writes and returns the affected
// row count; FetchOne and FetchAll are for reads. Engine errors are
// propagated with context but never translated.
type DB interface {
	Execute(query string, args ...any) (int64, error)
	FetchOne(query string, args ...any) *sql.Row
	FetchAll(query string, args ...any) (*sql.Rows, error)
	Engine() string
	Ping(ctx context.Context) error
	Close() error
}

// Open selects the engine once for the process lifetime: Postgres when
// databaseURL is non-empty, otherwise the SQLite file at sqlitePath.
func Open(databaseURL, sqlitePath string) (DB, error) {
	if databaseURL != "" {
		return openPostgres(databaseURL)
	}
	return openSQLite(sqlitePath)
}

// sqliteDB is the embedded engine. SQLite takes `?` placeholders natively,
// so queries pass through untouched.
type sqliteDB struct {
	db *sql.DB
}

func openSQLite(path string) (DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// WAL allows concurrent readers with the single writer.
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &sqliteDB{db: db}, nil
}

func (s *sqliteDB) Execute(query string, args ...any) (int64, error) {
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("execute: %w", err)
	}
	return res.RowsAffected()
}

func (s *sqliteDB) FetchOne(query string, args ...any) *sql.Row {
	return s.db.QueryRow(query, args...)
}

func (s *sqliteDB) FetchAll(query string, args ...any) (*sql.Rows, error) {
	return s.db.Query(query, args...)
}

func (s *sqliteDB) Engine() string                 { return EngineSQLite }
func (s *sqliteDB) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }
func (s *sqliteDB) Close() error                   { return s.db.Close() }

// postgresDB is the network engine, reached through pgx's database/sql
// adapter. Postgres wants numbered placeholders, so every query is rebound
// before it runs.
type postgresDB struct {
	db *sql.DB
}

func openPostgres(url string) (DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return &postgresDB{db: db}, nil
}

func (p *postgresDB) Execute(query string, args ...any) (int64, error) {
	res, err := p.db.Exec(rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("execute: %w", err)
	}
	return res.RowsAffected()
}

func (p *postgresDB) FetchOne(query string, args ...any) *sql.Row {
	return p.db.QueryRow(rebind(query), args...)
}

func (p *postgresDB) FetchAll(query string, args ...any) (*sql.Rows, error) {
	return p.db.Query(rebind(query), args...)
}

func (p *postgresDB) Engine() string                 { return EnginePostgres }
func (p *postgresDB) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }
func (p *postgresDB) Close() error                   { return p.db.Close() }

// rebind rewrites `?` placeholders to sequential `$1..$n`, preserving
// parameter order and count. None of our statements contain a literal `?`.
func rebind(query string) string {
	if !strings.ContainsRune(query, '?') {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
