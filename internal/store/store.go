// Package store persists normalized records in PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "github.com/lib/pq"              // registers the "postgres" driver

	"github.com/gubarz/bibkit/internal/bibtex"
)

// execer runs a statement on a connection or inside a transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// tx is the subset of *sql.Tx the store needs.
type tx interface {
	execer
	Commit() error
	Rollback() error
}

// conn is a database that can run statements and open transactions.
type conn interface {
	execer
	Begin(ctx context.Context) (tx, error)
}

// sqlConn adapts *sql.DB to conn.
type sqlConn struct {
	*sql.DB
}

func (c sqlConn) Begin(ctx context.Context) (tx, error) {
	t, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Store writes records into one table keyed by citation key.
type Store struct {
	db         conn
	closer     func() error
	table      string
	serializer bibtex.Serializer
	logger     *slog.Logger
}

// Open connects with the given database/sql driver ("pgx" or "postgres")
// and ensures the table exists.
func Open(ctx context.Context, driver, dsn, table string, logger *slog.Logger) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("database dsn is required (--dsn or BIBKIT_DSN)")
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect: %w", err)
	}

	s, err := New(ctx, sqlConn{db}, table, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.closer = db.Close
	return s, nil
}

// New wraps an existing connection and ensures the table exists.
func New(ctx context.Context, db conn, table string, logger *slog.Logger) (*Store, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	if !validTable(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Store{
		db:         db,
		table:      table,
		serializer: bibtex.DefaultSerializer,
		logger:     logger.With(slog.String("component", "store")),
	}
	if err := s.ensureTable(ctx); err != nil {
		return nil, fmt.Errorf("ensure table: %w", err)
	}
	return s, nil
}

// WithSerializer sets the serializer used for the stored bibtex column.
func (s *Store) WithSerializer(ser bibtex.Serializer) *Store {
	s.serializer = ser
	return s
}

// Close releases the connection when the store opened it.
func (s *Store) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

func (s *Store) ensureTable(ctx context.Context) error {
	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
  citation_key text PRIMARY KEY,
  entry_type text NOT NULL,
  fields jsonb NOT NULL,
  bibtex text NOT NULL,
  updated_at timestamptz NOT NULL DEFAULT now()
);
`, s.table)
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// Save upserts records by citation key in one transaction: either every
// record is written or none is. Records without a key cannot be addressed
// and are rejected.
func (s *Store) Save(ctx context.Context, records []*bibtex.Record) (int, error) {
	query := fmt.Sprintf(`
INSERT INTO %s (citation_key, entry_type, fields, bibtex)
VALUES ($1, $2, $3, $4)
ON CONFLICT (citation_key) DO UPDATE SET
  entry_type = EXCLUDED.entry_type,
  fields = EXCLUDED.fields,
  bibtex = EXCLUDED.bibtex,
  updated_at = now()
`, s.table)

	t, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			t.Rollback()
		}
	}()

	for i, r := range records {
		if r.CitationKey == "" {
			return 0, fmt.Errorf("record %d has no citation key", i)
		}
		fields, err := json.Marshal(r)
		if err != nil {
			return 0, fmt.Errorf("encode %s: %w", r.CitationKey, err)
		}
		if _, err := t.ExecContext(ctx, query, r.CitationKey, r.EntryType, string(fields), s.serializer.Serialize(r)); err != nil {
			return 0, fmt.Errorf("save %s: %w", r.CitationKey, err)
		}
		s.logger.Debug("saved record", slog.String("key", r.CitationKey))
	}

	if err := t.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	committed = true
	s.logger.Info("import finished", slog.String("table", s.table), slog.Int("records", len(records)))
	return len(records), nil
}

// validTable accepts plain or schema-qualified lower-case identifiers.
func validTable(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c == '_', c == '.':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
