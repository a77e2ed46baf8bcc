package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/johan/sads-console/internal/outcome"
	"github.com/johan/sads-console/internal/quotes"
)

type dialect struct {
	driver     string
	idColumn   string
	positional bool
}

var (
	sqliteDialect   = dialect{driver: "sqlite", idColumn: "INTEGER PRIMARY KEY AUTOINCREMENT"}
	postgresDialect = dialect{driver: "postgres", idColumn: "BIGSERIAL PRIMARY KEY", positional: true}
)

// bind rewrites ? placeholders to $n for drivers that need it.
func (d dialect) bind(query string) string {
	if !d.positional {
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

func (d dialect) schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS quote_history (
			id ` + d.idColumn + `,
			market_id TEXT NOT NULL,
			slug TEXT NOT NULL DEFAULT '',
			event_title TEXT NOT NULL DEFAULT '',
			question TEXT NOT NULL DEFAULT '',
			group_label TEXT NOT NULL DEFAULT '',
			token_id TEXT NOT NULL DEFAULT '',
			yes_price DOUBLE PRECISION NOT NULL,
			no_price DOUBLE PRECISION NOT NULL,
			implied_prob_percent INTEGER NOT NULL,
			is_live BOOLEAN NOT NULL,
			settled BOOLEAN NOT NULL,
			strategy TEXT NOT NULL,
			seq BIGINT NOT NULL,
			observed_at_ms BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_quote_history_market ON quote_history (market_id, observed_at_ms)`,
	}
}

// SQLStorage records quotes in a quote_history table.
type SQLStorage struct {
	db      *sql.DB
	dialect dialect
	timeout time.Duration
}

// OpenSQLite opens (and creates) a SQLite database file.
func OpenSQLite(path string) (*SQLStorage, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.Wrap(err, "creating database directory")
		}
	}
	db, err := sql.Open(sqliteDialect.driver, path)
	if err != nil {
		return nil, errors.Wrap(err, "opening sqlite")
	}
	// one writer; also keeps :memory: on a single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return newSQLStorage(db, sqliteDialect)
}

// OpenPostgres connects to PostgreSQL with a lib/pq connection string.
func OpenPostgres(dsn string) (*SQLStorage, error) {
	db, err := sql.Open(postgresDialect.driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening postgres")
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	return newSQLStorage(db, postgresDialect)
}

func newSQLStorage(db *sql.DB, d dialect) (*SQLStorage, error) {
	s := &SQLStorage{db: db, dialect: d, timeout: 5 * time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "connecting to %s", d.driver)
	}
	for _, stmt := range d.schema() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, errors.Wrap(err, "migrating quote_history")
		}
	}
	return s, nil
}

// Write inserts one quote.
func (s *SQLStorage) Write(q *quotes.Quote) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	observed := q.ObservedAt
	if observed.IsZero() {
		observed = time.Now()
	}

	_, err := s.db.ExecContext(ctx, s.dialect.bind(`
		INSERT INTO quote_history (
			market_id, slug, event_title, question, group_label, token_id,
			yes_price, no_price, implied_prob_percent, is_live, settled,
			strategy, seq, observed_at_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		q.MarketID, q.Slug, q.EventTitle, q.Question, q.GroupLabel, q.TokenID,
		q.YesPrice, q.NoPrice, q.ImpliedProbPercent, q.IsLive, q.Settled,
		string(q.Strategy), int64(q.Seq), observed.UnixMilli(),
	)
	return errors.Wrap(err, "inserting quote")
}

// Recent returns up to limit quotes for a market, newest first.
func (s *SQLStorage) Recent(ctx context.Context, marketID string, limit int) ([]quotes.Quote, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, s.dialect.bind(`
		SELECT market_id, slug, event_title, question, group_label, token_id,
			yes_price, no_price, implied_prob_percent, is_live, settled,
			strategy, seq, observed_at_ms
		FROM quote_history
		WHERE market_id = ?
		ORDER BY observed_at_ms DESC, id DESC
		LIMIT ?`), marketID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "querying quote history")
	}
	defer rows.Close()

	var out []quotes.Quote
	for rows.Next() {
		var (
			q        quotes.Quote
			strategy string
			seq      int64
			observed int64
		)
		if err := rows.Scan(
			&q.MarketID, &q.Slug, &q.EventTitle, &q.Question, &q.GroupLabel, &q.TokenID,
			&q.YesPrice, &q.NoPrice, &q.ImpliedProbPercent, &q.IsLive, &q.Settled,
			&strategy, &seq, &observed,
		); err != nil {
			return nil, errors.Wrap(err, "scanning quote")
		}
		q.Strategy = outcome.Strategy(strategy)
		q.Seq = uint64(seq)
		q.ObservedAt = time.UnixMilli(observed).UTC()
		out = append(out, q)
	}
	return out, errors.Wrap(rows.Err(), "iterating quote history")
}

// Close closes the database.
func (s *SQLStorage) Close() error {
	return s.db.Close()
}
