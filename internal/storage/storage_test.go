package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johan/sads-console/internal/config"
	"github.com/johan/sads-console/internal/outcome"
	"github.com/johan/sads-console/internal/quotes"
)

func sampleQuote(seq uint64, percent int, at time.Time) *quotes.Quote {
	return &quotes.Quote{
		MarketID:           "dem-nominee-2028",
		Slug:               "2028-democratic-presidential-nomination",
		Question:           "Democratic Nominee: Gavin Newsom",
		TokenID:            "tok",
		YesPrice:           float64(percent) / 100,
		NoPrice:            1 - float64(percent)/100,
		ImpliedProbPercent: percent,
		IsLive:             true,
		Strategy:           outcome.StrategyKeyword,
		Seq:                seq,
		ObservedAt:         at,
	}
}

func TestNullStorage(t *testing.T) {
	s := NewNullStorage()
	assert.NoError(t, s.Write(sampleQuote(1, 37, time.Now())))
	assert.NoError(t, s.Close())
}

func TestFileStorage(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStorage(dir, 1, 2)
	require.NoError(t, err)

	require.NoError(t, s.Write(sampleQuote(1, 37, time.Now())))
	require.NoError(t, s.Write(sampleQuote(2, 38, time.Now())))
	assert.Equal(t, int64(2), s.MessageCount())
	require.NoError(t, s.Close())

	f, err := os.Open(s.CurrentPath())
	require.NoError(t, err)
	defer f.Close()

	var got []quotes.Quote
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var q quotes.Quote
		require.NoError(t, json.Unmarshal(sc.Bytes(), &q))
		got = append(got, q)
	}
	require.Len(t, got, 2)
	assert.Equal(t, 38, got[1].ImpliedProbPercent)
	assert.Equal(t, outcome.StrategyKeyword, got[0].Strategy)
}

func TestFileStorage_Rotate(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStorage(dir, 1, 5)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Write(sampleQuote(1, 37, time.Now())))
	require.NoError(t, s.Rotate())
	assert.Equal(t, int64(0), s.MessageCount())
	require.NoError(t, s.Write(sampleQuote(2, 38, time.Now())))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(entries), 2)
}

func TestSQLiteStorage(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "db", "quotes.db"))
	require.NoError(t, err)
	defer s.Close()

	base := time.Date(2025, 12, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Write(sampleQuote(1, 35, base)))
	require.NoError(t, s.Write(sampleQuote(2, 37, base.Add(time.Minute))))
	require.NoError(t, s.Write(sampleQuote(3, 40, base.Add(2*time.Minute))))

	other := sampleQuote(4, 55, base)
	other.MarketID = "gop-nominee-2028"
	require.NoError(t, s.Write(other))

	got, err := s.Recent(context.Background(), "dem-nominee-2028", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 40, got[0].ImpliedProbPercent)
	assert.Equal(t, uint64(3), got[0].Seq)
	assert.Equal(t, base.Add(2*time.Minute), got[0].ObservedAt)
	assert.True(t, got[0].IsLive)
	assert.False(t, got[0].Settled)
	assert.Equal(t, outcome.StrategyKeyword, got[0].Strategy)
	assert.Equal(t, 37, got[1].ImpliedProbPercent)

	none, err := s.Recent(context.Background(), "missing", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDialectBind(t *testing.T) {
	q := "SELECT * FROM t WHERE a = ? AND b = ?"
	assert.Equal(t, q, sqliteDialect.bind(q))
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", postgresDialect.bind(q))
}

func TestNew(t *testing.T) {
	s, err := New(config.StorageConfig{Type: "none"})
	require.NoError(t, err)
	assert.IsType(t, &NullStorage{}, s)

	s, err = New(config.StorageConfig{Type: "file", OutputDir: t.TempDir(), MaxSizeMB: 1})
	require.NoError(t, err)
	assert.IsType(t, &FileStorage{}, s)
	require.NoError(t, s.Close())

	s, err = New(config.StorageConfig{Type: "sqlite", DSN: filepath.Join(t.TempDir(), "q.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLStorage{}, s)
	require.NoError(t, s.Close())

	_, err = New(config.StorageConfig{Type: "s3"})
	assert.Error(t, err)
}

func TestPostgresStorage_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	dsn := os.Getenv("SADS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SADS_TEST_POSTGRES_DSN not set")
	}

	s, err := OpenPostgres(dsn)
	require.NoError(t, err)
	defer s.Close()

	q := sampleQuote(uint64(time.Now().UnixNano()), 42, time.Now().UTC().Truncate(time.Millisecond))
	q.MarketID = "integration-" + time.Now().Format("150405.000")
	require.NoError(t, s.Write(q))

	got, err := s.Recent(context.Background(), q.MarketID, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 42, got[0].ImpliedProbPercent)
}
