package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolioBench/internal/portfolio"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := OpenSQLite("file:" + filepath.Join(t.TempDir(), "test.db") + "?_fk=1")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, InitSchema(context.Background(), db))
	return NewStore(db)
}

func TestLoadDefault_Empty(t *testing.T) {
	s := openTestStore(t)

	_, err := s.LoadDefault(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveDefault_RoundTripKeepsOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := portfolio.Portfolio{Holdings: []portfolio.Holding{
		{Symbol: "VNM", Weight: 33.3}, {Symbol: "VIC", Weight: 33.3}, {Symbol: "HPG", Weight: 33.4},
	}}
	require.NoError(t, s.SaveDefault(ctx, first))
	got, err := s.LoadDefault(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	second := portfolio.Portfolio{Holdings: []portfolio.Holding{{Symbol: "FPT", Weight: 100}}}
	require.NoError(t, s.SaveDefault(ctx, second))
	got, err = s.LoadDefault(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestInitSchema_Idempotent(t *testing.T) {
	db, err := OpenSQLite("file:" + filepath.Join(t.TempDir(), "twice.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, InitSchema(context.Background(), db))
	require.NoError(t, InitSchema(context.Background(), db))
}
