package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larderapp/larder-server/internal/logger"
	"github.com/larderapp/larder-server/internal/store"
	"github.com/larderapp/larder-server/internal/store/storetest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return newTestStore(t) })
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	for _, table := range []string{
		"users", "ingredients", "pantry_entries", "recipes",
		"meal_plan_entries", "shopping_list_entries",
	} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, "table %s", table)
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, logger.Discard())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path, logger.Discard())
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestFormatTime_SortsChronologically(t *testing.T) {
	a, err := parseTime("2026-03-01T09:00:01.100000000Z")
	require.NoError(t, err)
	b, err := parseTime("2026-03-01T09:00:01.120000000Z")
	require.NoError(t, err)
	assert.Less(t, formatTime(a), formatTime(b))
}
