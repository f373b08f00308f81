package kv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larderapp/larder-server/internal/domain"
	"github.com/larderapp/larder-server/internal/logger"
	"github.com/larderapp/larder-server/internal/store"
	"github.com/larderapp/larder-server/internal/store/storetest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return newTestStore(t) })
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(dir, logger.Discard())
	require.NoError(t, err)
	require.NoError(t, s.Update(ctx, func(tx store.Tx) error {
		return tx.CreateIngredient(ctx, &domain.Ingredient{ID: "ing-1", OwnerID: "usr-1", Name: "Flour", DefaultUnit: domain.UnitGrams})
	}))
	require.NoError(t, s.Close())

	s, err = Open(dir, logger.Discard())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.View(ctx, func(tx store.Tx) error {
		found, err := tx.FindIngredientsByName(ctx, "usr-1", "flour")
		require.NoError(t, err)
		assert.Len(t, found, 1)
		return nil
	}))
}

func TestPing_Closed(t *testing.T) {
	s, err := Open(t.TempDir(), logger.Discard())
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.Error(t, s.Ping(context.Background()))
}
