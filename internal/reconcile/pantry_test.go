package reconcile

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetQuantity_Upserts(t *testing.T) {
	l := newMemLedger()
	ctx := context.Background()

	created, err := SetQuantity(ctx, l, owner, "ing-x", 250, now)
	require.NoError(t, err)
	assert.InDelta(t, 250, created.Quantity, 1e-9)

	updated, err := SetQuantity(ctx, l, owner, "ing-x", 0, now)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Zero(t, updated.Quantity)
	assert.Len(t, l.pantry, 1)
}

func TestAdjustQuantity(t *testing.T) {
	ctx := context.Background()

	t.Run("absent with non-positive delta is a no-op", func(t *testing.T) {
		l := newMemLedger()
		for _, delta := range []float64{0, -5} {
			e, err := AdjustQuantity(ctx, l, owner, "ing-x", delta, now)
			require.NoError(t, err)
			assert.Nil(t, e)
		}
		assert.Empty(t, l.pantry)
	})

	t.Run("absent with positive delta creates", func(t *testing.T) {
		l := newMemLedger()
		e, err := AdjustQuantity(ctx, l, owner, "ing-x", 3, now)
		require.NoError(t, err)
		require.NotNil(t, e)
		assert.InDelta(t, 3, e.Quantity, 1e-9)
	})

	t.Run("floors at zero", func(t *testing.T) {
		l := newMemLedger()
		l.stock(owner, "ing-x", 2)
		e, err := AdjustQuantity(ctx, l, owner, "ing-x", -10, now)
		require.NoError(t, err)
		require.NotNil(t, e)
		assert.Zero(t, e.Quantity)

		qty, ok := l.onHand(owner, "ing-x")
		assert.True(t, ok, "zero entries are kept")
		assert.Zero(t, qty)
	})

	t.Run("adds to existing", func(t *testing.T) {
		l := newMemLedger()
		l.stock(owner, "ing-x", 2)
		e, err := AdjustQuantity(ctx, l, owner, "ing-x", 1.5, now)
		require.NoError(t, err)
		assert.InDelta(t, 3.5, e.Quantity, 1e-9)
	})
}

func TestAdjustQuantity_NeverNegativeAndUnique(t *testing.T) {
	l := newMemLedger()
	ctx := context.Background()
	r := rand.New(rand.NewPCG(1, 2))

	for range 500 {
		ing := []string{"ing-x", "ing-y", "ing-z"}[r.IntN(3)]
		delta := r.Float64()*20 - 10
		if r.IntN(10) == 0 {
			_, err := SetQuantity(ctx, l, owner, ing, r.Float64()*10, now)
			require.NoError(t, err)
			continue
		}
		_, err := AdjustQuantity(ctx, l, owner, ing, delta, now)
		require.NoError(t, err)

		seen := map[string]int{}
		for _, e := range l.pantry {
			assert.GreaterOrEqual(t, e.Quantity, 0.0)
			seen[e.OwnerID+"/"+e.IngredientID]++
		}
		for k, n := range seen {
			assert.Equal(t, 1, n, "duplicate pantry entry for %s", k)
		}
	}
}

func TestShoppingList_OneEntryPerIngredient(t *testing.T) {
	l := newMemLedger()
	ctx := context.Background()
	l.addRecipe(singleLine("rcp-a", "ing-x", 4))
	l.plan("mpl-1", owner, "rcp-a", "2026-03-02", "dinner")

	_, err := AddToShoppingList(ctx, l, owner, "ing-x", 1, now)
	require.NoError(t, err)
	cook(t, l, "rcp-a", 4)
	generate(t, l, "2026-03-01", "2026-03-07")
	_, err = AddToShoppingList(ctx, l, owner, "ing-x", 2, now)
	require.NoError(t, err)

	assert.Len(t, l.shopping, 1)
	shop, _ := l.shoppingQty(owner, "ing-x")
	assert.InDelta(t, 7, shop, 1e-9, "1 + 4 from cook, plan leaves 5 >= 4, then + 2")
}
