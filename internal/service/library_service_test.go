package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/game-store/internal/apperr"
)

func TestRecentDefaultsToFive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, ean := range []string{"A", "B", "C", "D", "E", "F", "G"} {
		id := f.register(t, ean, 10)
		_, err := f.purchase.PurchaseSingle(ctx, 1, id)
		require.NoError(t, err)
		f.clock.Advance(time.Minute)
	}

	recent, err := f.library.Recent(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, recent, DefaultRecentLimit)
	assert.Equal(t, "G", recent[0].EAN)

	two, err := f.library.Recent(ctx, 1, 2)
	require.NoError(t, err)
	assert.Len(t, two, 2)

	all, err := f.library.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, all, 7)
}

func TestLibraryGetIsScopedToPlayer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.register(t, "A", 10)
	le, err := f.purchase.PurchaseSingle(ctx, 1, id)
	require.NoError(t, err)

	v, err := f.library.Get(ctx, 1, le.ID)
	require.NoError(t, err)
	assert.Equal(t, "10.00", v.PurchasePrice)

	_, err = f.library.Get(ctx, 2, le.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCanPurchase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "A", 10)
	b := f.register(t, "B", 10)

	ok, err := f.library.CanPurchase(ctx, 1, a)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = f.purchase.PurchaseSingle(ctx, 1, a)
	require.NoError(t, err)
	ok, err = f.library.CanPurchase(ctx, 1, a)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, f.catalog.Remove(ctx, b))
	ok, err = f.library.CanPurchase(ctx, 1, b)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.library.CanPurchase(ctx, 1, 999)
	require.NoError(t, err)
	assert.False(t, ok)
}
