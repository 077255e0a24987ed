package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/game-store/internal/apperr"
	"github.com/iliyamo/game-store/internal/model"
)

func TestRegisterValidatesAndRejectsDuplicateEAN(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v, err := f.catalog.Register(ctx, model.GameInfo{EAN: "A", Title: "Alpha", Genre: "RPG"}, decimal.RequireFromString("59.90"))
	require.NoError(t, err)
	assert.Equal(t, "59.90", v.Price)
	assert.Equal(t, "59.90", v.FinalPrice)
	assert.True(t, v.Available)
	assert.Nil(t, v.Promotion)

	_, err = f.catalog.Register(ctx, model.GameInfo{EAN: "A", Title: "Other", Genre: "RPG"}, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = f.catalog.Register(ctx, model.GameInfo{EAN: "B"}, decimal.NewFromInt(-1))
	var aerr *apperr.Error
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, apperr.CodeValidation, aerr.Code)
	assert.Len(t, aerr.Messages, 2)
}

func TestApplyPromotionDefaultsWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.register(t, "A", 100)

	v, err := f.catalog.ApplyPromotion(ctx, id, model.PromotionFixedDiscount, decimal.NewFromInt(20), nil, nil)
	require.NoError(t, err)
	require.NotNil(t, v.Promotion)
	assert.Equal(t, "FIXED_DISCOUNT", v.Promotion.Kind)
	assert.Equal(t, t0, v.Promotion.StartAt)
	assert.Equal(t, t0.AddDate(0, 1, 0), v.Promotion.EndAt)
	assert.True(t, v.Promotion.Active)
	assert.Equal(t, "80.00", v.FinalPrice)

	f.clock.Set(t0.AddDate(0, 2, 0))
	got, err := f.catalog.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "100.00", got.FinalPrice)
	assert.False(t, got.Promotion.Active)
}

func TestApplyPromotionRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.register(t, "A", 100)

	_, err := f.catalog.ApplyPromotion(ctx, id, model.PromotionFixedDiscount, decimal.Zero, nil, nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.catalog.ApplyPromotion(ctx, id, model.PromotionNone, decimal.NewFromInt(5), nil, nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.catalog.ApplyPromotion(ctx, id, model.PromotionFixedDiscount, decimal.NewFromInt(5), ptr(t0), ptr(t0.Add(-time.Hour)))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.catalog.ApplyPromotion(ctx, 999, model.PromotionFixedDiscount, decimal.NewFromInt(5), nil, nil)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPercentageAboveHundredClampsToZero(t *testing.T) {
	f := newFixture(t)
	id := f.register(t, "A", 50)

	v, err := f.catalog.ApplyPromotion(context.Background(), id, model.PromotionPercentageDiscount, decimal.NewFromInt(150), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "0.00", v.FinalPrice)
}

func TestUpdatePriceRejectsNegative(t *testing.T) {
	f := newFixture(t)
	id := f.register(t, "A", 50)

	_, err := f.catalog.UpdatePrice(context.Background(), id, decimal.NewFromInt(-5))
	assert.ErrorIs(t, err, apperr.ErrValidation)

	v, err := f.catalog.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "50.00", v.Price)
}

func TestRemoveKeepsLibraryAndHidesEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "A", 10)
	f.register(t, "B", 10)

	_, err := f.purchase.PurchaseSingle(ctx, 1, a)
	require.NoError(t, err)
	require.NoError(t, f.catalog.Remove(ctx, a))
	require.NoError(t, f.catalog.Remove(ctx, a))

	list, err := f.catalog.ListAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "B", list[0].EAN)

	got, err := f.catalog.Get(ctx, a)
	require.NoError(t, err)
	assert.False(t, got.Available)
	assert.Equal(t, 1, f.librarySize(t, 1))

	assert.ErrorIs(t, f.catalog.Remove(ctx, 999), apperr.ErrNotFound)
}

func TestListPromotionalFollowsClock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "A", 40)
	b := f.register(t, "B", 60)
	c := f.register(t, "C", 80)

	_, err := f.catalog.ApplyPromotion(ctx, a, model.PromotionFixedDiscount, decimal.NewFromInt(5),
		ptr(t0.Add(-time.Hour)), ptr(t0.Add(time.Hour)))
	require.NoError(t, err)
	_, err = f.catalog.ApplyPromotion(ctx, b, model.PromotionPercentageDiscount, decimal.NewFromInt(50),
		ptr(t0.Add(2*time.Hour)), ptr(t0.Add(4*time.Hour)))
	require.NoError(t, err)
	_, err = f.catalog.ApplyPromotion(ctx, c, model.PromotionFixedDiscount, decimal.NewFromInt(10), nil, nil)
	require.NoError(t, err)
	require.NoError(t, f.catalog.Remove(ctx, c))

	ids := func() []uint64 {
		out, err := f.catalog.ListPromotional(ctx)
		require.NoError(t, err)
		var got []uint64
		for _, v := range out {
			require.NotNil(t, v.Promotion)
			assert.True(t, v.Promotion.Active)
			got = append(got, v.ID)
		}
		return got
	}

	assert.Equal(t, []uint64{a}, ids())

	f.clock.Set(t0.Add(time.Hour))
	assert.Equal(t, []uint64{a}, ids())

	f.clock.Set(t0.Add(3 * time.Hour))
	assert.Equal(t, []uint64{b}, ids())

	f.clock.Set(t0.Add(5 * time.Hour))
	out, err := f.catalog.ListPromotional(ctx)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestUpdateInfoKeepsEANAndLibraryCopy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.register(t, "A", 10)
	_, err := f.purchase.PurchaseSingle(ctx, 1, id)
	require.NoError(t, err)

	desc := "Remastered"
	v, err := f.catalog.UpdateInfo(ctx, id, "Game A HD", "Action", &desc)
	require.NoError(t, err)
	assert.Equal(t, "A", v.EAN)
	assert.Equal(t, "Game A HD", v.Title)
	assert.Equal(t, "Remastered", *v.Description)

	_, err = f.catalog.UpdateInfo(ctx, id, " ", "Action", nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = f.catalog.UpdateInfo(ctx, 999, "x", "y", nil)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	lib, err := f.library.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, lib, 1)
	assert.Equal(t, "Game A", lib[0].Title)
}

func TestCatalogTimestampsUseInjectedClock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.register(t, "A", 10)

	e, err := f.store.GetCatalogEntry(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, t0, e.CreatedAt)
	assert.Equal(t, t0, e.UpdatedAt)

	f.clock.Advance(90 * time.Minute)
	_, err = f.catalog.UpdatePrice(ctx, id, decimal.NewFromInt(12))
	require.NoError(t, err)
	e, err = f.store.GetCatalogEntry(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, t0, e.CreatedAt)
	assert.Equal(t, t0.Add(90*time.Minute), e.UpdatedAt)

	_, err = f.carts.AddItem(ctx, 1, id)
	require.NoError(t, err)
	cart, err := f.store.GetCart(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, t0.Add(90*time.Minute), cart.CreatedAt)
}
