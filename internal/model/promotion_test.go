package model

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/game-store/internal/apperr"
)

var (
	t0    = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	start = t0.Add(-24 * time.Hour)
	end   = t0.Add(24 * time.Hour)
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func mustPromotion(t *testing.T, kind PromotionKind, value string) Promotion {
	t.Helper()
	p, err := NewPromotion(kind, dec(value), start, end)
	require.NoError(t, err)
	return p
}

func TestNewPromotionRejectsBadWindow(t *testing.T) {
	_, err := NewPromotion(PromotionFixedDiscount, dec("5"), end, start)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = NewPromotion(PromotionPercentageDiscount, dec("5"), start, start)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestNewPromotionRejectsNegativeValueAndUnknownKind(t *testing.T) {
	_, err := NewPromotion(PromotionFixedDiscount, dec("-1"), start, end)
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = NewPromotion(PromotionKind(42), dec("1"), start, end)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestNewPromotionValueMustFitMoneyColumn(t *testing.T) {
	_, err := NewPromotion(PromotionPercentageDiscount, dec("12.345"), start, end)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = NewPromotion(PromotionFixedDiscount, dec("10000000000"), start, end)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	p, err := NewPromotion(PromotionFixedDiscount, dec("9999999999.99"), start, end)
	require.NoError(t, err)
	assert.True(t, p.Value.Equal(dec("9999999999.99")))
}

func TestNonePromotionIsNeverActive(t *testing.T) {
	p, err := NewPromotion(PromotionNone, dec("50"), end, start)
	require.NoError(t, err)
	assert.False(t, p.IsActive(t0))
	assert.True(t, p.ApplyDiscount(dec("100"), t0).Equal(dec("100")))
	assert.True(t, p.Equal(NoPromotion()))
}

func TestIsActiveBoundsAreInclusive(t *testing.T) {
	p := mustPromotion(t, PromotionFixedDiscount, "10")

	cases := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"before start", start.Add(-time.Nanosecond), false},
		{"at start", start, true},
		{"inside", t0, true},
		{"at end", end, true},
		{"after end", end.Add(time.Nanosecond), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, p.IsActive(tc.at))
		})
	}
}

func TestApplyDiscount(t *testing.T) {
	cases := []struct {
		name  string
		kind  PromotionKind
		value string
		base  string
		at    time.Time
		want  string
	}{
		{"fixed active", PromotionFixedDiscount, "20", "100", t0, "80"},
		{"percentage active", PromotionPercentageDiscount, "25", "80", t0, "60"},
		{"fixed larger than price is not clamped", PromotionFixedDiscount, "30", "20", t0, "-10"},
		{"percentage above 100 is not clamped", PromotionPercentageDiscount, "150", "50", t0, "-25"},
		{"inactive returns base", PromotionFixedDiscount, "20", "100", end.Add(time.Hour), "100"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := mustPromotion(t, tc.kind, tc.value)
			got := p.ApplyDiscount(dec(tc.base), tc.at)
			assert.True(t, got.Equal(dec(tc.want)), "got %s want %s", got, tc.want)
		})
	}
}

func TestPromotionEqualByValue(t *testing.T) {
	a := mustPromotion(t, PromotionFixedDiscount, "10")
	b := mustPromotion(t, PromotionFixedDiscount, "10.00")
	c := mustPromotion(t, PromotionPercentageDiscount, "10")

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(NoPromotion()))
}

func TestParsePromotionKind(t *testing.T) {
	cases := map[string]PromotionKind{
		"FixedDiscount":       PromotionFixedDiscount,
		"FIXED_DISCOUNT":      PromotionFixedDiscount,
		"percentageDiscount":  PromotionPercentageDiscount,
		"PERCENTAGE_DISCOUNT": PromotionPercentageDiscount,
		"none":                PromotionNone,
	}
	for in, want := range cases {
		got, ok := ParsePromotionKind(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
		if want != PromotionNone {
			back, ok := ParsePromotionKind(got.String())
			assert.True(t, ok)
			assert.Equal(t, got, back)
		}
	}
	_, ok := ParsePromotionKind("bundle")
	assert.False(t, ok)
}
