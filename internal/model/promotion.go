package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/game-store/internal/apperr"
)

// PromotionKind selects how a promotion changes the base price.  The zero
// value is PromotionNone so an unset Promotion is never active.
type PromotionKind uint8

const (
	PromotionNone PromotionKind = iota
	PromotionFixedDiscount
	PromotionPercentageDiscount
)

var hundred = decimal.NewFromInt(100)

// String returns the value stored in catalog_entries.promotion_kind.
func (k PromotionKind) String() string {
	switch k {
	case PromotionFixedDiscount:
		return "FIXED_DISCOUNT"
	case PromotionPercentageDiscount:
		return "PERCENTAGE_DISCOUNT"
	default:
		return "NONE"
	}
}

// ParsePromotionKind accepts the stored form (FIXED_DISCOUNT) as well as the
// camel-case form used by API clients (FixedDiscount), case-insensitively.
func ParsePromotionKind(s string) (PromotionKind, bool) {
	norm := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "_", ""))
	switch norm {
	case "", "NONE":
		return PromotionNone, true
	case "FIXEDDISCOUNT", "FIXED":
		return PromotionFixedDiscount, true
	case "PERCENTAGEDISCOUNT", "PERCENTAGE", "PERCENT":
		return PromotionPercentageDiscount, true
	}
	return PromotionNone, false
}

// Promotion is an immutable, time-windowed discount rule attached to a
// catalog entry.  Two promotions are equal when all four fields are equal
// (see Equal).  Both window bounds are inclusive.
//
// Fields:
//  Kind    – None, FixedDiscount or PercentageDiscount.
//  Value   – amount off (fixed) or percent off (percentage); never negative.
//  StartAt – first instant the promotion is active.
//  EndAt   – last instant the promotion is active.
type Promotion struct {
	Kind    PromotionKind   // catalog_entries.promotion_kind
	Value   decimal.Decimal // catalog_entries.promotion_value
	StartAt time.Time       // catalog_entries.promotion_start_at
	EndAt   time.Time       // catalog_entries.promotion_end_at
}

// NoPromotion returns the None promotion.
func NoPromotion() Promotion { return Promotion{} }

// NewPromotion validates and builds a promotion.  A None kind ignores the
// other arguments.  For any other kind the window must satisfy end > start
// and the value must fit a money column: not negative, at most two decimal
// places, below 10^10.
func NewPromotion(kind PromotionKind, value decimal.Decimal, startAt, endAt time.Time) (Promotion, error) {
	switch kind {
	case PromotionNone:
		return NoPromotion(), nil
	case PromotionFixedDiscount, PromotionPercentageDiscount:
	default:
		return Promotion{}, apperr.Validation("unknown promotion kind")
	}
	if err := checkMoney("promotion value", value); err != nil {
		return Promotion{}, err
	}
	if !endAt.After(startAt) {
		return Promotion{}, apperr.Validation("promotion end must be after its start")
	}
	return Promotion{Kind: kind, Value: value, StartAt: startAt.UTC(), EndAt: endAt.UTC()}, nil
}

// IsActive reports whether the promotion applies at now.
func (p Promotion) IsActive(now time.Time) bool {
	if p.Kind == PromotionNone {
		return false
	}
	return !now.Before(p.StartAt) && !now.After(p.EndAt)
}

// ApplyDiscount returns base reduced by the promotion when it is active at
// now.  The result is not clamped: a fixed amount above base or a
// percentage above 100 yields a negative value, which CatalogEntry floors.
func (p Promotion) ApplyDiscount(base decimal.Decimal, now time.Time) decimal.Decimal {
	if !p.IsActive(now) {
		return base
	}
	switch p.Kind {
	case PromotionFixedDiscount:
		return base.Sub(p.Value)
	case PromotionPercentageDiscount:
		return base.Mul(decimal.NewFromInt(1).Sub(p.Value.Div(hundred)))
	}
	return base
}

// Equal compares promotions by value.
func (p Promotion) Equal(o Promotion) bool {
	if p.Kind == PromotionNone && o.Kind == PromotionNone {
		return true
	}
	return p.Kind == o.Kind &&
		p.Value.Equal(o.Value) &&
		p.StartAt.Equal(o.StartAt) &&
		p.EndAt.Equal(o.EndAt)
}
