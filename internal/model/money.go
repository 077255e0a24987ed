package model

import (
	"github.com/shopspring/decimal"

	"github.com/iliyamo/game-store/internal/apperr"
)

// Money columns are DECIMAL(12,2).
const moneyScale = 2

// maxMoney is the smallest value a DECIMAL(12,2) column cannot hold.
var maxMoney = decimal.New(1, 12-moneyScale)

// checkMoney rejects amounts a money column would reject or silently round:
// negatives, more than two decimal places and ten or more integer digits.
func checkMoney(field string, v decimal.Decimal) error {
	switch {
	case v.IsNegative():
		return apperr.Validation(field + " must not be negative")
	case !v.Equal(v.Truncate(moneyScale)):
		return apperr.Validation(field + " must have at most two decimal places")
	case v.GreaterThanOrEqual(maxMoney):
		return apperr.Validation(field + " must be less than " + maxMoney.String())
	}
	return nil
}
