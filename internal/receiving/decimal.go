package receiving

import (
	"fmt"

	"github.com/shopspring/decimal"
)

func parseCost(value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Decimal{}, fmt.Errorf("%w: unit cost required", ErrValidation)
	}
	cost, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: unit cost: %v", ErrValidation, err)
	}
	if cost.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("%w: unit cost must be >= 0", ErrValidation)
	}
	return cost, nil
}
