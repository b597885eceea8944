package validation

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func PositiveFloat(field string, val float64, v Violations) {
	if val <= 0 {
		v[field] = "must_be_positive"
	}
}

func PositiveDecimal(field string, val decimal.Decimal, v Violations) {
	if !val.IsPositive() {
		v[field] = "must_be_positive"
	}
}

func OneOf(field, value string, allowed []string, v Violations) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v[field] = "unknown_value"
}
