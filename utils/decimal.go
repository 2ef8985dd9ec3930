package utils

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseDecimal turns user input into a decimal.
// Accepts formatted strings like "1,200", "$ 850.50" or "-3".
// NaN, infinities and anything unparseable are rejected as invalid input for field.
func ParseDecimal(field string, i interface{}) (decimal.Decimal, error) {
	switch v := i.(type) {
	case decimal.Decimal:
		return v, nil
	case string:
		s := strings.TrimSpace(v)
		s = strings.ReplaceAll(s, ",", "")
		s = strings.ReplaceAll(s, "$", "")
		s = strings.ReplaceAll(s, " ", "")
		if s == "" {
			return decimal.Zero, InvalidInput(field, "value is required")
		}
		val, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, InvalidInput(field, fmt.Sprintf("%q is not a number", v))
		}
		return val, nil
	case json.Number:
		val, err := decimal.NewFromString(v.String())
		if err != nil {
			return decimal.Zero, InvalidInput(field, fmt.Sprintf("%q is not a number", v.String()))
		}
		return val, nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero, InvalidInput(field, "must be a finite number")
		}
		return decimal.NewFromFloat(v), nil
	case float32:
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Zero, InvalidInput(field, "must be a finite number")
		}
		return decimal.NewFromFloat32(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case nil:
		return decimal.Zero, InvalidInput(field, "value is required")
	default:
		return decimal.Zero, InvalidInput(field, fmt.Sprintf("unsupported value %v", v))
	}
}

// ParseNonNegativeDecimal is ParseDecimal plus a >= 0 check.
func ParseNonNegativeDecimal(field string, i interface{}) (decimal.Decimal, error) {
	val, err := ParseDecimal(field, i)
	if err != nil {
		return decimal.Zero, err
	}
	if val.IsNegative() {
		return decimal.Zero, InvalidInput(field, "must be >= 0")
	}
	return val, nil
}
