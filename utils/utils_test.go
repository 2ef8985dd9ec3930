package utils

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseDecimal(t *testing.T) {
	cases := []struct {
		name string
		in   interface{}
		want string
	}{
		{"plain string", "12.5", "12.5"},
		{"formatted string", " $ 1,200.50 ", "1200.5"},
		{"negative string", "-3", "-3"},
		{"float", 3.62, "3.62"},
		{"json number", json.Number("0.25"), "0.25"},
		{"int", 7, "7"},
		{"decimal", decimal.RequireFromString("1.1"), "1.1"},
	}
	for _, tc := range cases {
		got, err := ParseDecimal("qty", tc.in)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}

	bad := []interface{}{"", "abc", nil, math.NaN(), math.Inf(1), []int{1}}
	for _, in := range bad {
		_, err := ParseDecimal("qty", in)
		if !IsInvalidInput(err) {
			t.Fatalf("%v: expected invalid input, got %v", in, err)
		}
		var ie *InvalidInputError
		if errors.As(err, &ie) && ie.Field != "qty" {
			t.Fatalf("%v: expected field qty, got %q", in, ie.Field)
		}
	}
}

func TestParseNonNegativeDecimal(t *testing.T) {
	if _, err := ParseNonNegativeDecimal("price", "-0.01"); !IsInvalidInput(err) {
		t.Fatalf("expected invalid input for negative, got %v", err)
	}
	got, err := ParseNonNegativeDecimal("price", "0")
	if err != nil || !got.IsZero() {
		t.Fatalf("zero should be accepted: %s %v", got, err)
	}
}

func TestErrorKinds(t *testing.T) {
	base := errors.New("connection refused")
	rf := RemoteFailure("list sales", base)
	if !IsRemoteFailure(rf) || !errors.Is(rf, base) {
		t.Fatalf("expected remote failure wrapping base, got %v", rf)
	}
	if again := RemoteFailure("outer", rf); again != rf {
		t.Fatalf("remote failures should not be wrapped twice: %v", again)
	}
	if RemoteFailure("noop", nil) != nil {
		t.Fatalf("nil error should stay nil")
	}

	stock := &InsufficientStockError{Lines: []StockShortfall{{LineId: 1, Name: "Salsa", Ingredients: []string{"Tomate"}}}}
	if !IsInsufficientStock(stock) || stock.Error() != "insufficient stock for: Salsa (Tomate)" {
		t.Fatalf("unexpected insufficient stock error %q", stock.Error())
	}
	if IsValidationError(stock) || IsInvalidInput(stock) {
		t.Fatalf("insufficient stock misclassified")
	}
}

func TestValidationErrorOrNil(t *testing.T) {
	verr := &ValidationError{}
	if verr.OrNil() != nil {
		t.Fatalf("empty validation error should be nil")
	}
	verr.Add("name", "is required")
	err := verr.OrNil()
	if !IsValidationError(err) || !verr.HasField("name") || verr.HasField("price") {
		t.Fatalf("unexpected %v", err)
	}
}

func TestValidateStruct(t *testing.T) {
	type form struct {
		Name  string          `json:"name" validate:"required,min=2"`
		Price decimal.Decimal `json:"price" validate:"min=0"`
	}
	if err := ValidateStruct(&form{Name: "Pan", Price: decimal.NewFromInt(3)}); err != nil {
		t.Fatalf("unexpected error %v", err)
	}

	err := ValidateStruct(&form{Name: "", Price: decimal.NewFromInt(-1)})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !verr.HasField("name") || !verr.HasField("price") {
		t.Fatalf("expected json field names, got %+v", verr.Fields)
	}
}
