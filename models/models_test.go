package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestStockStatus(t *testing.T) {
	cases := []struct {
		stock, min string
		want       IngredientStatus
	}{
		{"8.5", "10", IngredientStatusLowStock},
		{"10", "10", IngredientStatusLowStock},
		{"10.01", "10", IngredientStatusInStock},
		{"-2", "0", IngredientStatusLowStock},
	}
	for _, tc := range cases {
		if got := StockStatus(d(tc.stock), d(tc.min)); got != tc.want {
			t.Fatalf("stock %s min %s: got %q, want %q", tc.stock, tc.min, got, tc.want)
		}
	}
}

func TestNewIngredientToIngredient(t *testing.T) {
	input := &NewIngredient{Name: "  Tomates Perita ", Category: "Verduras", Unit: "Kg", Price: d("850"), Stock: d("45"), MinStock: d("15")}
	if err := input.Validate(); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	ing := input.ToIngredient("biz")
	if ing.Name != "Tomates Perita" || ing.Status != IngredientStatusInStock || ing.BusinessId != "biz" {
		t.Fatalf("unexpected ingredient %+v", ing)
	}
	if !ing.StockValue().Equal(d("38250")) {
		t.Fatalf("stock value: got %s", ing.StockValue())
	}
	if input.Changes()["status"] != IngredientStatusInStock {
		t.Fatalf("changes should carry the derived status")
	}

	bad := &NewIngredient{Name: "x", Unit: "Kg", Price: d("-1")}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestRecipeFigures(t *testing.T) {
	r := &Recipe{
		Name:     "Pizza",
		Portions: 2,
		Price:    d("1000"),
		Ingredients: []*RecipeIngredient{
			{Name: "Harina", Quantity: d("0.5"), UnitCost: d("1200")},
			{Name: "Tomate", Quantity: d("0.2"), UnitCost: d("850")},
		},
	}
	f := r.Figures()
	if !f.TotalCost.Equal(d("770")) || !f.CostPerPortion.Equal(d("385")) || !f.MarginPercent.Equal(d("61.5")) {
		t.Fatalf("unexpected figures %+v", f)
	}

	r.Portions = 0
	if r.EffectivePortions() != 1 {
		t.Fatalf("portions below one count as one")
	}
	r.Price = decimal.Zero
	if !r.MarginPercent().IsZero() {
		t.Fatalf("unpriced recipe has zero margin")
	}

	c := r.Clone()
	c.Ingredients[0].Quantity = d("9")
	if !r.Ingredients[0].Quantity.Equal(d("0.5")) {
		t.Fatalf("clone shares lines with the original")
	}
}

func TestSaleHelpers(t *testing.T) {
	if got := FormatSaleNumber(42); got != "S-000042" {
		t.Fatalf("got %q", got)
	}
	s := &Sale{Status: SaleStatusPending, Items: []*SaleItem{
		{ProductName: "Pizza", Quantity: 2, Price: d("12.99")},
		{ProductName: "Agua", Quantity: 1, Price: d("1.5")},
	}}
	if !s.IsReservation() || s.ItemCount() != 3 {
		t.Fatalf("unexpected sale helpers %v %d", s.IsReservation(), s.ItemCount())
	}
	if !s.Items[0].Subtotal().Equal(d("25.98")) {
		t.Fatalf("subtotal: got %s", s.Items[0].Subtotal())
	}
}
