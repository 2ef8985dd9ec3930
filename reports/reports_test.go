package reports

import (
	"bytes"
	"testing"
	"time"

	"github.com/mmdatafocus/kitchen_backend/models"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func saleAt(t time.Time, total string, status models.SaleStatus) *models.Sale {
	return &models.Sale{CreatedAt: t, Total: d(total), Status: status, PaymentMethod: models.PaymentMethodCash}
}

func TestBuildSalesReport(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, 3, 8, 15, 0, 0, 0, loc)
	from, to := DefaultRange(now, loc)
	sales := []*models.Sale{
		saleAt(time.Date(2026, 3, 2, 12, 0, 0, 0, loc), "40", models.SaleStatusCompleted),
		saleAt(time.Date(2026, 3, 6, 20, 0, 0, 0, loc), "68.9", models.SaleStatusCompleted),
		saleAt(time.Date(2026, 3, 6, 21, 0, 0, 0, loc), "15", models.SaleStatusPending),
		saleAt(time.Date(2026, 3, 8, 9, 0, 0, 0, loc), "20", models.SaleStatusCompleted),
		// outside the range
		saleAt(time.Date(2026, 2, 20, 9, 0, 0, 0, loc), "999", models.SaleStatusCompleted),
	}
	r := BuildSalesReport(sales, from, to, now, loc)

	if r.From != "2026-03-02" || r.To != "2026-03-08" || len(r.Days) != 7 {
		t.Fatalf("unexpected range %s..%s with %d days", r.From, r.To, len(r.Days))
	}
	if !r.Total.Equal(d("143.9")) || r.Tickets != 4 {
		t.Fatalf("unexpected totals %s / %d", r.Total, r.Tickets)
	}
	if !r.AveragePerDay.Equal(d("20.56")) {
		t.Fatalf("expected average per day 20.56, got %s", r.AveragePerDay)
	}
	if !r.AverageTicket.Equal(d("35.98")) {
		t.Fatalf("expected average ticket 35.98, got %s", r.AverageTicket)
	}
	if r.BestDay == nil || r.BestDay.Date != "2026-03-06" || !r.BestDay.Total.Equal(d("83.9")) {
		t.Fatalf("unexpected best day %+v", r.BestDay)
	}
	if r.Today.Date != "2026-03-08" || r.Today.Tickets != 1 || !r.Today.Total.Equal(d("20")) {
		t.Fatalf("unexpected today %+v", r.Today)
	}
	if r.PendingCount != 1 || !r.PendingTotal.Equal(d("15")) {
		t.Fatalf("unexpected pending %d / %s", r.PendingCount, r.PendingTotal)
	}
	if r.Days[1].Tickets != 0 || !r.Days[1].Total.IsZero() {
		t.Fatalf("empty day should be zero-filled, got %+v", r.Days[1])
	}
}

func TestBuildSalesReportEmpty(t *testing.T) {
	now := time.Date(2026, 3, 8, 15, 0, 0, 0, time.UTC)
	r := BuildSalesReport(nil, now, now.AddDate(0, 0, -2), now, time.UTC)
	if len(r.Days) != 3 || r.BestDay != nil || !r.AveragePerDay.IsZero() {
		t.Fatalf("unexpected empty report %+v", r)
	}
}

func TestTopRecipes(t *testing.T) {
	burger := &models.Recipe{ID: 1, Name: "Hamburguesa Especial", Portions: 1, Price: d("12.99"), Ingredients: []*models.RecipeIngredient{
		{Quantity: d("1"), UnitCost: d("4.50")},
	}}
	lemonade := &models.Recipe{ID: 2, Name: "Limonada de Coco", Portions: 1, Price: d("4.50"), Ingredients: []*models.RecipeIngredient{
		{Quantity: d("1"), UnitCost: d("1.20")},
	}}
	free := &models.Recipe{ID: 3, Name: "Agua", Portions: 1}
	one := 1
	sales := []*models.Sale{{Items: []*models.SaleItem{{RecipeId: &one, Quantity: 3, Price: d("12.99")}}}}

	top := TopRecipes([]*models.Recipe{burger, free, lemonade}, sales, 2)
	if len(top) != 2 {
		t.Fatalf("expected 2 recipes, got %d", len(top))
	}
	if top[0].Name != "Limonada de Coco" || !top[0].MarginPercent.Equal(d("73.33")) {
		t.Fatalf("unexpected first %+v", top[0])
	}
	if top[1].UnitsSold != 3 || !top[1].Revenue.Equal(d("38.97")) {
		t.Fatalf("unexpected burger sales %+v", top[1])
	}
}

func TestExportSalesExcel(t *testing.T) {
	now := time.Date(2026, 3, 8, 15, 0, 0, 0, time.UTC)
	sale := saleAt(now, "25", models.SaleStatusCompleted)
	sale.SaleNumber = "S-000001"
	sale.Items = []*models.SaleItem{
		{ProductName: "Empanada", Quantity: 2, Price: d("10")},
		{ProductName: "Agua", Quantity: 1, Price: d("5")},
	}
	report := BuildSalesReport([]*models.Sale{sale}, now, now, now, time.UTC)

	var buf bytes.Buffer
	if err := ExportSalesExcel(&buf, report, []*models.Sale{sale}); err != nil {
		t.Fatalf("ExportSalesExcel: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	if got := f.GetSheetList(); len(got) != 3 || got[0] != "Summary" {
		t.Fatalf("unexpected sheets %v", got)
	}
	if v, _ := f.GetCellValue("Sales", "A2"); v != "S-000001" {
		t.Fatalf("expected sale number in Sales!A2, got %q", v)
	}
	if v, _ := f.GetCellValue("Items", "B3"); v != "Agua" {
		t.Fatalf("expected second item in Items!B3, got %q", v)
	}
	if v, _ := f.GetCellValue("Summary", "A3"); v != "Total" {
		t.Fatalf("expected total row in Summary!A3, got %q", v)
	}
}
