package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/mmdatafocus/kitchen_backend/models"
	"github.com/mmdatafocus/kitchen_backend/store"
	"github.com/mmdatafocus/kitchen_backend/utils"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testCtx() context.Context {
	return utils.SetBusinessIdInContext(context.Background(), "biz-test")
}

// flakyStore fails ingredient updates while broken is set.
type flakyStore struct {
	*store.MemoryStore
	broken bool
}

func (f *flakyStore) UpdateIngredient(ctx context.Context, id int, changes map[string]interface{}) (*models.Ingredient, error) {
	if f.broken {
		return nil, errors.New("deadline exceeded")
	}
	return f.MemoryStore.UpdateIngredient(ctx, id, changes)
}

func TestUpdateStockRecomputesStatus(t *testing.T) {
	ctx := testCtx()
	book := NewBook(store.NewMemoryStore())
	ing, err := book.Add(ctx, &models.NewIngredient{Name: "Aceite", Category: "Aceites", Unit: "L", Price: d("8900"), Stock: d("4"), MinStock: d("5")})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if ing.Status != models.IngredientStatusLowStock {
		t.Fatalf("expected Low Stock, got %s", ing.Status)
	}
	got, err := book.UpdateStock(ctx, ing.ID, d("2"))
	if err != nil {
		t.Fatalf("UpdateStock: %v", err)
	}
	if !got.Stock.Equal(d("6")) || got.Status != models.IngredientStatusInStock {
		t.Fatalf("expected 6 In Stock, got %s %s", got.Stock, got.Status)
	}
	got, _ = book.UpdateStock(ctx, ing.ID, d("-1"))
	if got.Status != models.IngredientStatusLowStock {
		t.Fatalf("stock equal to min should be Low Stock, got %s", got.Status)
	}
}

func TestUpdateStockRollsBackOnRemoteFailure(t *testing.T) {
	ctx := testCtx()
	fs := &flakyStore{MemoryStore: store.NewMemoryStore()}
	book := NewBook(fs)
	ing, err := book.Add(ctx, &models.NewIngredient{Name: "Harina", Category: "Secos", Unit: "Kg", Price: d("1200"), Stock: d("8.5"), MinStock: d("10")})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	fs.broken = true
	if _, err := book.UpdateStock(ctx, ing.ID, d("5")); !utils.IsRemoteFailure(err) {
		t.Fatalf("expected RemoteFailure, got %v", err)
	}
	local, _ := book.Get(ing.ID)
	if !local.Stock.Equal(d("8.5")) || local.Status != models.IngredientStatusLowStock {
		t.Fatalf("local state not rolled back: %s %s", local.Stock, local.Status)
	}
	stored, _ := fs.GetIngredient(ctx, ing.ID)
	if !stored.Stock.Equal(d("8.5")) {
		t.Fatalf("store should be untouched, got %s", stored.Stock)
	}

	fs.broken = false
	if _, err := book.UpdateStock(ctx, ing.ID, d("5")); err != nil {
		t.Fatalf("retry: %v", err)
	}
	local, _ = book.Get(ing.ID)
	if !local.Stock.Equal(d("13.5")) {
		t.Fatalf("expected 13.5 after retry, got %s", local.Stock)
	}
}

func TestUpdateStockUnknownIngredient(t *testing.T) {
	book := NewBook(store.NewMemoryStore())
	if _, err := book.UpdateStock(testCtx(), 42, d("1")); !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("expected ErrorRecordNotFound, got %v", err)
	}
}

func TestAddValidation(t *testing.T) {
	book := NewBook(store.NewMemoryStore())
	_, err := book.Add(testCtx(), &models.NewIngredient{Name: "X", Price: d("-1")})
	var verr *utils.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"name", "category", "unit", "price"} {
		if !verr.HasField(field) {
			t.Fatalf("expected %s in %+v", field, verr.Fields)
		}
	}
	if len(book.Ingredients()) != 0 {
		t.Fatalf("invalid ingredient must not be stored")
	}
}

func TestSummary(t *testing.T) {
	ctx := testCtx()
	mem := store.NewMemoryStore()
	seed := []*models.NewIngredient{
		{Name: "Harina de Trigo 000", Category: "Secos", Unit: "Kg", Price: d("1200"), Stock: d("8.5"), MinStock: d("10")},
		{Name: "Tomates Perita", Category: "Verduras", Unit: "Kg", Price: d("850"), Stock: d("45"), MinStock: d("15")},
		{Name: "Aceite de Oliva Extra", Category: "Aceites", Unit: "L", Price: d("8900"), Stock: d("2"), MinStock: d("5")},
	}
	for _, in := range seed {
		if _, err := mem.InsertIngredient(ctx, in.ToIngredient("biz-test")); err != nil {
			t.Fatalf("InsertIngredient: %v", err)
		}
	}
	book := NewBook(mem)
	if err := book.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	s := book.Summary()
	if s.ItemCount != 3 || s.LowStockCount != 2 {
		t.Fatalf("unexpected counts %+v", s)
	}
	// 8.5*1200 + 45*850 + 2*8900
	if !s.TotalValue.Equal(d("66250")) {
		t.Fatalf("expected total value 66250, got %s", s.TotalValue)
	}
	names := book.Ingredients()
	if names[0].Name != "Aceite de Oliva Extra" {
		t.Fatalf("expected name order, got %s first", names[0].Name)
	}
}

func TestRemove(t *testing.T) {
	ctx := testCtx()
	book := NewBook(store.NewMemoryStore())
	ing, _ := book.Add(ctx, &models.NewIngredient{Name: "Sal", Category: "Secos", Unit: "Kg", Price: d("1"), Stock: d("1"), MinStock: d("0")})
	if err := book.Remove(ctx, ing.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok := book.Get(ing.ID); ok {
		t.Fatalf("ingredient should be gone")
	}
	if err := book.Remove(ctx, ing.ID); !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("expected ErrorRecordNotFound, got %v", err)
	}
}
