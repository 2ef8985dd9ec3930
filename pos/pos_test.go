package pos

import (
	"context"
	"errors"
	"math"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/mmdatafocus/kitchen_backend/models"
	"github.com/mmdatafocus/kitchen_backend/store"
	"github.com/mmdatafocus/kitchen_backend/utils"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testCtx() context.Context {
	return utils.SetBusinessIdInContext(context.Background(), "biz-test")
}

// fixture: Salsa needs 200g of Tomate, stock is 100g.
func salsaCatalog() (*models.Recipe, *Catalog) {
	tomate := &models.Ingredient{ID: 1, Name: "Tomate", Unit: "g", Stock: d("100"), MinStock: d("10")}
	harina := &models.Ingredient{ID: 2, Name: "Harina", Unit: "g", Stock: d("1000"), MinStock: d("10")}
	salsa := &models.Recipe{ID: 10, Name: "Salsa", Portions: 1, Price: d("10"), Ingredients: []*models.RecipeIngredient{
		{IngredientId: 1, Name: "Tomate", Quantity: d("200"), UnitCost: d("0.01")},
	}}
	return salsa, NewCatalog([]*models.Recipe{salsa}, []*models.Ingredient{tomate, harina})
}

type recorderFunc func(ctx context.Context, sale *models.Sale, consumption []models.StockConsumption) (*models.Sale, error)

func (f recorderFunc) RecordSale(ctx context.Context, sale *models.Sale, consumption []models.StockConsumption) (*models.Sale, error) {
	return f(ctx, sale, consumption)
}

func echoRecorder() recorderFunc {
	return func(ctx context.Context, sale *models.Sale, consumption []models.StockConsumption) (*models.Sale, error) {
		return sale, nil
	}
}

func TestCheckoutTotal(t *testing.T) {
	cart := NewCart("c1", "biz-test", Policy{BulkThreshold: 3})
	if _, err := cart.AddCustomItem("Empanada", d("10"), 2); err != nil {
		t.Fatalf("AddCustomItem: %v", err)
	}
	if _, err := cart.AddCustomItem("Agua", d("5"), 1); err != nil {
		t.Fatalf("AddCustomItem: %v", err)
	}
	sale, err := cart.Checkout(testCtx(), echoRecorder(), StaticCatalog(nil), models.PaymentMethodCash, nil)
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if !sale.Total.Equal(d("25.00")) {
		t.Fatalf("expected total 25.00, got %s", sale.Total)
	}
	if sale.Status != models.SaleStatusCompleted {
		t.Fatalf("expected completed, got %s", sale.Status)
	}
	if len(sale.Items) != 2 || sale.Items[0].ProductName != "Empanada" || sale.Items[0].Quantity != 2 {
		t.Fatalf("unexpected items %+v", sale.Items)
	}
	if len(cart.Lines()) != 0 {
		t.Fatalf("cart should be cleared after checkout")
	}
}

func TestCheckoutRejectsShortfallAndKeepsCart(t *testing.T) {
	salsa, catalog := salsaCatalog()
	cart := NewCart("c1", "biz-test", Policy{BulkThreshold: 3})
	if _, _, err := cart.AddToCart(salsa, catalog); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	called := false
	rec := recorderFunc(func(ctx context.Context, sale *models.Sale, consumption []models.StockConsumption) (*models.Sale, error) {
		called = true
		return sale, nil
	})
	_, err := cart.Checkout(testCtx(), rec, StaticCatalog(catalog), models.PaymentMethodCash, nil)
	var stockErr *utils.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStock, got %v", err)
	}
	if len(stockErr.Lines) != 1 || stockErr.Lines[0].Ingredients[0] != "Tomate" {
		t.Fatalf("expected Tomate shortfall, got %+v", stockErr.Lines)
	}
	if called {
		t.Fatalf("recorder must not be called on rejected checkout")
	}
	if lines := cart.Lines(); len(lines) != 1 || lines[0].Quantity != 1 {
		t.Fatalf("cart should be unchanged, got %+v", lines)
	}
}

func TestCheckoutReservationBypassesStock(t *testing.T) {
	ctx := testCtx()
	mem := store.NewMemoryStore()
	tomate, err := mem.InsertIngredient(ctx, &models.Ingredient{Name: "Tomate", Category: "Verduras", Unit: "g", Stock: d("100"), MinStock: d("10")})
	if err != nil {
		t.Fatalf("InsertIngredient: %v", err)
	}
	salsa, err := mem.SaveRecipe(ctx, &models.Recipe{Name: "Salsa", Portions: 1, Price: d("10"), Ingredients: []*models.RecipeIngredient{
		{IngredientId: tomate.ID, Name: "Tomate", Quantity: d("200"), UnitCost: d("0.01")},
	}})
	if err != nil {
		t.Fatalf("SaveRecipe: %v", err)
	}
	catalog, err := LoadCatalog(ctx, mem)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}

	cart := NewCart("c1", "biz-test", Policy{BulkThreshold: 3})
	if _, _, err := cart.AddToCart(salsa, catalog); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	delivery := time.Now().Add(48 * time.Hour)
	sale, err := cart.Checkout(ctx, mem, StoreCatalog(mem), models.PaymentMethodTransfer, &delivery)
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if sale.Status != models.SaleStatusPending || sale.DeliveryDate == nil {
		t.Fatalf("expected pending reservation, got %+v", sale)
	}
	if sale.SaleNumber != "S-000001" {
		t.Fatalf("unexpected sale number %s", sale.SaleNumber)
	}

	got, err := mem.GetIngredient(ctx, tomate.ID)
	if err != nil {
		t.Fatalf("GetIngredient: %v", err)
	}
	if !got.Stock.Equal(d("-100")) || got.Status != models.IngredientStatusLowStock {
		t.Fatalf("expected stock -100 and low stock, got %s / %s", got.Stock, got.Status)
	}
}

func TestUpdateQuantityFloorsAtOne(t *testing.T) {
	cart := NewCart("c1", "biz-test", Policy{BulkThreshold: 3})
	line, _ := cart.AddCustomItem("Pan", d("1"), 2)
	got, err := cart.UpdateQuantity(line.Id, -10)
	if err != nil {
		t.Fatalf("UpdateQuantity: %v", err)
	}
	if got.Quantity != 1 {
		t.Fatalf("expected quantity 1, got %d", got.Quantity)
	}
	got, _ = cart.UpdateQuantity(line.Id, 4)
	if got.Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", got.Quantity)
	}
	if _, err := cart.UpdateQuantity(99, 1); !errors.Is(err, ErrLineNotFound) {
		t.Fatalf("expected ErrLineNotFound, got %v", err)
	}
}

func TestUpdateQuantitySaturates(t *testing.T) {
	cart := NewCart("c1", "biz-test", Policy{})
	line, _ := cart.AddCustomItem("Pan", d("1"), 2)
	for _, delta := range []int{math.MaxInt, MaxLineQuantity - 1} {
		got, err := cart.UpdateQuantity(line.Id, delta)
		if err != nil {
			t.Fatalf("UpdateQuantity(%d): %v", delta, err)
		}
		if got.Quantity != MaxLineQuantity {
			t.Fatalf("delta %d: expected quantity %d, got %d", delta, MaxLineQuantity, got.Quantity)
		}
	}
	got, _ := cart.UpdateQuantity(line.Id, math.MinInt)
	if got.Quantity != 1 {
		t.Fatalf("expected quantity 1 after MinInt delta, got %d", got.Quantity)
	}
	if !cart.Total().Equal(d("1")) {
		t.Fatalf("expected total 1, got %s", cart.Total())
	}

	for _, q := range []int{0, MaxLineQuantity + 1, math.MaxInt} {
		if _, err := cart.AddCustomItem("Agua", d("1"), q); !utils.IsValidationError(err) {
			t.Fatalf("quantity %d: expected validation error, got %v", q, err)
		}
	}
}

func TestAddToCartIncrementsAndWarns(t *testing.T) {
	salsa, catalog := salsaCatalog()
	cart := NewCart("c1", "biz-test", Policy{BulkThreshold: 3})
	line, missing, err := cart.AddToCart(salsa, catalog)
	if err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	if len(missing) != 1 || missing[0] != "Tomate" {
		t.Fatalf("expected Tomate warning, got %v", missing)
	}
	if !line.Price.Equal(d("10")) {
		t.Fatalf("line should take the recipe price, got %s", line.Price)
	}
	line, _, _ = cart.AddToCart(salsa, catalog)
	if line.Quantity != 2 || len(cart.Lines()) != 1 {
		t.Fatalf("expected one line at quantity 2, got %+v", cart.Lines())
	}
	if _, _, err := cart.AddToCart(nil, catalog); !utils.IsInvalidInput(err) {
		t.Fatalf("expected InvalidInput for nil recipe, got %v", err)
	}
}

func TestMissingIngredientsToleratesUnresolved(t *testing.T) {
	_, catalog := salsaCatalog()
	if got := MissingIngredients(nil, 1, catalog); len(got) != 0 {
		t.Fatalf("nil recipe: expected none, got %v", got)
	}
	ghost := &models.Recipe{ID: 11, Ingredients: []*models.RecipeIngredient{{IngredientId: 404, Quantity: d("1")}}}
	if got := MissingIngredients(ghost, 5, catalog); len(got) != 0 {
		t.Fatalf("unresolved ingredient: expected none, got %v", got)
	}
	pan := &models.Recipe{ID: 12, Ingredients: []*models.RecipeIngredient{{IngredientId: 2, Quantity: d("250")}}}
	if got := MissingIngredients(pan, 4, catalog); len(got) != 0 {
		t.Fatalf("1000 needed of 1000: expected none, got %v", got)
	}
	if got := MissingIngredients(pan, 5, catalog); len(got) != 1 || got[0] != "Harina" {
		t.Fatalf("1250 needed of 1000: expected Harina, got %v", got)
	}
}

func TestShortfallsAggregateAcrossLines(t *testing.T) {
	harina := &models.Ingredient{ID: 2, Name: "Harina", Stock: d("1000")}
	pan := &models.Recipe{ID: 1, Name: "Pan", Ingredients: []*models.RecipeIngredient{{IngredientId: 2, Quantity: d("600")}}}
	pizza := &models.Recipe{ID: 2, Name: "Pizza", Ingredients: []*models.RecipeIngredient{{IngredientId: 2, Quantity: d("500")}}}
	catalog := NewCatalog([]*models.Recipe{pan, pizza}, []*models.Ingredient{harina})

	cart := NewCart("c1", "biz-test", Policy{BulkThreshold: 3})
	cart.AddToCart(pan, catalog)
	cart.AddToCart(pizza, catalog)
	cart.AddCustomItem("Propina", d("2"), 1)

	shortfalls := Shortfalls(cart.Lines(), catalog)
	if len(shortfalls) != 2 {
		t.Fatalf("expected both recipe lines reported, got %+v", shortfalls)
	}
	for _, s := range shortfalls {
		if len(s.Ingredients) != 1 || s.Ingredients[0] != "Harina" {
			t.Fatalf("unexpected shortfall %+v", s)
		}
	}

	consumption := Consumption(cart.Lines(), catalog)
	if len(consumption) != 1 || !consumption[0].Quantity.Equal(d("1100")) {
		t.Fatalf("expected 1100 of harina consumed, got %+v", consumption)
	}
}

func TestOverridePrice(t *testing.T) {
	cart := NewCart("c1", "biz-test", Policy{BulkThreshold: 3})
	line, _ := cart.AddCustomItem("Medialuna", d("2"), 2)
	if _, err := cart.OverridePrice(line.Id, d("1.5")); !utils.IsInvalidInput(err) {
		t.Fatalf("expected InvalidInput below threshold, got %v", err)
	}
	cart.UpdateQuantity(line.Id, 1)
	got, err := cart.OverridePrice(line.Id, d("1.5"))
	if err != nil {
		t.Fatalf("OverridePrice: %v", err)
	}
	if !got.Price.Equal(d("1.5")) || !cart.Total().Equal(d("4.5")) {
		t.Fatalf("unexpected price %s / total %s", got.Price, cart.Total())
	}
	if _, err := cart.OverridePrice(line.Id, d("-1")); !utils.IsInvalidInput(err) {
		t.Fatalf("expected InvalidInput for negative price, got %v", err)
	}

	open := NewCart("c2", "biz-test", Policy{BulkThreshold: 0})
	l, _ := open.AddCustomItem("Cafe", d("3"), 1)
	if _, err := open.OverridePrice(l.Id, d("0")); err != nil {
		t.Fatalf("threshold 0 should always allow overrides: %v", err)
	}
}

func TestCheckoutRemoteFailureKeepsCart(t *testing.T) {
	cart := NewCart("c1", "biz-test", Policy{BulkThreshold: 3})
	cart.AddCustomItem("Tarta", d("12"), 1)
	rec := recorderFunc(func(ctx context.Context, sale *models.Sale, consumption []models.StockConsumption) (*models.Sale, error) {
		return nil, errors.New("connection refused")
	})
	_, err := cart.Checkout(testCtx(), rec, StaticCatalog(nil), models.PaymentMethodCard, nil)
	if !utils.IsRemoteFailure(err) {
		t.Fatalf("expected RemoteFailure, got %v", err)
	}
	if len(cart.Lines()) != 1 {
		t.Fatalf("cart should be kept for retry")
	}
	if state := cart.State(); state.Status != CartStatusComposing {
		t.Fatalf("expected composing after failure, got %s", state.Status)
	}
	if _, err := cart.Checkout(testCtx(), echoRecorder(), StaticCatalog(nil), models.PaymentMethodCard, nil); err != nil {
		t.Fatalf("retry: %v", err)
	}
}

func TestCheckoutEmptyAndPaymentMethod(t *testing.T) {
	cart := NewCart("c1", "biz-test", Policy{BulkThreshold: 3})
	sale, err := cart.Checkout(testCtx(), echoRecorder(), StaticCatalog(nil), "", nil)
	if sale != nil || err != nil {
		t.Fatalf("empty cart should be a no-op, got %v / %v", sale, err)
	}
	cart.AddCustomItem("Tarta", d("12"), 1)
	_, err = cart.Checkout(testCtx(), echoRecorder(), StaticCatalog(nil), "  ", nil)
	var verr *utils.ValidationError
	if !errors.As(err, &verr) || !verr.HasField("payment_method") {
		t.Fatalf("expected payment_method ValidationError, got %v", err)
	}
}

func TestCheckoutIsSerialized(t *testing.T) {
	cart := NewCart("c1", "biz-test", Policy{BulkThreshold: 3})
	line, _ := cart.AddCustomItem("Tarta", d("12"), 1)

	entered := make(chan struct{})
	release := make(chan struct{})
	rec := recorderFunc(func(ctx context.Context, sale *models.Sale, consumption []models.StockConsumption) (*models.Sale, error) {
		close(entered)
		<-release
		return sale, nil
	})

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		_, firstErr = cart.Checkout(testCtx(), rec, StaticCatalog(nil), models.PaymentMethodCash, nil)
	}()
	<-entered

	if _, err := cart.Checkout(testCtx(), echoRecorder(), StaticCatalog(nil), models.PaymentMethodCash, nil); !errors.Is(err, ErrCheckoutInProgress) {
		t.Fatalf("expected ErrCheckoutInProgress, got %v", err)
	}
	if _, err := cart.UpdateQuantity(line.Id, 1); !errors.Is(err, ErrCheckoutInProgress) {
		t.Fatalf("expected edits to be refused during checkout, got %v", err)
	}
	if state := cart.State(); state.Status != CartStatusCheckingOut {
		t.Fatalf("expected checking_out, got %s", state.Status)
	}
	close(release)
	wg.Wait()
	if firstErr != nil {
		t.Fatalf("first checkout: %v", firstErr)
	}
	if state := cart.State(); state.Status != CartStatusEmpty {
		t.Fatalf("expected empty after checkout, got %s", state.Status)
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry(time.Hour, Policy{BulkThreshold: 3})
	a := reg.Create("biz-a")
	reg.Create("biz-b")

	if _, err := reg.Get("biz-b", a.Id); !errors.Is(err, ErrCartNotFound) {
		t.Fatalf("carts must not leak across businesses, got %v", err)
	}
	got, err := reg.Get("biz-a", a.Id)
	if err != nil || got != a {
		t.Fatalf("Get: %v", err)
	}

	reg.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if n := reg.Sweep(); n != 2 || reg.Len() != 0 {
		t.Fatalf("expected both idle carts swept, removed %d, left %d", n, reg.Len())
	}

	reg.now = time.Now
	c := reg.Create("biz-a")
	if err := reg.Discard("biz-a", c.Id); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if err := reg.Discard("biz-a", c.Id); !errors.Is(err, ErrCartNotFound) {
		t.Fatalf("expected ErrCartNotFound, got %v", err)
	}
}

// two carts built from the same stock snapshot: only the first completed sale may draw on it
func TestConcurrentCheckoutsCannotOverdrawStock(t *testing.T) {
	ctx := testCtx()
	mem := store.NewMemoryStore()
	tomate, err := mem.InsertIngredient(ctx, &models.Ingredient{Name: "Tomate", Category: "Verduras", Unit: "g", Stock: d("100"), MinStock: d("10")})
	if err != nil {
		t.Fatalf("InsertIngredient: %v", err)
	}
	salsa, err := mem.SaveRecipe(ctx, &models.Recipe{Name: "Salsa", Portions: 1, Price: d("10"), Ingredients: []*models.RecipeIngredient{
		{IngredientId: tomate.ID, Name: "Tomate", Quantity: d("100"), UnitCost: d("0.01")},
	}})
	if err != nil {
		t.Fatalf("SaveRecipe: %v", err)
	}
	stale, err := LoadCatalog(ctx, mem)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}

	carts := make([]*Cart, 3)
	for i := range carts {
		carts[i] = NewCart("c"+strconv.Itoa(i), "biz-test", Policy{BulkThreshold: 3})
		if _, _, err := carts[i].AddToCart(salsa, stale); err != nil {
			t.Fatalf("AddToCart: %v", err)
		}
	}

	if _, err := carts[0].Checkout(ctx, mem, StoreCatalog(mem), models.PaymentMethodCash, nil); err != nil {
		t.Fatalf("first checkout: %v", err)
	}

	// a fresh catalog sees the spent stock
	_, err = carts[1].Checkout(ctx, mem, StoreCatalog(mem), models.PaymentMethodCash, nil)
	if !utils.IsInsufficientStock(err) {
		t.Fatalf("expected InsufficientStock with a fresh catalog, got %v", err)
	}

	// a catalog read before the first sale is still refused by the store
	_, err = carts[2].Checkout(ctx, mem, StaticCatalog(stale), models.PaymentMethodCash, nil)
	var stockErr *utils.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStock with a stale catalog, got %v", err)
	}
	if len(stockErr.Lines) != 1 || stockErr.Lines[0].Name != "Salsa" || stockErr.Lines[0].Ingredients[0] != "Tomate" {
		t.Fatalf("unexpected shortfall %+v", stockErr.Lines)
	}
	if len(carts[2].Lines()) != 1 || carts[2].State().Status != CartStatusComposing {
		t.Fatalf("rejected cart should be kept")
	}

	got, _ := mem.GetIngredient(ctx, tomate.ID)
	if !got.Stock.IsZero() {
		t.Fatalf("expected stock 0, got %s", got.Stock)
	}
	sales, _ := mem.ListSales(ctx, store.SaleFilter{})
	if len(sales) != 1 {
		t.Fatalf("expected one sale, got %d", len(sales))
	}
}
