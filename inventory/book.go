package inventory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/mmdatafocus/kitchen_backend/config"
	"github.com/mmdatafocus/kitchen_backend/metrics"
	"github.com/mmdatafocus/kitchen_backend/models"
	"github.com/mmdatafocus/kitchen_backend/store"
	"github.com/mmdatafocus/kitchen_backend/utils"
	"github.com/shopspring/decimal"
)

// Book is the local ingredient state of one business, written through to the store.
type Book struct {
	mu    sync.Mutex
	store store.IngredientStore
	items map[int]*models.Ingredient
}

type Summary struct {
	ItemCount     int             `json:"item_count"`
	LowStockCount int             `json:"low_stock_count"`
	TotalValue    decimal.Decimal `json:"total_value"`
}

func NewBook(s store.IngredientStore) *Book {
	return &Book{store: s, items: map[int]*models.Ingredient{}}
}

// Load replaces the local state with what the store holds.
func (b *Book) Load(ctx context.Context) error {
	rows, err := b.store.ListIngredients(ctx, store.IngredientFilter{})
	if err != nil {
		return utils.RemoteFailure("list ingredients", err)
	}
	items := make(map[int]*models.Ingredient, len(rows))
	for _, r := range rows {
		items[r.ID] = r.Clone()
	}
	b.mu.Lock()
	b.items = items
	b.mu.Unlock()
	return nil
}

// Ingredients returns copies ordered by name.
func (b *Book) Ingredients() []*models.Ingredient {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*models.Ingredient, 0, len(b.items))
	for _, ing := range b.items {
		out = append(out, ing.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (b *Book) Get(id int) (*models.Ingredient, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ing, ok := b.items[id]
	if !ok {
		return nil, false
	}
	return ing.Clone(), true
}

func (b *Book) Add(ctx context.Context, input *models.NewIngredient) (*models.Ingredient, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	saved, err := b.store.InsertIngredient(ctx, input.ToIngredient(businessId))
	if err != nil {
		return nil, utils.RemoteFailure("insert ingredient", err)
	}
	b.put(saved)
	return saved, nil
}

func (b *Book) Update(ctx context.Context, id int, input *models.NewIngredient) (*models.Ingredient, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	saved, err := b.store.UpdateIngredient(ctx, id, input.Changes())
	if err != nil {
		return nil, storeError("update ingredient", err)
	}
	b.put(saved)
	return saved, nil
}

func (b *Book) Remove(ctx context.Context, id int) error {
	if err := b.store.DeleteIngredient(ctx, id); err != nil {
		return storeError("delete ingredient", err)
	}
	b.mu.Lock()
	delete(b.items, id)
	b.mu.Unlock()
	return nil
}

// UpdateStock adds delta to the stock optimistically: the local row changes first and
// is restored from its snapshot if the store write fails.
func (b *Book) UpdateStock(ctx context.Context, id int, delta decimal.Decimal) (*models.Ingredient, error) {
	if _, ok := b.Get(id); !ok {
		current, err := b.store.GetIngredient(ctx, id)
		if err != nil {
			return nil, storeError("get ingredient", err)
		}
		b.put(current)
	}

	b.mu.Lock()
	current, ok := b.items[id]
	if !ok {
		b.mu.Unlock()
		return nil, utils.ErrorRecordNotFound
	}
	snapshot := current.Clone()
	next := current.Clone()
	next.Stock = next.Stock.Add(delta)
	next.RefreshStatus()
	b.items[id] = next
	b.mu.Unlock()

	saved, err := b.store.UpdateIngredient(ctx, id, map[string]interface{}{"stock": next.Stock})
	if err != nil {
		b.mu.Lock()
		// a later local change wins over the rollback
		if b.items[id] == next {
			b.items[id] = snapshot
		}
		b.mu.Unlock()
		metrics.ObserveStockRollback()
		config.LogError(config.GetLogger(), "inventory", "UpdateStock", "rolled back local stock", map[string]interface{}{"ingredient_id": id, "delta": delta.String()}, err)
		return nil, storeError("update stock", err)
	}
	b.put(saved)
	return saved.Clone(), nil
}

func (b *Book) Summary() Summary {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Summarize(mapValues(b.items))
}

// Summarize values stock at current prices.
func Summarize(ingredients []*models.Ingredient) Summary {
	s := Summary{TotalValue: decimal.Zero}
	for _, ing := range ingredients {
		s.ItemCount++
		s.TotalValue = s.TotalValue.Add(ing.StockValue())
		if models.StockStatus(ing.Stock, ing.MinStock) == models.IngredientStatusLowStock {
			s.LowStockCount++
		}
	}
	return s
}

func (b *Book) put(ing *models.Ingredient) {
	b.mu.Lock()
	b.items[ing.ID] = ing.Clone()
	b.mu.Unlock()
}

func mapValues(m map[int]*models.Ingredient) []*models.Ingredient {
	out := make([]*models.Ingredient, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}

// storeError keeps not-found and input errors as they are and wraps the rest.
func storeError(op string, err error) error {
	if errors.Is(err, utils.ErrorRecordNotFound) || utils.IsInvalidInput(err) || errors.Is(err, utils.ErrBusinessIdRequired) {
		return err
	}
	return utils.RemoteFailure(op, err)
}
