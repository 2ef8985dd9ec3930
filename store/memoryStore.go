package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mmdatafocus/kitchen_backend/models"
	"github.com/mmdatafocus/kitchen_backend/utils"
)

// MemoryStore is an in-process Store for local development and tests.
// Every write is atomic under one mutex; returned rows are copies.
type MemoryStore struct {
	mu          sync.Mutex
	nextId      int
	ingredients map[string]map[int]*models.Ingredient
	recipes     map[string]map[int]*models.Recipe
	sales       map[string][]*models.Sale
	now         func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ingredients: make(map[string]map[int]*models.Ingredient),
		recipes:     make(map[string]map[int]*models.Recipe),
		sales:       make(map[string][]*models.Sale),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time source used for created_at stamps.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) id() int {
	s.nextId++
	return s.nextId
}

/* ingredients */

func (s *MemoryStore) ListIngredients(ctx context.Context, filter IngredientFilter) ([]*models.Ingredient, error) {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := idSet(filter.Ids)
	results := make([]*models.Ingredient, 0, len(s.ingredients[businessId]))
	for _, ing := range s.ingredients[businessId] {
		if ids != nil && !ids[ing.ID] {
			continue
		}
		if filter.Name != "" && !strings.Contains(strings.ToLower(ing.Name), strings.ToLower(filter.Name)) {
			continue
		}
		if filter.Category != "" && ing.Category != filter.Category {
			continue
		}
		if filter.LowStockOnly && !ing.Stock.LessThanOrEqual(ing.MinStock) {
			continue
		}
		results = append(results, ing.Clone())
	}

	column := ingredientOrderColumn(filter.OrderBy)
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		var cmp int
		switch column {
		case "category":
			cmp = strings.Compare(a.Category, b.Category)
		case "stock":
			cmp = a.Stock.Cmp(b.Stock)
		case "price":
			cmp = a.Price.Cmp(b.Price)
		case "updated_at":
			cmp = a.UpdatedAt.Compare(b.UpdatedAt)
		default:
			cmp = strings.Compare(a.Name, b.Name)
		}
		if cmp == 0 {
			return a.ID < b.ID
		}
		if filter.Desc {
			return cmp > 0
		}
		return cmp < 0
	})
	return results, nil
}

func (s *MemoryStore) GetIngredient(ctx context.Context, id int) (*models.Ingredient, error) {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ing, ok := s.ingredients[businessId][id]
	if !ok {
		return nil, utils.ErrorRecordNotFound
	}
	return ing.Clone(), nil
}

func (s *MemoryStore) InsertIngredient(ctx context.Context, ingredient *models.Ingredient) (*models.Ingredient, error) {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	row := ingredient.Clone()
	row.ID = s.id()
	row.BusinessId = businessId
	row.RefreshStatus()
	row.CreatedAt = s.now()
	row.UpdatedAt = row.CreatedAt
	if s.ingredients[businessId] == nil {
		s.ingredients[businessId] = make(map[int]*models.Ingredient)
	}
	s.ingredients[businessId][row.ID] = row
	return row.Clone(), nil
}

func (s *MemoryStore) UpdateIngredient(ctx context.Context, id int, changes map[string]interface{}) (*models.Ingredient, error) {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.ingredients[businessId][id]
	if !ok {
		return nil, utils.ErrorRecordNotFound
	}
	next := current.Clone()
	if err := applyIngredientChanges(next, changes); err != nil {
		return nil, err
	}
	next.UpdatedAt = s.now()
	s.ingredients[businessId][id] = next
	return next.Clone(), nil
}

func (s *MemoryStore) DeleteIngredient(ctx context.Context, id int) error {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ingredients[businessId][id]; !ok {
		return utils.ErrorRecordNotFound
	}
	delete(s.ingredients[businessId], id)
	return nil
}

/* recipes */

func (s *MemoryStore) ListRecipes(ctx context.Context, filter RecipeFilter) ([]*models.Recipe, error) {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := idSet(filter.Ids)
	results := make([]*models.Recipe, 0, len(s.recipes[businessId]))
	for _, r := range s.recipes[businessId] {
		if ids != nil && !ids[r.ID] {
			continue
		}
		if filter.Name != "" && !strings.Contains(strings.ToLower(r.Name), strings.ToLower(filter.Name)) {
			continue
		}
		results = append(results, r.Clone())
	}

	column := recipeOrderColumn(filter.OrderBy)
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		var cmp int
		switch column {
		case "price":
			cmp = a.Price.Cmp(b.Price)
		case "updated_at":
			cmp = a.UpdatedAt.Compare(b.UpdatedAt)
		default:
			cmp = strings.Compare(a.Name, b.Name)
		}
		if cmp == 0 {
			return a.ID < b.ID
		}
		if filter.Desc {
			return cmp > 0
		}
		return cmp < 0
	})
	return results, nil
}

func (s *MemoryStore) GetRecipe(ctx context.Context, id int) (*models.Recipe, error) {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recipes[businessId][id]
	if !ok {
		return nil, utils.ErrorRecordNotFound
	}
	return r.Clone(), nil
}

func (s *MemoryStore) SaveRecipe(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error) {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	row := recipe.Clone()
	row.BusinessId = businessId
	now := s.now()
	if row.ID == 0 {
		row.ID = s.id()
		row.CreatedAt = now
	} else {
		existing, ok := s.recipes[businessId][row.ID]
		if !ok {
			return nil, utils.ErrorRecordNotFound
		}
		row.CreatedAt = existing.CreatedAt
	}
	row.UpdatedAt = now
	for i, l := range row.Ingredients {
		l.ID = s.id()
		l.BusinessId = businessId
		l.RecipeId = row.ID
		l.SortOrder = i
	}
	if s.recipes[businessId] == nil {
		s.recipes[businessId] = make(map[int]*models.Recipe)
	}
	s.recipes[businessId][row.ID] = row
	return row.Clone(), nil
}

func (s *MemoryStore) DeleteRecipe(ctx context.Context, id int) error {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recipes[businessId][id]; !ok {
		return utils.ErrorRecordNotFound
	}
	delete(s.recipes[businessId], id)
	return nil
}

/* sales */

func (s *MemoryStore) ListSales(ctx context.Context, filter SaleFilter) ([]*models.Sale, error) {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.sales[businessId]
	results := make([]*models.Sale, 0, len(all))
	// stored oldest first; walk backwards for newest first
	for i := len(all) - 1; i >= 0; i-- {
		sale := all[i]
		if filter.From != nil && sale.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !sale.CreatedAt.Before(*filter.To) {
			continue
		}
		if filter.Status != "" && sale.Status != filter.Status {
			continue
		}
		results = append(results, cloneSale(sale))
		if filter.Limit > 0 && len(results) == filter.Limit {
			break
		}
	}
	return results, nil
}

func (s *MemoryStore) GetSale(ctx context.Context, id int) (*models.Sale, error) {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sale := range s.sales[businessId] {
		if sale.ID == id {
			return cloneSale(sale), nil
		}
	}
	return nil, utils.ErrorRecordNotFound
}

func (s *MemoryStore) RecordSale(ctx context.Context, sale *models.Sale, consumption []models.StockConsumption) (*models.Sale, error) {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	row := cloneSale(sale)
	row.ID = s.id()
	row.BusinessId = businessId
	row.SequenceNo = int64(len(s.sales[businessId]) + 1)
	row.SaleNumber = models.FormatSaleNumber(row.SequenceNo)
	if row.CorrelationId == "" {
		row.CorrelationId, _ = utils.GetCorrelationIdFromContext(ctx)
	}
	now := s.now()
	row.CreatedAt = now
	for _, item := range row.Items {
		item.ID = s.id()
		item.BusinessId = businessId
		item.SaleId = row.ID
	}

	if row.Status == models.SaleStatusCompleted {
		var short []int
		for _, c := range consumption {
			if ing, ok := s.ingredients[businessId][c.IngredientId]; ok && ing.Stock.LessThan(c.Quantity) {
				short = append(short, ing.ID)
			}
		}
		if len(short) > 0 {
			return nil, &StockConflictError{IngredientIds: short}
		}
	}
	for _, c := range consumption {
		ing, ok := s.ingredients[businessId][c.IngredientId]
		if !ok {
			continue
		}
		next := ing.Clone()
		next.Stock = next.Stock.Sub(c.Quantity)
		next.RefreshStatus()
		next.UpdatedAt = now
		s.ingredients[businessId][next.ID] = next
	}

	s.sales[businessId] = append(s.sales[businessId], row)
	return cloneSale(row), nil
}

func cloneSale(sale *models.Sale) *models.Sale {
	c := *sale
	c.Items = make([]*models.SaleItem, len(sale.Items))
	for i, item := range sale.Items {
		ic := *item
		c.Items[i] = &ic
	}
	return &c
}

func idSet(ids []int) map[int]bool {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[int]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
