package pos

import (
	"context"

	"github.com/mmdatafocus/kitchen_backend/models"
	"github.com/mmdatafocus/kitchen_backend/store"
	"github.com/shopspring/decimal"
)

// Catalog is a point-in-time view of recipes and ingredient stock used for stock checks.
type Catalog struct {
	recipes     map[int]*models.Recipe
	ingredients map[int]*models.Ingredient
}

func NewCatalog(recipes []*models.Recipe, ingredients []*models.Ingredient) *Catalog {
	c := &Catalog{
		recipes:     make(map[int]*models.Recipe, len(recipes)),
		ingredients: make(map[int]*models.Ingredient, len(ingredients)),
	}
	for _, r := range recipes {
		c.recipes[r.ID] = r
	}
	for _, ing := range ingredients {
		c.ingredients[ing.ID] = ing
	}
	return c
}

type CatalogSource interface {
	ListRecipes(ctx context.Context, filter store.RecipeFilter) ([]*models.Recipe, error)
	ListIngredients(ctx context.Context, filter store.IngredientFilter) ([]*models.Ingredient, error)
}

// LoadCatalog reads current recipes and stock from the store.
func LoadCatalog(ctx context.Context, src CatalogSource) (*Catalog, error) {
	recipes, err := src.ListRecipes(ctx, store.RecipeFilter{})
	if err != nil {
		return nil, err
	}
	ingredients, err := src.ListIngredients(ctx, store.IngredientFilter{})
	if err != nil {
		return nil, err
	}
	return NewCatalog(recipes, ingredients), nil
}

// CatalogLoader supplies the recipes and stock a checkout is validated against.
type CatalogLoader func(ctx context.Context) (*Catalog, error)

// StoreCatalog reads a fresh catalog from src on every call.
func StoreCatalog(src CatalogSource) CatalogLoader {
	return func(ctx context.Context) (*Catalog, error) {
		return LoadCatalog(ctx, src)
	}
}

// StaticCatalog always returns c.
func StaticCatalog(c *Catalog) CatalogLoader {
	return func(context.Context) (*Catalog, error) {
		return c, nil
	}
}

func (c *Catalog) Recipe(id int) (*models.Recipe, bool) {
	if c == nil {
		return nil, false
	}
	r, ok := c.recipes[id]
	return r, ok
}

func (c *Catalog) Ingredient(id int) (*models.Ingredient, bool) {
	if c == nil {
		return nil, false
	}
	ing, ok := c.ingredients[id]
	return ing, ok
}

// MissingIngredients names every ingredient of recipe whose stock cannot cover quantity portions.
// Unresolved recipes or ingredients report nothing.
func MissingIngredients(recipe *models.Recipe, quantity int, catalog *Catalog) []string {
	missing := []string{}
	if recipe == nil || catalog == nil {
		return missing
	}
	q := decimal.NewFromInt(int64(quantity))
	for _, ri := range recipe.Ingredients {
		ing, ok := catalog.Ingredient(ri.IngredientId)
		if !ok {
			continue
		}
		if ri.Quantity.Mul(q).GreaterThan(ing.Stock) {
			missing = appendUnique(missing, ing.Name)
		}
	}
	return missing
}

func appendUnique(names []string, name string) []string {
	for _, n := range names {
		if n == name {
			return names
		}
	}
	return append(names, name)
}
