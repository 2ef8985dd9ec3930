// Package store is the data collaborator: per-entity list/insert/update/delete
// plus the two compound writes (recipe line replacement and sale recording).
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/mmdatafocus/kitchen_backend/models"
)

type IngredientFilter struct {
	Ids          []int
	Name         string
	Category     string
	LowStockOnly bool
	// OrderBy is one of name (default), category, stock, price, updated_at.
	OrderBy string
	Desc    bool
}

// IsZero reports the default listing, the only one that is cached.
func (f IngredientFilter) IsZero() bool {
	return len(f.Ids) == 0 && f.Name == "" && f.Category == "" && !f.LowStockOnly && (f.OrderBy == "" || f.OrderBy == "name") && !f.Desc
}

type RecipeFilter struct {
	Ids  []int
	Name string
	// OrderBy is one of name (default), price, updated_at.
	OrderBy string
	Desc    bool
}

type SaleFilter struct {
	From   *time.Time
	To     *time.Time
	Status models.SaleStatus
	// Limit <= 0 means no limit. Sales are always newest first.
	Limit int
}

type IngredientStore interface {
	ListIngredients(ctx context.Context, filter IngredientFilter) ([]*models.Ingredient, error)
	GetIngredient(ctx context.Context, id int) (*models.Ingredient, error)
	InsertIngredient(ctx context.Context, ingredient *models.Ingredient) (*models.Ingredient, error)
	// UpdateIngredient applies a partial change keyed by column name and returns the stored row.
	UpdateIngredient(ctx context.Context, id int, changes map[string]interface{}) (*models.Ingredient, error)
	DeleteIngredient(ctx context.Context, id int) error
}

type RecipeStore interface {
	ListRecipes(ctx context.Context, filter RecipeFilter) ([]*models.Recipe, error)
	GetRecipe(ctx context.Context, id int) (*models.Recipe, error)
	// SaveRecipe inserts (ID == 0) or updates the header and replaces the whole line set atomically.
	SaveRecipe(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error)
	DeleteRecipe(ctx context.Context, id int) error
}

type SaleStore interface {
	ListSales(ctx context.Context, filter SaleFilter) ([]*models.Sale, error)
	GetSale(ctx context.Context, id int) (*models.Sale, error)
	// RecordSale stores header and items and applies the stock consumption in one transaction.
	// A completed sale whose consumption exceeds current stock writes nothing and returns
	// a *StockConflictError; a pending sale (reservation) may take stock below zero.
	RecordSale(ctx context.Context, sale *models.Sale, consumption []models.StockConsumption) (*models.Sale, error)
}

// StockConflictError names the ingredients a completed sale needs more of than is in stock.
type StockConflictError struct {
	IngredientIds []int
}

func (e *StockConflictError) Error() string {
	return fmt.Sprintf("stock changed: ingredients %v no longer cover the sale", e.IngredientIds)
}

type Store interface {
	IngredientStore
	RecipeStore
	SaleStore
}
