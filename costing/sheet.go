// Package costing prices a recipe draft: line totals, waste allowance,
// cost per portion, suggested price and margin.
package costing

import (
	"github.com/mmdatafocus/kitchen_backend/config"
	"github.com/mmdatafocus/kitchen_backend/models"
	"github.com/mmdatafocus/kitchen_backend/utils"
	"github.com/shopspring/decimal"
)

var DefaultQuantity = decimal.NewFromInt(1)

// Line is one ingredient row of a draft. UnitCost is the ingredient price when the row was added.
type Line struct {
	IngredientId int             `json:"ingredient_id"`
	Name         string          `json:"name"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         string          `json:"unit"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
}

func (l Line) Total() decimal.Decimal {
	return l.Quantity.Mul(l.UnitCost)
}

// Sheet is a recipe being composed in the calculator.
type Sheet struct {
	RecipeId int             `json:"recipe_id"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Portions int             `json:"portions"`
	Price    decimal.Decimal `json:"price"`
	Lines    []Line          `json:"lines"`
}

type Policy struct {
	ErrorMarginRate decimal.Decimal
	Multiplier      decimal.Decimal
}

func DefaultPolicy() Policy {
	return Policy{
		ErrorMarginRate: config.ErrorMarginRate(),
		Multiplier:      config.DefaultPriceMultiplier(),
	}
}

func NewSheet(name string, portions int) *Sheet {
	return &Sheet{Name: name, Portions: portions}
}

// SheetFromRecipe loads a saved recipe keeping its snapshotted unit costs.
func SheetFromRecipe(r *models.Recipe) *Sheet {
	s := &Sheet{
		RecipeId: r.ID,
		Name:     r.Name,
		Category: r.Category,
		Portions: r.Portions,
		Price:    r.Price,
		Lines:    make([]Line, 0, len(r.Ingredients)),
	}
	for _, l := range r.Ingredients {
		s.Lines = append(s.Lines, Line{
			IngredientId: l.IngredientId,
			Name:         l.Name,
			Quantity:     l.Quantity,
			Unit:         l.Unit,
			UnitCost:     l.UnitCost,
		})
	}
	return s
}

// AddLine appends ing with its current price as unit cost. Adding the same ingredient twice
// yields two rows.
func (s *Sheet) AddLine(ing *models.Ingredient, quantity decimal.Decimal) ([]Line, error) {
	if ing == nil {
		return s.Lines, utils.InvalidInput("ingredient", "ingredient is required")
	}
	if quantity.IsNegative() {
		return s.Lines, utils.InvalidInput("quantity", "must be >= 0")
	}
	s.Lines = append(s.Lines, Line{
		IngredientId: ing.ID,
		Name:         ing.Name,
		Quantity:     quantity,
		Unit:         ing.Unit,
		UnitCost:     ing.Price,
	})
	return s.Lines, nil
}

// UpdateQuantity leaves the line untouched on error.
func (s *Sheet) UpdateQuantity(index int, quantity decimal.Decimal) error {
	if index < 0 || index >= len(s.Lines) {
		return utils.InvalidInput("index", "no such line")
	}
	if quantity.IsNegative() {
		return utils.InvalidInput("quantity", "must be >= 0")
	}
	s.Lines[index].Quantity = quantity
	return nil
}

// UpdateQuantityInput parses raw user input (string, json number, float) before updating.
func (s *Sheet) UpdateQuantityInput(index int, raw interface{}) error {
	quantity, err := utils.ParseDecimal("quantity", raw)
	if err != nil {
		return err
	}
	return s.UpdateQuantity(index, quantity)
}

// RemoveLine is a no-op for an out of range index.
func (s *Sheet) RemoveLine(index int) []Line {
	if index < 0 || index >= len(s.Lines) {
		return s.Lines
	}
	s.Lines = append(s.Lines[:index], s.Lines[index+1:]...)
	return s.Lines
}

func (s *Sheet) Summary(policy Policy) (Summary, error) {
	return Summarize(s.Lines, s.Portions, policy.ErrorMarginRate, policy.Multiplier)
}

// ToRecipe converts the draft into the persisted shape. Portions are floored at 1.
func (s *Sheet) ToRecipe() *models.Recipe {
	r := &models.Recipe{
		ID:          s.RecipeId,
		Name:        s.Name,
		Category:    s.Category,
		Portions:    s.Portions,
		Price:       s.Price,
		Ingredients: make([]*models.RecipeIngredient, 0, len(s.Lines)),
	}
	if r.Portions < 1 {
		r.Portions = 1
	}
	for i, l := range s.Lines {
		r.Ingredients = append(r.Ingredients, &models.RecipeIngredient{
			IngredientId: l.IngredientId,
			Name:         l.Name,
			Quantity:     l.Quantity,
			Unit:         l.Unit,
			UnitCost:     l.UnitCost,
			SortOrder:    i,
		})
	}
	return r
}
