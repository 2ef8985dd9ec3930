package costing

import (
	"context"
	"errors"
	"strings"

	"github.com/mmdatafocus/kitchen_backend/models"
	"github.com/mmdatafocus/kitchen_backend/utils"
	"github.com/shopspring/decimal"
)

type RecipeSaver interface {
	SaveRecipe(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error)
}

// Validate checks what a recipe needs before it can be stored.
func (s *Sheet) Validate() error {
	verr := &utils.ValidationError{}
	s.Name = strings.TrimSpace(s.Name)
	if s.Name == "" {
		verr.Add("name", "is required")
	}
	if len(s.Lines) == 0 {
		verr.Add("ingredients", "at least one ingredient is required")
	}
	if s.Price.IsNegative() {
		verr.Add("price", "must be >= 0")
	}
	for _, l := range s.Lines {
		if l.Quantity.IsNegative() {
			verr.Add("quantity", "must be >= 0")
			break
		}
	}
	return verr.OrNil()
}

// Save stores the header and replaces the line set in one write.
// A failed write comes back as a single RemoteFailure and the sheet keeps its id.
func Save(ctx context.Context, saver RecipeSaver, sheet *Sheet) (*models.Recipe, error) {
	if err := sheet.Validate(); err != nil {
		return nil, err
	}
	saved, err := saver.SaveRecipe(ctx, sheet.ToRecipe())
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) || utils.IsInvalidInput(err) {
			return nil, err
		}
		return nil, utils.RemoteFailure("save recipe", err)
	}
	sheet.RecipeId = saved.ID
	return saved, nil
}

type CurrentCostLine struct {
	IngredientId     int              `json:"ingredient_id"`
	Name             string           `json:"name"`
	Quantity         decimal.Decimal  `json:"quantity"`
	Unit             string           `json:"unit"`
	SnapshotUnitCost decimal.Decimal  `json:"snapshot_unit_cost"`
	CurrentUnitCost  *decimal.Decimal `json:"current_unit_cost"`
	Resolved         bool             `json:"resolved"`
}

// CurrentCost compares a recipe's saved unit costs with live ingredient prices.
// It is display only; saved figures stay authoritative.
type CurrentCost struct {
	RecipeId      int               `json:"recipe_id"`
	Lines         []CurrentCostLine `json:"lines"`
	SnapshotTotal decimal.Decimal   `json:"snapshot_total"`
	CurrentTotal  decimal.Decimal   `json:"current_total"`
	Drift         decimal.Decimal   `json:"drift"`
}

// CompareCurrentCost prices unresolved ingredients at their snapshot cost.
func CompareCurrentCost(recipe *models.Recipe, current map[int]*models.Ingredient) CurrentCost {
	out := CurrentCost{RecipeId: recipe.ID, Lines: make([]CurrentCostLine, 0, len(recipe.Ingredients))}
	for _, l := range recipe.Ingredients {
		line := CurrentCostLine{
			IngredientId:     l.IngredientId,
			Name:             l.Name,
			Quantity:         l.Quantity,
			Unit:             l.Unit,
			SnapshotUnitCost: l.UnitCost,
		}
		unitCost := l.UnitCost
		if ing, ok := current[l.IngredientId]; ok && ing != nil {
			price := ing.Price
			line.CurrentUnitCost = &price
			line.Resolved = true
			unitCost = price
		}
		out.SnapshotTotal = out.SnapshotTotal.Add(l.Total())
		out.CurrentTotal = out.CurrentTotal.Add(l.Quantity.Mul(unitCost))
		out.Lines = append(out.Lines, line)
	}
	out.Drift = out.CurrentTotal.Sub(out.SnapshotTotal)
	return out
}
