package pos

import (
	"sort"

	"github.com/mmdatafocus/kitchen_backend/models"
	"github.com/mmdatafocus/kitchen_backend/utils"
	"github.com/shopspring/decimal"
)

// requirements sums what every recipe line needs per ingredient.
func requirements(lines []Line, catalog *Catalog) map[int]decimal.Decimal {
	need := map[int]decimal.Decimal{}
	for _, l := range lines {
		if l.RecipeId == nil {
			continue
		}
		recipe, ok := catalog.Recipe(*l.RecipeId)
		if !ok {
			continue
		}
		q := decimal.NewFromInt(int64(l.Quantity))
		for _, ri := range recipe.Ingredients {
			need[ri.IngredientId] = need[ri.IngredientId].Add(ri.Quantity.Mul(q))
		}
	}
	return need
}

// Shortfalls re-validates every line on its own and the cart as a whole.
// A line is reported when it alone exceeds stock or when it uses an ingredient the
// whole cart exceeds.
func Shortfalls(lines []Line, catalog *Catalog) []utils.StockShortfall {
	need := requirements(lines, catalog)
	shortIds := map[int]bool{}
	for id, qty := range need {
		if ing, ok := catalog.Ingredient(id); ok && qty.GreaterThan(ing.Stock) {
			shortIds[id] = true
		}
	}

	out := []utils.StockShortfall{}
	for _, l := range lines {
		if l.RecipeId == nil {
			continue
		}
		recipe, ok := catalog.Recipe(*l.RecipeId)
		if !ok {
			continue
		}
		names := MissingIngredients(recipe, l.Quantity, catalog)
		for _, ri := range recipe.Ingredients {
			if !shortIds[ri.IngredientId] {
				continue
			}
			if ing, ok := catalog.Ingredient(ri.IngredientId); ok {
				names = appendUnique(names, ing.Name)
			}
		}
		if len(names) > 0 {
			out = append(out, utils.StockShortfall{LineId: l.Id, Name: l.Name, Ingredients: names})
		}
	}
	return out
}

// conflictShortfalls reports the recipe lines that use an ingredient the store found short.
func conflictShortfalls(lines []Line, catalog *Catalog, ingredientIds []int) []utils.StockShortfall {
	short := make(map[int]bool, len(ingredientIds))
	for _, id := range ingredientIds {
		short[id] = true
	}
	out := []utils.StockShortfall{}
	for _, l := range lines {
		if l.RecipeId == nil {
			continue
		}
		recipe, ok := catalog.Recipe(*l.RecipeId)
		if !ok {
			continue
		}
		var names []string
		for _, ri := range recipe.Ingredients {
			if !short[ri.IngredientId] {
				continue
			}
			name := ri.Name
			if ing, ok := catalog.Ingredient(ri.IngredientId); ok {
				name = ing.Name
			}
			names = appendUnique(names, name)
		}
		if len(names) > 0 {
			out = append(out, utils.StockShortfall{LineId: l.Id, Name: l.Name, Ingredients: names})
		}
	}
	return out
}

// Consumption is the stock a sale of lines takes, one entry per ingredient ordered by id.
func Consumption(lines []Line, catalog *Catalog) []models.StockConsumption {
	need := requirements(lines, catalog)
	out := make([]models.StockConsumption, 0, len(need))
	for id, qty := range need {
		if qty.IsZero() {
			continue
		}
		out = append(out, models.StockConsumption{IngredientId: id, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IngredientId < out[j].IngredientId })
	return out
}
