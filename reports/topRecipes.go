package reports

import (
	"sort"

	"github.com/mmdatafocus/kitchen_backend/models"
	"github.com/shopspring/decimal"
)

type RecipeMargin struct {
	RecipeId       int             `json:"recipe_id"`
	Name           string          `json:"name"`
	Category       string          `json:"category"`
	CostPerPortion decimal.Decimal `json:"cost_per_portion"`
	Price          decimal.Decimal `json:"price"`
	MarginPercent  decimal.Decimal `json:"margin_percent"`
	UnitsSold      int             `json:"units_sold"`
	Revenue        decimal.Decimal `json:"revenue"`
}

// TopRecipes ranks recipes by margin, then by units sold. limit <= 0 returns all.
func TopRecipes(recipes []*models.Recipe, sales []*models.Sale, limit int) []RecipeMargin {
	sold := map[int]int{}
	revenue := map[int]decimal.Decimal{}
	for _, sale := range sales {
		for _, item := range sale.Items {
			if item.RecipeId == nil {
				continue
			}
			sold[*item.RecipeId] += item.Quantity
			revenue[*item.RecipeId] = revenue[*item.RecipeId].Add(item.Subtotal())
		}
	}

	out := make([]RecipeMargin, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, RecipeMargin{
			RecipeId:       r.ID,
			Name:           r.Name,
			Category:       r.Category,
			CostPerPortion: r.CostPerPortion().Round(2),
			Price:          r.Price,
			MarginPercent:  r.MarginPercent().Round(2),
			UnitsSold:      sold[r.ID],
			Revenue:        revenue[r.ID],
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].MarginPercent.Equal(out[j].MarginPercent) {
			return out[i].MarginPercent.GreaterThan(out[j].MarginPercent)
		}
		return out[i].UnitsSold > out[j].UnitsSold
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
