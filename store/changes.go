package store

import (
	"fmt"
	"strings"

	"github.com/mmdatafocus/kitchen_backend/models"
	"github.com/mmdatafocus/kitchen_backend/utils"
)

// applyIngredientChanges copies a partial update onto ing and re-derives its status.
// Unknown columns and malformed values are rejected before anything is written.
func applyIngredientChanges(ing *models.Ingredient, changes map[string]interface{}) error {
	for key, value := range changes {
		switch key {
		case "name", "category", "unit", "supplier":
			s, ok := value.(string)
			if !ok {
				return utils.InvalidInput(key, "must be a string")
			}
			s = strings.TrimSpace(s)
			switch key {
			case "name":
				ing.Name = s
			case "category":
				ing.Category = s
			case "unit":
				ing.Unit = s
			case "supplier":
				ing.Supplier = s
			}
		case "price", "stock", "min_stock":
			d, err := utils.ParseDecimal(key, value)
			if err != nil {
				return err
			}
			switch key {
			case "price":
				ing.Price = d
			case "stock":
				ing.Stock = d
			case "min_stock":
				ing.MinStock = d
			}
		case "status":
			// derived below
		default:
			return utils.InvalidInput(key, fmt.Sprintf("unknown ingredient column %q", key))
		}
	}
	ing.RefreshStatus()
	return nil
}

func ingredientColumns(ing *models.Ingredient) map[string]interface{} {
	return map[string]interface{}{
		"name":      ing.Name,
		"category":  ing.Category,
		"unit":      ing.Unit,
		"price":     ing.Price,
		"stock":     ing.Stock,
		"min_stock": ing.MinStock,
		"supplier":  ing.Supplier,
		"status":    ing.Status,
	}
}

func ingredientOrderColumn(orderBy string) string {
	switch orderBy {
	case "category", "stock", "price", "updated_at":
		return orderBy
	default:
		return "name"
	}
}

func recipeOrderColumn(orderBy string) string {
	switch orderBy {
	case "price", "updated_at":
		return orderBy
	default:
		return "name"
	}
}
