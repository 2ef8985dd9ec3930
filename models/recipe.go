package models

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type Recipe struct {
	ID          int                 `gorm:"primary_key" json:"id"`
	BusinessId  string              `gorm:"size:64;index;not null" json:"business_id"`
	Name        string              `gorm:"size:150;not null" json:"name"`
	Category    string              `gorm:"size:100" json:"category"`
	Portions    int                 `gorm:"not null;default:1" json:"portions"`
	Price       decimal.Decimal     `gorm:"type:decimal(20,4);not null;default:0" json:"price"`
	Ingredients []*RecipeIngredient `gorm:"foreignKey:RecipeId" json:"ingredients"`
	CreatedAt   time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

// RecipeIngredient keeps name, unit and unit cost as they were when the line was added.
type RecipeIngredient struct {
	ID           int             `gorm:"primary_key" json:"id"`
	BusinessId   string          `gorm:"size:64;index;not null" json:"business_id"`
	RecipeId     int             `gorm:"index;not null" json:"recipe_id"`
	IngredientId int             `gorm:"index" json:"ingredient_id"`
	Name         string          `gorm:"size:100;not null" json:"name"`
	Quantity     decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"quantity"`
	Unit         string          `gorm:"size:20" json:"unit"`
	UnitCost     decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"unit_cost"`
	SortOrder    int             `gorm:"not null;default:0" json:"sort_order"`
}

func (l *RecipeIngredient) Total() decimal.Decimal {
	return l.Quantity.Mul(l.UnitCost)
}

// RecipeFigures are derived on read and never stored.
type RecipeFigures struct {
	TotalCost      decimal.Decimal `json:"total_cost"`
	CostPerPortion decimal.Decimal `json:"cost_per_portion"`
	MarginPercent  decimal.Decimal `json:"margin_percent"`
}

func (r *Recipe) EffectivePortions() int {
	if r.Portions < 1 {
		return 1
	}
	return r.Portions
}

func (r *Recipe) TotalCost() decimal.Decimal {
	total := decimal.Zero
	for _, l := range r.Ingredients {
		total = total.Add(l.Total())
	}
	return total
}

func (r *Recipe) CostPerPortion() decimal.Decimal {
	return r.TotalCost().Div(decimal.NewFromInt(int64(r.EffectivePortions())))
}

// MarginPercent is (price - cost per portion) / price * 100, 0 for an unpriced recipe.
func (r *Recipe) MarginPercent() decimal.Decimal {
	if r.Price.IsZero() {
		return decimal.Zero
	}
	return r.Price.Sub(r.CostPerPortion()).Div(r.Price).Mul(hundred)
}

func (r *Recipe) Figures() RecipeFigures {
	return RecipeFigures{
		TotalCost:      r.TotalCost(),
		CostPerPortion: r.CostPerPortion(),
		MarginPercent:  r.MarginPercent(),
	}
}

// Clone copies the header and every line.
func (r *Recipe) Clone() *Recipe {
	c := *r
	c.Ingredients = make([]*RecipeIngredient, len(r.Ingredients))
	for i, l := range r.Ingredients {
		lc := *l
		c.Ingredients[i] = &lc
	}
	return &c
}
