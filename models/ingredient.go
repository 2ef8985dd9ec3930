package models

import (
	"strings"
	"time"

	"github.com/mmdatafocus/kitchen_backend/utils"
	"github.com/shopspring/decimal"
)

type IngredientStatus string

const (
	IngredientStatusLowStock IngredientStatus = "Low Stock"
	IngredientStatusInStock  IngredientStatus = "In Stock"
)

// units offered by the ingredient form
var IngredientUnits = []string{"Kg", "L", "Unid", "gr", "ml"}

type Ingredient struct {
	ID         int              `gorm:"primary_key" json:"id"`
	BusinessId string           `gorm:"size:64;index;not null" json:"business_id"`
	Name       string           `gorm:"size:100;not null" json:"name"`
	Category   string           `gorm:"size:100;not null" json:"category"`
	Unit       string           `gorm:"size:20;not null" json:"unit"`
	Price      decimal.Decimal  `gorm:"type:decimal(20,8);not null;default:0" json:"price"`
	Stock      decimal.Decimal  `gorm:"type:decimal(20,8);not null;default:0" json:"stock"`
	MinStock   decimal.Decimal  `gorm:"type:decimal(20,8);not null;default:0" json:"min_stock"`
	Supplier   string           `gorm:"size:100" json:"supplier"`
	Status     IngredientStatus `gorm:"size:20;not null" json:"status"`
	CreatedAt  time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

// StockStatus is "Low Stock" when stock <= minStock.
func StockStatus(stock decimal.Decimal, minStock decimal.Decimal) IngredientStatus {
	if stock.LessThanOrEqual(minStock) {
		return IngredientStatusLowStock
	}
	return IngredientStatusInStock
}

// RefreshStatus must run after every stock or min_stock change.
func (i *Ingredient) RefreshStatus() {
	i.Status = StockStatus(i.Stock, i.MinStock)
}

func (i *Ingredient) IsLowStock() bool {
	return i.Status == IngredientStatusLowStock
}

// StockValue is stock valued at the current unit price.
func (i *Ingredient) StockValue() decimal.Decimal {
	return i.Stock.Mul(i.Price)
}

func (i *Ingredient) Clone() *Ingredient {
	c := *i
	return &c
}

type NewIngredient struct {
	Name     string          `json:"name" validate:"required,min=2,max=100"`
	Category string          `json:"category" validate:"required,max=100"`
	Unit     string          `json:"unit" validate:"required,max=20"`
	Price    decimal.Decimal `json:"price" validate:"min=0"`
	Stock    decimal.Decimal `json:"stock" validate:"min=0"`
	MinStock decimal.Decimal `json:"min_stock" validate:"min=0"`
	Supplier string          `json:"supplier" validate:"max=100"`
}

func (input *NewIngredient) Validate() error {
	input.Name = strings.TrimSpace(input.Name)
	input.Category = strings.TrimSpace(input.Category)
	input.Unit = strings.TrimSpace(input.Unit)
	input.Supplier = strings.TrimSpace(input.Supplier)
	return utils.ValidateStruct(input)
}

func (input *NewIngredient) ToIngredient(businessId string) *Ingredient {
	ing := &Ingredient{
		BusinessId: businessId,
		Name:       input.Name,
		Category:   input.Category,
		Unit:       input.Unit,
		Price:      input.Price,
		Stock:      input.Stock,
		MinStock:   input.MinStock,
		Supplier:   input.Supplier,
	}
	ing.RefreshStatus()
	return ing
}

// Changes is the partial update for an edited ingredient, status included.
func (input *NewIngredient) Changes() map[string]interface{} {
	return map[string]interface{}{
		"name":      input.Name,
		"category":  input.Category,
		"unit":      input.Unit,
		"price":     input.Price,
		"stock":     input.Stock,
		"min_stock": input.MinStock,
		"supplier":  input.Supplier,
		"status":    StockStatus(input.Stock, input.MinStock),
	}
}
