package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type SaleStatus string

const (
	SaleStatusCompleted SaleStatus = "completed"
	// pending sales are reservations with a delivery date
	SaleStatusPending SaleStatus = "pending"
)

const (
	PaymentMethodCash     = "cash"
	PaymentMethodCard     = "card"
	PaymentMethodTransfer = "transfer"
)

type Sale struct {
	ID            int             `gorm:"primary_key" json:"id"`
	BusinessId    string          `gorm:"size:64;not null;uniqueIndex:idx_sale_sequence,priority:1" json:"business_id"`
	SequenceNo    int64           `gorm:"not null;uniqueIndex:idx_sale_sequence,priority:2" json:"sequence_no"`
	SaleNumber    string          `gorm:"size:20;not null" json:"sale_number"`
	Total         decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total"`
	PaymentMethod string          `gorm:"size:30;not null" json:"payment_method"`
	Status        SaleStatus      `gorm:"size:20;index;not null" json:"status"`
	DeliveryDate  *time.Time      `json:"delivery_date"`
	CorrelationId string          `gorm:"size:64" json:"correlation_id"`
	Items         []*SaleItem     `gorm:"foreignKey:SaleId" json:"items"`
	CreatedAt     time.Time       `gorm:"index;autoCreateTime" json:"created_at"`
}

// SaleItem is a snapshot of a cart line at checkout. It is never recomputed.
type SaleItem struct {
	ID          int             `gorm:"primary_key" json:"id"`
	BusinessId  string          `gorm:"size:64;index;not null" json:"business_id"`
	SaleId      int             `gorm:"index;not null" json:"sale_id"`
	RecipeId    *int            `gorm:"index" json:"recipe_id"`
	ProductName string          `gorm:"size:150;not null" json:"product_name"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	Price       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"price"`
}

func (item *SaleItem) Subtotal() decimal.Decimal {
	return item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
}

// StockConsumption is how much of one ingredient a sale takes out of stock.
type StockConsumption struct {
	IngredientId int             `json:"ingredient_id"`
	Quantity     decimal.Decimal `json:"quantity"`
}

func FormatSaleNumber(seq int64) string {
	return fmt.Sprintf("S-%06d", seq)
}

func (s *Sale) IsReservation() bool {
	return s.Status == SaleStatusPending
}

func (s *Sale) ItemCount() int {
	n := 0
	for _, item := range s.Items {
		n += item.Quantity
	}
	return n
}
