package models

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mmdatafocus/kitchen_backend/utils"
)

const (
	HistoryActionCreate = "CREATE"
	HistoryActionUpdate = "UPDATE"
	HistoryActionDelete = "DELETE"
	HistoryActionStock  = "STOCK"
)

// History is the audit trail of ingredient and recipe changes.
type History struct {
	ID            int       `gorm:"primary_key" json:"id"`
	BusinessId    string    `gorm:"size:64;index;not null" json:"business_id"`
	ActionType    string    `gorm:"size:10;not null" json:"action_type"`
	Before        string    `gorm:"type:text" json:"before"`
	After         string    `gorm:"type:text" json:"after"`
	Description   string    `gorm:"type:text;not null" json:"description"`
	ReferenceID   int       `gorm:"index" json:"reference_id"`
	ReferenceType string    `gorm:"size:50" json:"reference_type"`
	CorrelationId string    `gorm:"size:64" json:"correlation_id"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func NewHistory(ctx context.Context, actionType string, referenceType string, referenceId int, before interface{}, after interface{}, description string) (*History, error) {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	h := &History{
		BusinessId:    businessId,
		ActionType:    actionType,
		Description:   description,
		ReferenceID:   referenceId,
		ReferenceType: referenceType,
	}
	h.CorrelationId, _ = utils.GetCorrelationIdFromContext(ctx)
	if before != nil {
		b, _ := json.Marshal(before)
		h.Before = string(b)
	}
	if after != nil {
		a, _ := json.Marshal(after)
		h.After = string(a)
	}
	return h, nil
}
