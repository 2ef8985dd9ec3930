package models

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mmdatafocus/kitchen_backend/config"
	"github.com/mmdatafocus/kitchen_backend/utils"
)

// Outbox publish statuses for OutboxRecord.PublishStatus.
const (
	OutboxPublishStatusPending    = "PENDING"
	OutboxPublishStatusProcessing = "PROCESSING"
	OutboxPublishStatusSent       = "SENT"
	OutboxPublishStatusFailed     = "FAILED"
	OutboxPublishStatusDead       = "DEAD"
)

const (
	OutboxReferenceSale = "SALE"
	OutboxActionCreate  = "C"
)

// OutboxRecord is written in the same transaction as the sale and published after commit.
type OutboxRecord struct {
	ID               int        `gorm:"primary_key;index:idx_outbox_dispatch,priority:3" json:"id"`
	BusinessId       string     `gorm:"size:64;not null;index" json:"business_id"`
	OccurredAt       time.Time  `gorm:"not null" json:"occurred_at"`
	ReferenceId      int        `gorm:"index" json:"reference_id"`
	ReferenceType    string     `gorm:"size:20;not null" json:"reference_type"`
	Action           string     `gorm:"size:1;not null" json:"action"`
	Payload          []byte     `gorm:"type:blob" json:"payload"`
	PublishStatus    string     `gorm:"size:20;not null;default:'PENDING';index:idx_outbox_dispatch,priority:1" json:"publish_status"`
	PublishedAt      *time.Time `json:"published_at"`
	PubSubMessageId  *string    `gorm:"size:255" json:"pubsub_message_id"`
	PublishAttempts  int        `gorm:"not null;default:0" json:"publish_attempts"`
	NextAttemptAt    *time.Time `gorm:"index:idx_outbox_dispatch,priority:2" json:"next_attempt_at"`
	LockedAt         *time.Time `json:"locked_at"`
	LockedBy         *string    `gorm:"size:100" json:"locked_by"`
	LastPublishError *string    `gorm:"type:text" json:"last_publish_error"`
	CorrelationId    string     `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// NewSaleRecordedEvent builds the outbox row announcing a committed sale.
func NewSaleRecordedEvent(ctx context.Context, sale *Sale) (*OutboxRecord, error) {
	payload, err := json.Marshal(sale)
	if err != nil {
		return nil, err
	}
	rec := &OutboxRecord{
		BusinessId:    sale.BusinessId,
		OccurredAt:    sale.CreatedAt,
		ReferenceId:   sale.ID,
		ReferenceType: OutboxReferenceSale,
		Action:        OutboxActionCreate,
		Payload:       payload,
		PublishStatus: OutboxPublishStatusPending,
	}
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = time.Now().UTC()
	}
	rec.CorrelationId, _ = utils.GetCorrelationIdFromContext(ctx)
	return rec, nil
}

func (rec OutboxRecord) ToPubSubMessage() config.PubSubMessage {
	return config.PubSubMessage{
		ID:            rec.ID,
		BusinessId:    rec.BusinessId,
		OccurredAt:    rec.OccurredAt,
		ReferenceId:   rec.ReferenceId,
		ReferenceType: rec.ReferenceType,
		Action:        rec.Action,
		Payload:       rec.Payload,
		CorrelationId: rec.CorrelationId,
	}
}
