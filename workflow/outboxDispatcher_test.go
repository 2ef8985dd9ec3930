package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mmdatafocus/kitchen_backend/config"
	"github.com/mmdatafocus/kitchen_backend/models"
	"github.com/mmdatafocus/kitchen_backend/store"
	"github.com/mmdatafocus/kitchen_backend/testutil"
	"github.com/mmdatafocus/kitchen_backend/utils"
	"github.com/shopspring/decimal"
)

func TestNextBackoff(t *testing.T) {
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 5 * time.Second},
		{1, 5 * time.Second},
		{2, 10 * time.Second},
		{4, 40 * time.Second},
		{7, 320 * time.Second},
		{8, 10 * time.Minute},
		{50, 10 * time.Minute},
	}
	for _, tc := range cases {
		if got := NextBackoff(5*time.Second, tc.attempt); got != tc.want {
			t.Fatalf("attempt %d: got %s, want %s", tc.attempt, got, tc.want)
		}
	}
}

func TestDispatchOnceWithoutDB(t *testing.T) {
	d := NewOutboxDispatcher(nil, nil)
	if n := d.DispatchOnce(context.Background()); n != 0 {
		t.Fatalf("expected nothing dispatched, got %d", n)
	}
}

func TestOutboxDispatcherPublishesSales(t *testing.T) {
	testutil.RequireIntegration(t)
	testutil.StartStack(t)

	ctx := utils.SetBusinessIdInContext(context.Background(), "biz-outbox")
	s := store.NewGormStore(config.GetDB(), config.GetLogger())
	for i := 0; i < 3; i++ {
		_, err := s.RecordSale(ctx, &models.Sale{
			Total: decimal.NewFromInt(5), PaymentMethod: models.PaymentMethodCash, Status: models.SaleStatusCompleted,
			Items: []*models.SaleItem{{ProductName: "Agua", Quantity: 1, Price: decimal.NewFromInt(5)}},
		}, nil)
		if err != nil {
			t.Fatalf("RecordSale: %v", err)
		}
	}

	var published []config.PubSubMessage
	failNext := true
	d := NewOutboxDispatcher(config.GetDB(), config.GetLogger())
	d.InitialBackoff = 0
	d.Publish = func(ctx context.Context, msg config.PubSubMessage) (string, error) {
		if failNext {
			failNext = false
			return "", errors.New("topic unavailable")
		}
		published = append(published, msg)
		return "msg-" + msg.BusinessId, nil
	}

	dispatchCtx := utils.SetSkipTenantScopeInContext(context.Background(), true)
	if n := d.DispatchOnce(dispatchCtx); n != 2 {
		t.Fatalf("first pass: expected 2 published, got %d", n)
	}
	if n := d.DispatchOnce(dispatchCtx); n != 1 {
		t.Fatalf("retry pass: expected 1 published, got %d", n)
	}
	if len(published) != 3 || published[0].ReferenceType != models.OutboxReferenceSale {
		t.Fatalf("unexpected messages %+v", published)
	}

	var pending int64
	config.GetDB().Model(&models.OutboxRecord{}).Where("publish_status <> ?", models.OutboxPublishStatusSent).Count(&pending)
	if pending != 0 {
		t.Fatalf("expected every row SENT, %d left", pending)
	}
}
