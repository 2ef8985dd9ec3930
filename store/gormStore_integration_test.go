package store

import (
	"testing"

	"github.com/mmdatafocus/kitchen_backend/config"
	"github.com/mmdatafocus/kitchen_backend/models"
	"github.com/mmdatafocus/kitchen_backend/testutil"
)

func TestGormStore(t *testing.T) {
	testutil.RequireIntegration(t)
	testutil.StartStack(t)

	s := NewGormStore(config.GetDB(), config.GetLogger())
	runStoreContract(t, s, "biz-gorm")

	// every write above left an audit row and every sale an outbox row
	var histories int64
	if err := config.GetDB().Model(&models.History{}).Where("business_id = ?", "biz-gorm").Count(&histories).Error; err != nil {
		t.Fatalf("count histories: %v", err)
	}
	if histories == 0 {
		t.Fatalf("expected history rows")
	}
	var outbox []models.OutboxRecord
	if err := config.GetDB().Where("business_id = ?", "biz-gorm").Order("id").Find(&outbox).Error; err != nil {
		t.Fatalf("find outbox: %v", err)
	}
	if len(outbox) != 2 || outbox[0].PublishStatus != models.OutboxPublishStatusPending || outbox[0].ReferenceType != models.OutboxReferenceSale {
		t.Fatalf("unexpected outbox rows %+v", outbox)
	}
}

func TestGormStoreStockConflict(t *testing.T) {
	testutil.RequireIntegration(t)
	testutil.StartStack(t)

	runStockConflictContract(t, NewGormStore(config.GetDB(), config.GetLogger()), "biz-gorm-stock")
}

func TestGormStorePrecision(t *testing.T) {
	testutil.RequireIntegration(t)
	testutil.StartStack(t)

	runPrecisionContract(t, NewGormStore(config.GetDB(), config.GetLogger()), "biz-gorm-precision")
}

func TestGormStoreSequenceRecoversFromStaleCounter(t *testing.T) {
	testutil.RequireIntegration(t)
	testutil.StartStack(t)

	ctx := bizCtx("biz-seq")
	s := NewGormStore(config.GetDB(), config.GetLogger())
	sale := func() *models.Sale {
		return &models.Sale{Total: d("1"), PaymentMethod: models.PaymentMethodCash, Status: models.SaleStatusCompleted,
			Items: []*models.SaleItem{{ProductName: "Cafe", Quantity: 1, Price: d("1")}}}
	}
	for i := 0; i < 2; i++ {
		if _, err := s.RecordSale(ctx, sale(), nil); err != nil {
			t.Fatalf("RecordSale: %v", err)
		}
	}
	// counter behind the table: S-000002 collides and is retried with a reseeded sequence
	if err := config.SetRedisObject(ctx, saleSequenceKey("biz-seq"), 1, 0); err != nil {
		t.Fatalf("SetRedisObject: %v", err)
	}
	got, err := s.RecordSale(ctx, sale(), nil)
	if err != nil {
		t.Fatalf("RecordSale after reset: %v", err)
	}
	if got.SaleNumber != "S-000003" {
		t.Fatalf("expected S-000003, got %s", got.SaleNumber)
	}
}
