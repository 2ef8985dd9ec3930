package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/mmdatafocus/kitchen_backend/config"
	"github.com/mmdatafocus/kitchen_backend/models"
	"github.com/mmdatafocus/kitchen_backend/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	historyRefIngredient = "INGREDIENT"
	historyRefRecipe     = "RECIPE"

	mysqlDuplicateEntry = 1062
	saleInsertAttempts  = 3
)

// GormStore keeps everything in MySQL. Queries are scoped to the context's business.
type GormStore struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormStore(db *gorm.DB, logger *logrus.Logger) *GormStore {
	return &GormStore{db: db, logger: logger}
}

/* ingredients */

func (s *GormStore) ListIngredients(ctx context.Context, filter IngredientFilter) ([]*models.Ingredient, error) {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return nil, err
	}

	cacheable := filter.IsZero()
	if cacheable {
		cached, err := utils.RetrieveRedisList[models.Ingredient](ctx, businessId)
		if err != nil {
			config.LogError(s.logger, "store", "ListIngredients", "retrieve cache", businessId, err)
		} else if cached != nil {
			return cached, nil
		}
	}

	q := s.db.WithContext(ctx).Where("business_id = ?", businessId)
	if len(filter.Ids) > 0 {
		q = q.Where("id IN ?", filter.Ids)
	}
	if filter.Name != "" {
		q = q.Where("name LIKE ?", "%"+filter.Name+"%")
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.LowStockOnly {
		q = q.Where("stock <= min_stock")
	}
	q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: ingredientOrderColumn(filter.OrderBy)}, Desc: filter.Desc}).Order("id")

	var results []*models.Ingredient
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}

	if cacheable {
		if err := utils.StoreRedisList[models.Ingredient](ctx, businessId, results); err != nil {
			config.LogError(s.logger, "store", "ListIngredients", "store cache", businessId, err)
		}
	}
	return results, nil
}

func (s *GormStore) GetIngredient(ctx context.Context, id int) (*models.Ingredient, error) {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	var result models.Ingredient
	if err := s.db.WithContext(ctx).Where("business_id = ? AND id = ?", businessId, id).Take(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &result, nil
}

func (s *GormStore) InsertIngredient(ctx context.Context, ingredient *models.Ingredient) (*models.Ingredient, error) {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	row := ingredient.Clone()
	row.ID = 0
	row.BusinessId = businessId
	row.RefreshStatus()

	tx := s.db.WithContext(ctx).Begin()
	if err := tx.Create(row).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := s.createHistory(tx, models.HistoryActionCreate, historyRefIngredient, row.ID, nil, row, fmt.Sprintf("Ingredient %s created.", row.Name)); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	s.forgetIngredients(ctx, businessId)
	return row, nil
}

func (s *GormStore) UpdateIngredient(ctx context.Context, id int, changes map[string]interface{}) (*models.Ingredient, error) {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return nil, err
	}

	tx := s.db.WithContext(ctx).Begin()
	var current models.Ingredient
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("business_id = ? AND id = ?", businessId, id).Take(&current).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	before := current.Clone()
	if err := applyIngredientChanges(&current, changes); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Model(&models.Ingredient{}).
		Where("business_id = ? AND id = ?", businessId, id).
		Updates(ingredientColumns(&current)).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	action := models.HistoryActionUpdate
	description := fmt.Sprintf("Ingredient %s updated.", current.Name)
	if _, ok := changes["stock"]; ok && len(changes) <= 2 {
		action = models.HistoryActionStock
		description = fmt.Sprintf("Stock of %s changed from %s to %s.", current.Name, before.Stock.String(), current.Stock.String())
	}
	if err := s.createHistory(tx, action, historyRefIngredient, id, before, &current, description); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	s.forgetIngredients(ctx, businessId)
	return &current, nil
}

func (s *GormStore) DeleteIngredient(ctx context.Context, id int) error {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return err
	}
	tx := s.db.WithContext(ctx).Begin()
	var current models.Ingredient
	if err := tx.Where("business_id = ? AND id = ?", businessId, id).Take(&current).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorRecordNotFound
		}
		return err
	}
	if err := tx.Delete(&current).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := s.createHistory(tx, models.HistoryActionDelete, historyRefIngredient, id, &current, nil, fmt.Sprintf("Ingredient %s deleted.", current.Name)); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit().Error; err != nil {
		return err
	}
	s.forgetIngredients(ctx, businessId)
	return nil
}

func (s *GormStore) forgetIngredients(ctx context.Context, businessId string) {
	if err := utils.RemoveRedisList[models.Ingredient](ctx, businessId); err != nil {
		config.LogError(s.logger, "store", "forgetIngredients", "remove cache", businessId, err)
	}
}

/* recipes */

func (s *GormStore) ListRecipes(ctx context.Context, filter RecipeFilter) ([]*models.Recipe, error) {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	q := s.db.WithContext(ctx).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order, id") }).
		Where("business_id = ?", businessId)
	if len(filter.Ids) > 0 {
		q = q.Where("id IN ?", filter.Ids)
	}
	if filter.Name != "" {
		q = q.Where("name LIKE ?", "%"+filter.Name+"%")
	}
	q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: recipeOrderColumn(filter.OrderBy)}, Desc: filter.Desc}).Order("id")

	var results []*models.Recipe
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *GormStore) GetRecipe(ctx context.Context, id int) (*models.Recipe, error) {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	var result models.Recipe
	if err := s.db.WithContext(ctx).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order, id") }).
		Where("business_id = ? AND id = ?", businessId, id).Take(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &result, nil
}

func (s *GormStore) SaveRecipe(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error) {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	row := recipe.Clone()
	row.BusinessId = businessId
	lines := row.Ingredients
	row.Ingredients = nil

	tx := s.db.WithContext(ctx).Begin()
	var before *models.Recipe
	action := models.HistoryActionCreate
	if row.ID == 0 {
		if err := tx.Omit(clause.Associations).Create(row).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	} else {
		var existing models.Recipe
		if err := tx.Preload("Ingredients").Where("business_id = ? AND id = ?", businessId, row.ID).Take(&existing).Error; err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, utils.ErrorRecordNotFound
			}
			return nil, err
		}
		before = &existing
		action = models.HistoryActionUpdate
		if err := tx.Model(&models.Recipe{}).Where("business_id = ? AND id = ?", businessId, row.ID).Updates(map[string]interface{}{
			"name":     row.Name,
			"category": row.Category,
			"portions": row.Portions,
			"price":    row.Price,
		}).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		// replace the whole line set
		if err := tx.Where("business_id = ? AND recipe_id = ?", businessId, row.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	for i, l := range lines {
		l.ID = 0
		l.BusinessId = businessId
		l.RecipeId = row.ID
		l.SortOrder = i
	}
	if len(lines) > 0 {
		if err := tx.Create(&lines).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	row.Ingredients = lines

	if err := s.createHistory(tx, action, historyRefRecipe, row.ID, before, row, fmt.Sprintf("Recipe %s saved with %d ingredients.", row.Name, len(lines))); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (s *GormStore) DeleteRecipe(ctx context.Context, id int) error {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return err
	}
	tx := s.db.WithContext(ctx).Begin()
	var existing models.Recipe
	if err := tx.Where("business_id = ? AND id = ?", businessId, id).Take(&existing).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorRecordNotFound
		}
		return err
	}
	if err := tx.Where("business_id = ? AND recipe_id = ?", businessId, id).Delete(&models.RecipeIngredient{}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Delete(&existing).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := s.createHistory(tx, models.HistoryActionDelete, historyRefRecipe, id, &existing, nil, fmt.Sprintf("Recipe %s deleted.", existing.Name)); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

/* sales */

func (s *GormStore) ListSales(ctx context.Context, filter SaleFilter) ([]*models.Sale, error) {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	q := s.db.WithContext(ctx).Preload("Items").Where("business_id = ?", businessId)
	if filter.From != nil {
		q = q.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("created_at < ?", *filter.To)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	q = q.Order("created_at DESC").Order("id DESC")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	var results []*models.Sale
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *GormStore) GetSale(ctx context.Context, id int) (*models.Sale, error) {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return nil, err
	}
	var result models.Sale
	if err := s.db.WithContext(ctx).Preload("Items").Where("business_id = ? AND id = ?", businessId, id).Take(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &result, nil
}

func (s *GormStore) RecordSale(ctx context.Context, sale *models.Sale, consumption []models.StockConsumption) (*models.Sale, error) {
	businessId, err := utils.RequireBusinessId(ctx)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= saleInsertAttempts; attempt++ {
		seq, err := s.nextSaleSequence(ctx, businessId)
		if err != nil {
			return nil, err
		}
		row, err := s.recordSale(ctx, businessId, seq, sale, consumption)
		if err == nil {
			s.forgetIngredients(ctx, businessId)
			return row, nil
		}
		if !isDuplicateEntry(err) {
			return nil, err
		}
		// sequence counter is behind the table; reseed from the db on the next attempt
		lastErr = err
		_ = config.RemoveRedisKey(ctx, saleSequenceKey(businessId))
	}
	return nil, lastErr
}

func (s *GormStore) recordSale(ctx context.Context, businessId string, seq int64, sale *models.Sale, consumption []models.StockConsumption) (*models.Sale, error) {
	row := *sale
	row.ID = 0
	row.BusinessId = businessId
	row.SequenceNo = seq
	row.SaleNumber = models.FormatSaleNumber(seq)
	if row.CorrelationId == "" {
		row.CorrelationId, _ = utils.GetCorrelationIdFromContext(ctx)
	}
	row.Items = make([]*models.SaleItem, len(sale.Items))
	for i, item := range sale.Items {
		c := *item
		c.ID = 0
		c.BusinessId = businessId
		row.Items[i] = &c
	}

	tx := s.db.WithContext(ctx).Begin()
	if err := tx.Create(&row).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	var short []int
	for _, c := range consumption {
		var ing models.Ingredient
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("business_id = ? AND id = ?", businessId, c.IngredientId).Take(&ing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// ingredient deleted since the recipe was saved
				continue
			}
			tx.Rollback()
			return nil, err
		}
		// the row is locked, so this is the stock the sale actually draws on
		if row.Status == models.SaleStatusCompleted && ing.Stock.LessThan(c.Quantity) {
			short = append(short, ing.ID)
			continue
		}
		if len(short) > 0 {
			continue
		}
		ing.Stock = ing.Stock.Sub(c.Quantity)
		ing.RefreshStatus()
		if err := tx.Model(&models.Ingredient{}).Where("business_id = ? AND id = ?", businessId, ing.ID).Updates(map[string]interface{}{
			"stock":  ing.Stock,
			"status": ing.Status,
		}).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if len(short) > 0 {
		tx.Rollback()
		return nil, &StockConflictError{IngredientIds: short}
	}

	event, err := models.NewSaleRecordedEvent(ctx, &row)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Create(event).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func saleSequenceKey(businessId string) string {
	return businessId + "-sale_seq"
}

// nextSaleSequence uses the redis counter when available and seeds it from max(sequence_no).
func (s *GormStore) nextSaleSequence(ctx context.Context, businessId string) (int64, error) {
	key := saleSequenceKey(businessId)
	seq, err := config.GetRedisCounter(ctx, key)
	if err != nil {
		return 0, err
	}
	if seq > 1 {
		return seq, nil
	}

	var dbSeq *int64
	if err := s.db.WithContext(ctx).Model(&models.Sale{}).Select("max(sequence_no)").
		Where("business_id = ?", businessId).
		Scan(&dbSeq).Error; err != nil {
		return 0, err
	}
	next := int64(1)
	if dbSeq != nil {
		next = *dbSeq + 1
	}
	if seq == 1 {
		if err := config.SetRedisObject(ctx, key, next, 0); err != nil {
			return 0, err
		}
	}
	return next, nil
}

func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDuplicateEntry
	}
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "Duplicate entry")
}

func (s *GormStore) createHistory(tx *gorm.DB, actionType string, referenceType string, referenceId int, before interface{}, after interface{}, description string) error {
	h, err := models.NewHistory(tx.Statement.Context, actionType, referenceType, referenceId, before, after, description)
	if err != nil {
		return err
	}
	return tx.Create(h).Error
}
