package pos

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mmdatafocus/kitchen_backend/config"
	"github.com/mmdatafocus/kitchen_backend/models"
	"github.com/mmdatafocus/kitchen_backend/store"
	"github.com/mmdatafocus/kitchen_backend/utils"
	"github.com/shopspring/decimal"
)

var (
	ErrCheckoutInProgress = errors.New("checkout already in progress for this cart")
	ErrLineNotFound       = errors.New("cart line not found")
)

const checkoutLockType = "checkout"

// MaxLineQuantity caps one cart line. Increments past it saturate.
const MaxLineQuantity = 1_000_000

type Line struct {
	Id       int             `json:"id"`
	RecipeId *int            `json:"recipe_id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// addQuantity keeps q+delta within [1, MaxLineQuantity] without overflowing. q is already in range.
func addQuantity(q, delta int) int {
	if delta > MaxLineQuantity-q {
		return MaxLineQuantity
	}
	return max(1, q+delta)
}

func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Policy struct {
	// BulkThreshold is the quantity a line needs before its price can be overridden. 0 disables the rule.
	BulkThreshold int
}

func DefaultPolicy() Policy {
	return Policy{BulkThreshold: config.BulkPriceThreshold()}
}

type SaleRecorder interface {
	RecordSale(ctx context.Context, sale *models.Sale, consumption []models.StockConsumption) (*models.Sale, error)
}

type CartStatus string

const (
	CartStatusEmpty       CartStatus = "empty"
	CartStatusComposing   CartStatus = "composing"
	CartStatusCheckingOut CartStatus = "checking_out"
)

type CartState struct {
	Id         string          `json:"id"`
	BusinessId string          `json:"business_id"`
	Status     CartStatus      `json:"status"`
	Lines      []Line          `json:"lines"`
	ItemCount  int             `json:"item_count"`
	Total      decimal.Decimal `json:"total"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Cart composes one sale. All methods are safe for concurrent use.
type Cart struct {
	Id         string
	BusinessId string

	mu          sync.Mutex
	policy      Policy
	lines       []Line
	nextLineId  int
	checkingOut bool
	updatedAt   time.Time
}

func NewCart(id string, businessId string, policy Policy) *Cart {
	return &Cart{Id: id, BusinessId: businessId, policy: policy, nextLineId: 1, updatedAt: time.Now()}
}

// edit runs fn under the cart mutex unless a checkout is in flight.
func (c *Cart) edit(fn func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.checkingOut {
		return ErrCheckoutInProgress
	}
	if err := fn(); err != nil {
		return err
	}
	c.updatedAt = time.Now()
	return nil
}

func (c *Cart) lineIndex(lineId int) int {
	for i, l := range c.lines {
		if l.Id == lineId {
			return i
		}
	}
	return -1
}

// AddToCart adds one portion of recipe. Missing ingredients are a warning only: the line is added anyway.
func (c *Cart) AddToCart(recipe *models.Recipe, catalog *Catalog) (Line, []string, error) {
	if recipe == nil {
		return Line{}, nil, utils.InvalidInput("recipe_id", "recipe not found")
	}
	var (
		line    Line
		missing []string
	)
	err := c.edit(func() error {
		for i, l := range c.lines {
			if l.RecipeId != nil && *l.RecipeId == recipe.ID {
				c.lines[i].Quantity = addQuantity(l.Quantity, 1)
				missing = MissingIngredients(recipe, c.lines[i].Quantity, catalog)
				line = c.lines[i]
				return nil
			}
		}
		missing = MissingIngredients(recipe, 1, catalog)
		recipeId := recipe.ID
		line = Line{Id: c.nextLineId, RecipeId: &recipeId, Name: recipe.Name, Price: recipe.Price, Quantity: 1}
		c.nextLineId++
		c.lines = append(c.lines, line)
		return nil
	})
	if err != nil {
		return Line{}, nil, err
	}
	return line, missing, nil
}

// AddCustomItem adds an ad-hoc line with no recipe and so no stock requirement.
func (c *Cart) AddCustomItem(name string, price decimal.Decimal, quantity int) (Line, error) {
	verr := &utils.ValidationError{}
	name = strings.TrimSpace(name)
	if name == "" {
		verr.Add("name", "is required")
	}
	if price.IsNegative() {
		verr.Add("price", "must be >= 0")
	}
	if quantity < 1 || quantity > MaxLineQuantity {
		verr.Add("quantity", "must be between 1 and "+strconv.Itoa(MaxLineQuantity))
	}
	if err := verr.OrNil(); err != nil {
		return Line{}, err
	}
	var line Line
	err := c.edit(func() error {
		line = Line{Id: c.nextLineId, Name: name, Price: price, Quantity: quantity}
		c.nextLineId++
		c.lines = append(c.lines, line)
		return nil
	})
	return line, err
}

// UpdateQuantity never takes a line below 1 or above MaxLineQuantity; RemoveLine deletes.
func (c *Cart) UpdateQuantity(lineId int, delta int) (Line, error) {
	var line Line
	err := c.edit(func() error {
		i := c.lineIndex(lineId)
		if i < 0 {
			return ErrLineNotFound
		}
		c.lines[i].Quantity = addQuantity(c.lines[i].Quantity, delta)
		line = c.lines[i]
		return nil
	})
	return line, err
}

func (c *Cart) OverridePrice(lineId int, price decimal.Decimal) (Line, error) {
	if price.IsNegative() {
		return Line{}, utils.InvalidInput("price", "must be >= 0")
	}
	var line Line
	err := c.edit(func() error {
		i := c.lineIndex(lineId)
		if i < 0 {
			return ErrLineNotFound
		}
		if c.policy.BulkThreshold > 0 && c.lines[i].Quantity < c.policy.BulkThreshold {
			return utils.InvalidInput("price", "price override needs a quantity of at least "+strconv.Itoa(c.policy.BulkThreshold))
		}
		c.lines[i].Price = price
		line = c.lines[i]
		return nil
	})
	return line, err
}

func (c *Cart) RemoveLine(lineId int) error {
	return c.edit(func() error {
		i := c.lineIndex(lineId)
		if i < 0 {
			return ErrLineNotFound
		}
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
		return nil
	})
}

func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Line(nil), c.lines...)
}

func (c *Cart) Total() decimal.Decimal {
	return total(c.Lines())
}

func total(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Subtotal())
	}
	return sum
}

func (c *Cart) State() CartState {
	c.mu.Lock()
	defer c.mu.Unlock()
	lines := append([]Line{}, c.lines...)
	state := CartState{
		Id:         c.Id,
		BusinessId: c.BusinessId,
		Status:     CartStatusComposing,
		Lines:      lines,
		Total:      total(lines),
		UpdatedAt:  c.updatedAt,
	}
	for _, l := range lines {
		state.ItemCount += l.Quantity
	}
	switch {
	case c.checkingOut:
		state.Status = CartStatusCheckingOut
	case len(lines) == 0:
		state.Status = CartStatusEmpty
	}
	return state
}

func (c *Cart) lastTouched() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updatedAt, c.checkingOut
}

// Checkout records the cart as one sale. An empty cart is a no-op and returns (nil, nil).
// Stock is validated against a catalog loaded while the business checkout lock is held, so
// two checkouts of one business cannot both pass on the same stock.
// Rejected or failed checkouts leave the cart as it was; a recorded sale clears it.
func (c *Cart) Checkout(ctx context.Context, recorder SaleRecorder, loadCatalog CatalogLoader, paymentMethod string, deliveryDate *time.Time) (*models.Sale, error) {
	c.mu.Lock()
	if c.checkingOut {
		c.mu.Unlock()
		return nil, ErrCheckoutInProgress
	}
	if len(c.lines) == 0 {
		c.mu.Unlock()
		return nil, nil
	}
	paymentMethod = strings.TrimSpace(paymentMethod)
	verr := &utils.ValidationError{}
	if paymentMethod == "" {
		verr.Add("payment_method", "is required")
	} else if len(paymentMethod) > 30 {
		verr.Add("payment_method", "must be at most 30 characters")
	}
	if err := verr.OrNil(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	lines := append([]Line(nil), c.lines...)
	c.checkingOut = true
	c.mu.Unlock()

	var recorded *models.Sale
	err := utils.WithBusinessLock(ctx, c.BusinessId, checkoutLockType, func() error {
		catalog, err := loadCatalog(ctx)
		if err != nil {
			return utils.RemoteFailure("load catalog", err)
		}
		if shortfalls := Shortfalls(lines, catalog); len(shortfalls) > 0 && deliveryDate == nil {
			return &utils.InsufficientStockError{Lines: shortfalls}
		}
		sale := buildSale(lines, paymentMethod, deliveryDate)
		recorded, err = recorder.RecordSale(ctx, sale, Consumption(lines, catalog))
		var conflict *store.StockConflictError
		if errors.As(err, &conflict) {
			return &utils.InsufficientStockError{Lines: conflictShortfalls(lines, catalog, conflict.IngredientIds)}
		}
		if err != nil {
			return utils.RemoteFailure("record sale", err)
		}
		return nil
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	c.checkingOut = false
	if err != nil {
		return nil, err
	}
	c.lines = nil
	c.updatedAt = time.Now()
	return recorded, nil
}

func buildSale(lines []Line, paymentMethod string, deliveryDate *time.Time) *models.Sale {
	sale := &models.Sale{
		Total:         total(lines),
		PaymentMethod: paymentMethod,
		Status:        models.SaleStatusCompleted,
		Items:         make([]*models.SaleItem, 0, len(lines)),
	}
	if deliveryDate != nil {
		d := *deliveryDate
		sale.DeliveryDate = &d
		sale.Status = models.SaleStatusPending
	}
	for _, l := range lines {
		item := &models.SaleItem{ProductName: l.Name, Quantity: l.Quantity, Price: l.Price}
		if l.RecipeId != nil {
			id := *l.RecipeId
			item.RecipeId = &id
		}
		sale.Items = append(sale.Items, item)
	}
	return sale
}
