package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/kitchen_backend/metrics"
	"github.com/mmdatafocus/kitchen_backend/middlewares"
	"github.com/mmdatafocus/kitchen_backend/models"
	"github.com/mmdatafocus/kitchen_backend/pos"
	"github.com/mmdatafocus/kitchen_backend/reports"
	"github.com/mmdatafocus/kitchen_backend/utils"
	"github.com/shopspring/decimal"
)

type addItemInput struct {
	RecipeId int `json:"recipe_id"`
}

type customItemInput struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type quantityInput struct {
	Delta int `json:"delta"`
}

type priceInput struct {
	Price decimal.Decimal `json:"price"`
}

type checkoutInput struct {
	PaymentMethod string `json:"payment_method"`
	// DeliveryDate is RFC 3339 or YYYY-MM-DD. Present means a reservation.
	DeliveryDate string `json:"delivery_date"`
}

func (h *Handler) cart(c *gin.Context) (*pos.Cart, bool) {
	businessId, err := utils.RequireBusinessId(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	cart, err := h.Carts.Get(businessId, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	c.Request = c.Request.WithContext(utils.SetCartIdInContext(c.Request.Context(), cart.Id))
	return cart, true
}

func lineParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("lineId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lineId"})
		return 0, false
	}
	return id, true
}

// CreateCart POST /carts
func (h *Handler) CreateCart(c *gin.Context) {
	businessId, err := utils.RequireBusinessId(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	cart := h.Carts.Create(businessId)
	metrics.SetOpenCarts(h.Carts.Len())
	c.JSON(http.StatusCreated, cart.State())
}

// GetCart GET /carts/:id
func (h *Handler) GetCart(c *gin.Context) {
	cart, ok := h.cart(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, cart.State())
}

// DiscardCart DELETE /carts/:id
func (h *Handler) DiscardCart(c *gin.Context) {
	cart, ok := h.cart(c)
	if !ok {
		return
	}
	if err := h.Carts.Discard(cart.BusinessId, cart.Id); err != nil {
		respondError(c, err)
		return
	}
	metrics.SetOpenCarts(h.Carts.Len())
	c.Status(http.StatusNoContent)
}

// recipeCatalog resolves one recipe and the ingredients it uses through the request loaders.
func recipeCatalog(ctx context.Context, recipeId int) (*models.Recipe, *pos.Catalog, error) {
	recipe, err := middlewares.GetRecipe(ctx, recipeId)
	if err != nil {
		return nil, nil, utils.RemoteFailure("load recipe", err)
	}
	if recipe == nil {
		return nil, nil, utils.InvalidInput("recipe_id", "recipe not found")
	}
	ids := make([]int, 0, len(recipe.Ingredients))
	for _, l := range recipe.Ingredients {
		ids = append(ids, l.IngredientId)
	}
	current, err := middlewares.GetIngredientMap(ctx, ids)
	if err != nil {
		return nil, nil, utils.RemoteFailure("load ingredients", err)
	}
	ingredients := make([]*models.Ingredient, 0, len(current))
	for _, ing := range current {
		ingredients = append(ingredients, ing)
	}
	return recipe, pos.NewCatalog([]*models.Recipe{recipe}, ingredients), nil
}

// AddCartItem POST /carts/:id/items adds one portion of a recipe. Missing ingredients are
// reported but do not block.
func (h *Handler) AddCartItem(c *gin.Context) {
	cart, ok := h.cart(c)
	if !ok {
		return
	}
	var input addItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	recipe, catalog, err := recipeCatalog(c.Request.Context(), input.RecipeId)
	if err != nil {
		respondError(c, err)
		return
	}
	line, missing, err := cart.AddToCart(recipe, catalog)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"line": line, "missing_ingredients": missing, "cart": cart.State()})
}

// AddCustomItem POST /carts/:id/custom-items
func (h *Handler) AddCustomItem(c *gin.Context) {
	cart, ok := h.cart(c)
	if !ok {
		return
	}
	var input customItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	line, err := cart.AddCustomItem(input.Name, input.Price, input.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"line": line, "cart": cart.State()})
}

// UpdateLineQuantity PATCH /carts/:id/lines/:lineId/quantity with {"delta": n}
func (h *Handler) UpdateLineQuantity(c *gin.Context) {
	cart, ok := h.cart(c)
	if !ok {
		return
	}
	lineId, ok := lineParam(c)
	if !ok {
		return
	}
	var input quantityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	line, err := cart.UpdateQuantity(lineId, input.Delta)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"line": line, "cart": cart.State()})
}

// OverrideLinePrice PATCH /carts/:id/lines/:lineId/price
func (h *Handler) OverrideLinePrice(c *gin.Context) {
	cart, ok := h.cart(c)
	if !ok {
		return
	}
	lineId, ok := lineParam(c)
	if !ok {
		return
	}
	var input priceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	line, err := cart.OverridePrice(lineId, input.Price)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"line": line, "cart": cart.State()})
}

// RemoveLine DELETE /carts/:id/lines/:lineId
func (h *Handler) RemoveLine(c *gin.Context) {
	cart, ok := h.cart(c)
	if !ok {
		return
	}
	lineId, ok := lineParam(c)
	if !ok {
		return
	}
	if err := cart.RemoveLine(lineId); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart.State())
}

func (h *Handler) parseDeliveryDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation(reports.DateLayout, raw, h.Location)
	if err != nil {
		return nil, utils.InvalidInput("delivery_date", "expected RFC 3339 or "+reports.DateLayout)
	}
	return &t, nil
}

// Checkout POST /carts/:id/checkout
func (h *Handler) Checkout(c *gin.Context) {
	cart, ok := h.cart(c)
	if !ok {
		return
	}
	var input checkoutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	deliveryDate, err := h.parseDeliveryDate(input.DeliveryDate)
	if err != nil {
		respondError(c, err)
		return
	}

	ctx, span := tracer.Start(c.Request.Context(), "Checkout")
	defer span.End()

	sale, err := cart.Checkout(ctx, h.Store, pos.StoreCatalog(h.Store), input.PaymentMethod, deliveryDate)
	if err != nil {
		span.RecordError(err)
		metrics.ObserveCheckout(checkoutOutcome(err))
		respondError(c, err)
		return
	}
	if sale == nil {
		metrics.ObserveCheckout("empty")
		c.JSON(http.StatusOK, gin.H{"sale": nil, "cart": cart.State()})
		return
	}
	metrics.ObserveCheckout(string(sale.Status))
	c.JSON(http.StatusCreated, gin.H{"sale": sale, "cart": cart.State()})
}

func checkoutOutcome(err error) string {
	switch {
	case utils.IsInsufficientStock(err), utils.IsValidationError(err):
		return "rejected"
	case utils.IsRemoteFailure(err):
		return "failed"
	default:
		return "error"
	}
}
