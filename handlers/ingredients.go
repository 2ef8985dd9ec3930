package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/kitchen_backend/inventory"
	"github.com/mmdatafocus/kitchen_backend/models"
	"github.com/mmdatafocus/kitchen_backend/store"
	"github.com/shopspring/decimal"
)

type stockInput struct {
	Delta decimal.Decimal `json:"delta"`
}

// ListIngredients GET /ingredients?name=&category=&low_stock=&order_by=&desc=
func (h *Handler) ListIngredients(c *gin.Context) {
	filter := store.IngredientFilter{
		Name:         c.Query("name"),
		Category:     c.Query("category"),
		LowStockOnly: queryBool(c, "low_stock"),
		OrderBy:      c.Query("order_by"),
		Desc:         queryBool(c, "desc"),
	}
	ingredients, err := h.Store.ListIngredients(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": ingredients})
}

// CreateIngredient POST /ingredients
func (h *Handler) CreateIngredient(c *gin.Context) {
	var input models.NewIngredient
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	ing, err := inventory.NewBook(h.Store).Add(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ing)
}

// UpdateIngredient PUT /ingredients/:id
func (h *Handler) UpdateIngredient(c *gin.Context) {
	id, ok := paramId(c, "id")
	if !ok {
		return
	}
	var input models.NewIngredient
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	ing, err := inventory.NewBook(h.Store).Update(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ing)
}

// DeleteIngredient DELETE /ingredients/:id
func (h *Handler) DeleteIngredient(c *gin.Context) {
	id, ok := paramId(c, "id")
	if !ok {
		return
	}
	if err := inventory.NewBook(h.Store).Remove(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UpdateStock POST /ingredients/:id/stock with {"delta": n}
func (h *Handler) UpdateStock(c *gin.Context) {
	id, ok := paramId(c, "id")
	if !ok {
		return
	}
	var input stockInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	ctx, span := tracer.Start(c.Request.Context(), "UpdateStock")
	defer span.End()

	ing, err := inventory.NewBook(h.Store).UpdateStock(ctx, id, input.Delta)
	if err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ing)
}

// InventorySummary GET /inventory/summary
func (h *Handler) InventorySummary(c *gin.Context) {
	book := inventory.NewBook(h.Store)
	if err := book.Load(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, book.Summary())
}
