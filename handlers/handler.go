// Package handlers is the JSON API over the store, the cost model and the cart registry.
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/kitchen_backend/config"
	"github.com/mmdatafocus/kitchen_backend/costing"
	"github.com/mmdatafocus/kitchen_backend/pos"
	"github.com/mmdatafocus/kitchen_backend/store"
	"github.com/mmdatafocus/kitchen_backend/utils"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("kitchen-backend")

type Handler struct {
	Store    store.Store
	Carts    *pos.Registry
	Costing  costing.Policy
	Location *time.Location
	Now      func() time.Time
}

func New(s store.Store, carts *pos.Registry) *Handler {
	return &Handler{
		Store:    s,
		Carts:    carts,
		Costing:  costing.DefaultPolicy(),
		Location: config.ReportLocation(),
		Now:      time.Now,
	}
}

// Register mounts every route on r. Business and loader middlewares must already be installed.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/ingredients", h.ListIngredients)
	r.POST("/ingredients", h.CreateIngredient)
	r.PUT("/ingredients/:id", h.UpdateIngredient)
	r.DELETE("/ingredients/:id", h.DeleteIngredient)
	r.POST("/ingredients/:id/stock", h.UpdateStock)
	r.GET("/inventory/summary", h.InventorySummary)

	r.GET("/recipes", h.ListRecipes)
	r.POST("/recipes", h.CreateRecipe)
	r.GET("/recipes/:id", h.GetRecipe)
	r.PUT("/recipes/:id", h.UpdateRecipe)
	r.DELETE("/recipes/:id", h.DeleteRecipe)
	r.GET("/recipes/:id/current-cost", h.RecipeCurrentCost)
	r.POST("/costing/summary", h.CostingSummary)

	r.POST("/carts", h.CreateCart)
	r.GET("/carts/:id", h.GetCart)
	r.DELETE("/carts/:id", h.DiscardCart)
	r.POST("/carts/:id/items", h.AddCartItem)
	r.POST("/carts/:id/custom-items", h.AddCustomItem)
	r.PATCH("/carts/:id/lines/:lineId/quantity", h.UpdateLineQuantity)
	r.PATCH("/carts/:id/lines/:lineId/price", h.OverrideLinePrice)
	r.DELETE("/carts/:id/lines/:lineId", h.RemoveLine)
	r.POST("/carts/:id/checkout", h.Checkout)

	r.GET("/sales", h.ListSales)
	r.GET("/sales/:id", h.GetSale)

	r.GET("/reports/sales", h.SalesReport)
	r.GET("/reports/top-recipes", h.TopRecipes)
	r.GET("/reports/sales.xlsx", h.SalesReportExcel)
}

// respondError maps the error taxonomy onto status codes. Unknown errors are 500 and
// are attached to the gin context so the error logger picks them up.
func respondError(c *gin.Context, err error) {
	var (
		verr  *utils.ValidationError
		inv   *utils.InvalidInputError
		stock *utils.InsufficientStockError
	)
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": verr.Error(), "fields": verr.Fields})
	case errors.As(err, &inv):
		c.JSON(http.StatusBadRequest, gin.H{"error": inv.Error(), "field": inv.Field})
	case errors.As(err, &stock):
		c.JSON(http.StatusConflict, gin.H{"error": stock.Error(), "lines": stock.Lines})
	case errors.Is(err, pos.ErrCheckoutInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorRecordNotFound), errors.Is(err, pos.ErrCartNotFound), errors.Is(err, pos.ErrLineNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrBusinessIdRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case utils.IsRemoteFailure(err):
		_ = c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// paramId parses a positive integer path parameter, answering 400 itself when it cannot.
func paramId(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	v := c.Query(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, utils.InvalidInput(name, "must be an integer")
	}
	return n, nil
}

func queryBool(c *gin.Context, name string) bool {
	b, _ := strconv.ParseBool(c.Query(name))
	return b
}
