package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/kitchen_backend/costing"
	"github.com/mmdatafocus/kitchen_backend/middlewares"
	"github.com/mmdatafocus/kitchen_backend/models"
	"github.com/mmdatafocus/kitchen_backend/store"
	"github.com/mmdatafocus/kitchen_backend/utils"
	"github.com/shopspring/decimal"
)

type recipeLineInput struct {
	IngredientId int             `json:"ingredient_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	// UnitCost keeps the cost snapshotted when the line was first added. Empty means the
	// ingredient's current price.
	UnitCost *decimal.Decimal `json:"unit_cost"`
}

type recipeInput struct {
	Name     string            `json:"name"`
	Category string            `json:"category"`
	Portions int               `json:"portions"`
	Price    decimal.Decimal   `json:"price"`
	Lines    []recipeLineInput `json:"lines"`
}

type recipeView struct {
	*models.Recipe
	Figures models.RecipeFigures `json:"figures"`
}

type recipeDetail struct {
	recipeView
	Summary costing.Summary `json:"summary"`
}

func viewRecipe(r *models.Recipe) recipeView {
	return recipeView{Recipe: r, Figures: r.Figures()}
}

// sheetFromInput prices every line. Lines that carry no unit cost take the live price
// of their ingredient, which must exist.
func (h *Handler) sheetFromInput(c *gin.Context, input recipeInput) (*costing.Sheet, error) {
	sheet := costing.NewSheet(input.Name, input.Portions)
	sheet.Category = input.Category
	sheet.Price = input.Price

	ids := make([]int, 0, len(input.Lines))
	for _, l := range input.Lines {
		ids = append(ids, l.IngredientId)
	}
	current, err := middlewares.GetIngredientMap(c.Request.Context(), ids)
	if err != nil {
		return nil, utils.RemoteFailure("load ingredients", err)
	}

	for i, l := range input.Lines {
		ing, ok := current[l.IngredientId]
		if !ok {
			return nil, utils.InvalidInput("lines["+strconv.Itoa(i)+"].ingredient_id", "ingredient not found")
		}
		if l.UnitCost != nil {
			snapshot := ing.Clone()
			snapshot.Price = *l.UnitCost
			ing = snapshot
		}
		if _, err := sheet.AddLine(ing, l.Quantity); err != nil {
			return nil, err
		}
	}
	return sheet, nil
}

// ListRecipes GET /recipes?name=&order_by=&desc=
func (h *Handler) ListRecipes(c *gin.Context) {
	recipes, err := h.Store.ListRecipes(c.Request.Context(), store.RecipeFilter{
		Name:    c.Query("name"),
		OrderBy: c.Query("order_by"),
		Desc:    queryBool(c, "desc"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	items := make([]recipeView, 0, len(recipes))
	for _, r := range recipes {
		items = append(items, viewRecipe(r))
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GetRecipe GET /recipes/:id
func (h *Handler) GetRecipe(c *gin.Context) {
	id, ok := paramId(c, "id")
	if !ok {
		return
	}
	recipe, err := h.Store.GetRecipe(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondRecipe(c, http.StatusOK, recipe)
}

func (h *Handler) respondRecipe(c *gin.Context, status int, recipe *models.Recipe) {
	summary, err := costing.SheetFromRecipe(recipe).Summary(h.Costing)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, recipeDetail{recipeView: viewRecipe(recipe), Summary: summary})
}

// CreateRecipe POST /recipes
func (h *Handler) CreateRecipe(c *gin.Context) {
	var input recipeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	h.saveRecipe(c, 0, input, http.StatusCreated)
}

// UpdateRecipe PUT /recipes/:id replaces the header and the whole line set.
func (h *Handler) UpdateRecipe(c *gin.Context) {
	id, ok := paramId(c, "id")
	if !ok {
		return
	}
	var input recipeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	h.saveRecipe(c, id, input, http.StatusOK)
}

func (h *Handler) saveRecipe(c *gin.Context, id int, input recipeInput, status int) {
	ctx, span := tracer.Start(c.Request.Context(), "SaveRecipe")
	defer span.End()

	sheet, err := h.sheetFromInput(c, input)
	if err != nil {
		respondError(c, err)
		return
	}
	sheet.RecipeId = id
	saved, err := costing.Save(ctx, h.Store, sheet)
	if err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}
	h.respondRecipe(c, status, saved)
}

// DeleteRecipe DELETE /recipes/:id
func (h *Handler) DeleteRecipe(c *gin.Context) {
	id, ok := paramId(c, "id")
	if !ok {
		return
	}
	if err := h.Store.DeleteRecipe(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RecipeCurrentCost GET /recipes/:id/current-cost prices the saved lines at today's ingredient prices.
func (h *Handler) RecipeCurrentCost(c *gin.Context) {
	id, ok := paramId(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	recipe, err := middlewares.GetRecipe(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if recipe == nil {
		respondError(c, utils.ErrorRecordNotFound)
		return
	}
	ids := make([]int, 0, len(recipe.Ingredients))
	for _, l := range recipe.Ingredients {
		ids = append(ids, l.IngredientId)
	}
	current, err := middlewares.GetIngredientMap(ctx, ids)
	if err != nil {
		respondError(c, utils.RemoteFailure("load ingredients", err))
		return
	}
	c.JSON(http.StatusOK, costing.CompareCurrentCost(recipe, current))
}

type costingLineInput struct {
	Name string `json:"name"`
	// Quantity and UnitCost accept numbers or formatted strings such as "1,200".
	Quantity interface{} `json:"quantity"`
	UnitCost interface{} `json:"unit_cost"`
}

type costingInput struct {
	Portions        int                `json:"portions"`
	ErrorMarginRate interface{}        `json:"error_margin_rate"`
	Multiplier      interface{}        `json:"multiplier"`
	Lines           []costingLineInput `json:"lines"`
}

// CostingSummary POST /costing/summary is the stateless calculator behind the recipe form.
func (h *Handler) CostingSummary(c *gin.Context) {
	var input costingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	policy := h.Costing
	if input.ErrorMarginRate != nil {
		rate, err := utils.ParseNonNegativeDecimal("error_margin_rate", input.ErrorMarginRate)
		if err != nil {
			respondError(c, err)
			return
		}
		policy.ErrorMarginRate = rate
	}
	if input.Multiplier != nil {
		mult, err := utils.ParseDecimal("multiplier", input.Multiplier)
		if err != nil {
			respondError(c, err)
			return
		}
		if !mult.IsPositive() {
			respondError(c, utils.InvalidInput("multiplier", "must be > 0"))
			return
		}
		policy.Multiplier = mult
	}

	sheet := costing.NewSheet("", input.Portions)
	for i, l := range input.Lines {
		field := "lines[" + strconv.Itoa(i) + "]"
		unitCost, err := utils.ParseNonNegativeDecimal(field+".unit_cost", l.UnitCost)
		if err != nil {
			respondError(c, err)
			return
		}
		if _, err := sheet.AddLine(&models.Ingredient{Name: l.Name, Price: unitCost}, costing.DefaultQuantity); err != nil {
			respondError(c, err)
			return
		}
		if err := sheet.UpdateQuantityInput(i, l.Quantity); err != nil {
			respondError(c, err)
			return
		}
	}
	summary, err := sheet.Summary(policy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lines": sheet.Lines, "summary": summary})
}
