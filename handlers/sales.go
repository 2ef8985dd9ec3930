package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/kitchen_backend/config"
	"github.com/mmdatafocus/kitchen_backend/models"
	"github.com/mmdatafocus/kitchen_backend/reports"
	"github.com/mmdatafocus/kitchen_backend/store"
	"github.com/mmdatafocus/kitchen_backend/utils"
)

const defaultTopRecipes = 5

// ListSales GET /sales?limit=&status= newest first.
func (h *Handler) ListSales(c *gin.Context) {
	limit, err := queryInt(c, "limit", config.RecentSalesLimit)
	if err != nil {
		respondError(c, err)
		return
	}
	filter := store.SaleFilter{Limit: limit, Status: models.SaleStatus(c.Query("status"))}
	sales, err := h.Store.ListSales(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": sales})
}

// GetSale GET /sales/:id
func (h *Handler) GetSale(c *gin.Context) {
	id, ok := paramId(c, "id")
	if !ok {
		return
	}
	sale, err := h.Store.GetSale(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

// reportRange reads from/to (YYYY-MM-DD, inclusive) falling back to the last seven days.
// Ranges longer than reports.MaxRangeDays are refused.
func (h *Handler) reportRange(c *gin.Context) (time.Time, time.Time, error) {
	from, to := reports.DefaultRange(h.Now(), h.Location)
	if v := c.Query("from"); v != "" {
		t, err := time.ParseInLocation(reports.DateLayout, v, h.Location)
		if err != nil {
			return from, to, utils.InvalidInput("from", "expected "+reports.DateLayout)
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.ParseInLocation(reports.DateLayout, v, h.Location)
		if err != nil {
			return from, to, utils.InvalidInput("to", "expected "+reports.DateLayout)
		}
		to = t
	}
	if to.Before(from) {
		from, to = to, from
	}
	if !to.Before(from.AddDate(0, 0, reports.MaxRangeDays)) {
		return from, to, utils.InvalidInput("to", fmt.Sprintf("range is longer than %d days", reports.MaxRangeDays))
	}
	return from, to, nil
}

// buildReport lists the range's sales plus today's, so today's figures are right whatever the range.
func (h *Handler) buildReport(c *gin.Context) (reports.SalesReport, []*models.Sale, error) {
	from, to, err := h.reportRange(c)
	if err != nil {
		return reports.SalesReport{}, nil, err
	}
	now := h.Now()
	today := reports.DayStart(now, h.Location)
	start, end := from, to.AddDate(0, 0, 1)
	if today.Before(start) {
		start = today
	}
	if tomorrow := today.AddDate(0, 0, 1); tomorrow.After(end) {
		end = tomorrow
	}

	sales, err := h.Store.ListSales(c.Request.Context(), store.SaleFilter{From: &start, To: &end})
	if err != nil {
		return reports.SalesReport{}, nil, utils.RemoteFailure("list sales", err)
	}
	report := reports.BuildSalesReport(sales, from, to, now, h.Location)

	inRange := make([]*models.Sale, 0, len(sales))
	rangeEnd := to.AddDate(0, 0, 1)
	for _, sale := range sales {
		if !sale.CreatedAt.Before(from) && sale.CreatedAt.Before(rangeEnd) {
			inRange = append(inRange, sale)
		}
	}
	return report, inRange, nil
}

// SalesReport GET /reports/sales?from=&to=
func (h *Handler) SalesReport(c *gin.Context) {
	report, _, err := h.buildReport(c)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// SalesReportExcel GET /reports/sales.xlsx?from=&to=
func (h *Handler) SalesReportExcel(c *gin.Context) {
	report, sales, err := h.buildReport(c)
	if err != nil {
		respondError(c, err)
		return
	}
	filename := "sales_" + report.From + "_" + report.To + ".xlsx"
	c.Header("Content-Type", reports.ExcelContentType)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Status(http.StatusOK)
	if err := reports.ExportSalesExcel(c.Writer, report, sales); err != nil {
		config.LogError(config.GetLogger(), "handlers", "SalesReportExcel", "write workbook", map[string]interface{}{"from": report.From, "to": report.To}, err)
		_ = c.Error(err)
	}
}

// TopRecipes GET /reports/top-recipes?limit=&from=&to= ranks recipes by margin with units sold in the range.
func (h *Handler) TopRecipes(c *gin.Context) {
	limit, err := queryInt(c, "limit", defaultTopRecipes)
	if err != nil {
		respondError(c, err)
		return
	}
	_, sales, err := h.buildReport(c)
	if err != nil {
		respondError(c, err)
		return
	}
	recipes, err := h.Store.ListRecipes(c.Request.Context(), store.RecipeFilter{})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": reports.TopRecipes(recipes, sales, limit)})
}
