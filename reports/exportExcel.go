package reports

import (
	"fmt"
	"io"

	"github.com/mmdatafocus/kitchen_backend/models"
	"github.com/xuri/excelize/v2"
)

const ExcelContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ExcelExporter interface {
	GetCellValues() []interface{}
}

type saleRow struct {
	sale *models.Sale
}

func (r saleRow) GetCellValues() []interface{} {
	delivery := ""
	if r.sale.DeliveryDate != nil {
		delivery = r.sale.DeliveryDate.Format(DateLayout)
	}
	return []interface{}{
		r.sale.SaleNumber,
		r.sale.CreatedAt.Format("2006-01-02 15:04"),
		string(r.sale.Status),
		r.sale.PaymentMethod,
		r.sale.ItemCount(),
		r.sale.Total.InexactFloat64(),
		delivery,
	}
}

type itemRow struct {
	saleNumber string
	item       *models.SaleItem
}

func (r itemRow) GetCellValues() []interface{} {
	return []interface{}{
		r.saleNumber,
		r.item.ProductName,
		r.item.Quantity,
		r.item.Price.InexactFloat64(),
		r.item.Subtotal().InexactFloat64(),
	}
}

func (d DaySales) GetCellValues() []interface{} {
	return []interface{}{d.Date, d.Tickets, d.Total.InexactFloat64()}
}

// ExportSalesExcel writes a workbook with the daily summary, the sales and their items.
func ExportSalesExcel(w io.Writer, report SalesReport, sales []*models.Sale) error {
	f := excelize.NewFile()
	defer f.Close()

	days := make([]ExcelExporter, 0, len(report.Days))
	for _, day := range report.Days {
		days = append(days, day)
	}
	saleRows := make([]ExcelExporter, 0, len(sales))
	itemRows := []ExcelExporter{}
	for _, sale := range sales {
		saleRows = append(saleRows, saleRow{sale: sale})
		for _, item := range sale.Items {
			itemRows = append(itemRows, itemRow{saleNumber: sale.SaleNumber, item: item})
		}
	}

	if err := f.SetSheetName("Sheet1", "Summary"); err != nil {
		return err
	}
	if err := writeSheet(f, "Summary", days, "Date", "Tickets", "Total"); err != nil {
		return err
	}
	totalRow := len(days) + 2
	if err := setRow(f, "Summary", totalRow, []interface{}{"Total", report.Tickets, report.Total.InexactFloat64()}); err != nil {
		return err
	}

	if _, err := f.NewSheet("Sales"); err != nil {
		return err
	}
	if err := writeSheet(f, "Sales", saleRows, "Number", "Date", "Status", "Payment", "Items", "Total", "Delivery"); err != nil {
		return err
	}
	if _, err := f.NewSheet("Items"); err != nil {
		return err
	}
	if err := writeSheet(f, "Items", itemRows, "Sale", "Product", "Quantity", "Price", "Subtotal"); err != nil {
		return err
	}
	f.SetActiveSheet(0)
	return f.Write(w)
}

func writeSheet(f *excelize.File, sheetName string, data []ExcelExporter, headings ...string) error {
	header := make([]interface{}, len(headings))
	for i, h := range headings {
		header[i] = h
	}
	if err := setRow(f, sheetName, 1, header); err != nil {
		return err
	}
	for i, d := range data {
		if err := setRow(f, sheetName, i+2, d.GetCellValues()); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheetName string, rowNo int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNo)
	if err != nil {
		return fmt.Errorf("row %d: %w", rowNo, err)
	}
	return f.SetSheetRow(sheetName, cell, &values)
}
