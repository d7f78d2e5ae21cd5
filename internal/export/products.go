// Package export renders catalog data as spreadsheets.
package export

import (
	"fmt"
	"io"
	"strconv"

	"storefront/internal/models"

	"github.com/tealeg/xlsx"
)

var productHeader = []string{"ID", "Name", "Description", "Price", "Stock", "Active", "Created At"}

// WriteProductsXLSX writes one sheet listing products to w.
func WriteProductsXLSX(w io.Writer, products []models.Product) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}

	row := sheet.AddRow()
	for _, h := range productHeader {
		row.AddCell().SetValue(h)
	}

	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetValue(p.ID)
		row.AddCell().SetValue(p.Name)
		row.AddCell().SetValue(p.Description)
		price, _ := p.Price.Float64()
		row.AddCell().SetValue(price)
		row.AddCell().SetValue(p.StockQuantity)
		row.AddCell().SetValue(strconv.FormatBool(p.IsActive))
		row.AddCell().SetValue(p.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
