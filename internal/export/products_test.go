package export_test

import (
	"bytes"
	"testing"
	"time"

	"storefront/internal/export"
	"storefront/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
)

func TestWriteProductsXLSX(t *testing.T) {
	products := []models.Product{
		{ID: "p-1", Name: "Laptop", Price: decimal.RequireFromString("1200.50"), StockQuantity: 3, IsActive: true, CreatedAt: time.Now()},
		{ID: "p-2", Name: "Mouse", Price: decimal.RequireFromString("25.00"), StockQuantity: 0, CreatedAt: time.Now()},
	}

	var buf bytes.Buffer
	require.NoError(t, export.WriteProductsXLSX(&buf, products))

	file, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, file.Sheets, 1)

	sheet := file.Sheets[0]
	assert.Equal(t, "Products", sheet.Name)
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, "Name", sheet.Rows[0].Cells[1].Value)
	assert.Equal(t, "Laptop", sheet.Rows[1].Cells[1].Value)
	assert.Equal(t, "Mouse", sheet.Rows[2].Cells[1].Value)
	assert.Equal(t, "3", sheet.Rows[1].Cells[4].Value)
}
