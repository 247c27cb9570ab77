package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"oshikake/internal/domain"
)

const (
	headerSheet = "Orders"
	detailSheet = "Line Items"
)

// OrdersXLSX renders orders into a two-sheet workbook: one row per header
// and one row per line item.
func OrdersXLSX(orders []domain.Order) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", headerSheet); err != nil {
		return nil, fmt.Errorf("export.OrdersXLSX: %w", err)
	}
	if _, err := f.NewSheet(detailSheet); err != nil {
		return nil, fmt.Errorf("export.OrdersXLSX: %w", err)
	}

	headerCols := []string{"Order ID", "Order Date", "Category", "Subtotal", "Shipping Fee", "Total Amount", "Document"}
	writeRow(f, headerSheet, 1, headerCols)

	detailCols := []string{"Order ID", "Item ID", "Product Name", "Unit Price", "Quantity", "Subtotal"}
	writeRow(f, detailSheet, 1, detailCols)

	headerRow := 2
	detailRow := 2
	for _, o := range orders {
		writeRow(f, headerSheet, headerRow, []interface{}{
			o.OrderID, o.OrderDate, string(o.Category),
			o.Subtotal, o.ShippingFee, o.TotalAmount, o.DocumentName,
		})
		headerRow++

		for _, d := range o.Details {
			writeRow(f, detailSheet, detailRow, []interface{}{
				d.OrderHeaderID, d.ItemID, d.ProductName,
				d.UnitPrice, d.Quantity, d.Subtotal,
			})
			detailRow++
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("export.OrdersXLSX: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow[T any](f *excelize.File, sheet string, row int, values []T) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}
