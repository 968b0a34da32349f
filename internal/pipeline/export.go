package pipeline

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"salebook/internal"
)

// ExportRowsToXLSX writes a reconcile run to a review spreadsheet, one row
// per candidate line.
func ExportRowsToXLSX(rows []internal.ReconcileRow, outputPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	headers := []string{
		"line_no", "raw_item_text", "spoken_unit",
		"status", "score",
		"product_id", "product_name", "unit_name",
		"quantity", "unit_price", "vat_percent", "subtotal",
		"required_base", "available_base", "stock_ok",
		"candidate2_name", "candidate2_score",
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, row := range rows {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, row.LineNo)
		set(2, row.RawItemText)
		set(3, derefString(row.SpokenUnit))
		set(4, string(row.Status))
		set(5, row.Score)
		set(6, derefInt64(row.ProductID))
		set(7, derefString(row.ProductName))
		set(8, derefString(row.UnitName))
		set(9, derefFloat(row.Quantity))
		set(10, derefFloat(row.UnitPrice))
		set(11, derefFloat(row.VatPercent))
		set(12, derefFloat(row.Subtotal))
		set(13, derefFloat(row.RequiredBase))
		set(14, derefFloat(row.AvailableBase))
		set(15, row.StockOK)
		set(16, derefString(row.Candidate2Name))
		set(17, derefFloat(row.Candidate2Score))
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func derefFloat(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

func derefInt64(v *int64) any {
	if v == nil {
		return ""
	}
	return *v
}
