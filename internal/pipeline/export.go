package pipeline

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"packhouse/internal"
)

const (
	planSheet    = "Packing Plan"
	missingSheet = "Missing Products"
)

// ExportPlanXLSX writes the packing plan as a workbook: one sheet with every
// plan line plus blank operator columns, and a Missing Products sheet when
// any line is not ready. Empty FNSKU cells print as MISSING so they stand
// out on paper.
func ExportPlanXLSX(plan []internal.PlanLine, outputPath string) error {
	f := excelize.NewFile()
	_ = f.SetSheetName(f.GetSheetName(0), planSheet)

	writeHeader(f, planSheet, []string{
		"Item", "Weight", "Qty", "Packet Size", "Packet Used", "ASIN",
		"MRP", "FNSKU", "FSSAI", "Product Label", "Split From",
		"Packed Today", "Available", "Status",
	})

	for i, p := range plan {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(planSheet, cell, value)
		}
		set(1, p.Item)
		set(2, p.Weight)
		set(3, p.Qty)
		set(4, p.PacketSize)
		set(5, p.PacketUsed)
		set(6, p.ASIN)
		set(7, p.MRP)
		set(8, displayFNSKU(p.FNSKU))
		set(9, p.FSSAI)
		set(10, p.ProductLabel)
		set(11, p.SplitFrom)
		set(12, "")
		set(13, "")
		set(14, string(p.Status))
	}

	if missing := MissingProducts(plan); len(missing) > 0 {
		if _, err := f.NewSheet(missingSheet); err != nil {
			return err
		}
		writeHeader(f, missingSheet, []string{"Identifier", "Product", "Weight", "Issue", "Qty"})
		for i, p := range missing {
			r := i + 2
			set := func(col int, value any) {
				cell, _ := excelize.CoordinatesToCellName(col, r)
				_ = f.SetCellValue(missingSheet, cell, value)
			}
			set(1, p.ASIN)
			set(2, p.Item)
			set(3, p.Weight)
			set(4, p.Issue)
			set(5, p.Qty)
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func writeHeader(f *excelize.File, sheet string, headers []string) {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	_ = f.SetCellStyle(sheet, "A1", last, style)
}

func displayFNSKU(fnsku string) string {
	if fnsku == "" {
		return "MISSING"
	}
	return fnsku
}
