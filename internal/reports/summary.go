// Package reports renders the operator-facing paperwork around a packing
// run: a printable packing summary, a cleaned order report and the bulk
// stock plan.
package reports

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"

	"packhouse/internal"
	"packhouse/internal/util"
)

var statusBlocks = []struct {
	status internal.PlanStatus
	title  string
}{
	{internal.PlanReady, "TO PACK"},
	{internal.PlanMissingFNSKU, "MISSING FNSKU"},
	{internal.PlanMissingMaster, "NOT IN MASTER"},
}

// PackingSummaryPDF writes the plan as a printable A4 sheet: one block per
// status, one row per plan line, and the packed/missing totals at the
// bottom.
func PackingSummaryPDF(plan []internal.PlanLine, outPath string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, "Packing Summary", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 5, time.Now().Format("02 Jan 2006 15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	packed := 0
	missing := 0
	for _, block := range statusBlocks {
		lines := filterStatus(plan, block.status)
		if len(lines) == 0 {
			continue
		}

		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(0, 7, block.title, "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)

		for _, p := range lines {
			if p.Status == internal.PlanReady {
				packed += p.Qty
			} else {
				missing++
			}
			pdf.CellFormat(12, 6, fmt.Sprintf("%d x", p.Qty), "B", 0, "R", false, 0, "")
			pdf.CellFormat(88, 6, util.TruncateName(p.Item, 48), "B", 0, "L", false, 0, "")
			pdf.CellFormat(20, 6, p.Weight, "B", 0, "L", false, 0, "")
			pdf.CellFormat(30, 6, p.FNSKU, "B", 0, "L", false, 0, "")
			pdf.CellFormat(0, 6, p.PacketUsed, "B", 1, "L", false, 0, "")
		}
		pdf.Ln(4)
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("TOTAL PACKED: %d packets", packed), "", 1, "L", false, 0, "")
	if missing > 0 {
		pdf.CellFormat(0, 7, fmt.Sprintf("MISSING: %d lines need attention", missing), "", 1, "L", false, 0, "")
	}

	if pdf.Err() {
		return fmt.Errorf("render summary: %w", pdf.Error())
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	return pdf.OutputFileAndClose(outPath)
}

func filterStatus(plan []internal.PlanLine, status internal.PlanStatus) []internal.PlanLine {
	var out []internal.PlanLine
	for _, p := range plan {
		if p.Status == status {
			out = append(out, p)
		}
	}
	return out
}
