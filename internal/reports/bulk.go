package reports

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"packhouse/internal/catalog"
	"packhouse/internal/util"
)

// BulkLine is one variation's slice of a bulk packing target.
type BulkLine struct {
	Item      string
	WeightKg  float64
	UnitsSold int
	ShareKg   float64
	Packets   int
}

// Total deviation from the target tolerated after adjustment.
const bulkTolerance = 0.05

const maxAdjustIterations = 100

// BulkPlan distributes a packing target over the variations of a sales
// pivot. The pivot alternates parent rows (product name in the first cell)
// and variation rows (numeric packet weight, units sold beside it); each
// variation receives the share of the target its historical kilograms
// earned, converted to an even packet count and then nudged in pairs until
// the filled total sits within tolerance of the target. A non-empty item
// filters to matching parents.
func BulkPlan(pivot catalog.Table, item string, targetKg float64) ([]BulkLine, error) {
	if targetKg <= 0 {
		return nil, fmt.Errorf("bulk plan: target %.2f kg", targetKg)
	}

	filter := util.NameKey(item)
	var plan []BulkLine

	current := ""
	var group []BulkLine
	flush := func() {
		if len(group) > 0 {
			plan = append(plan, distribute(group, targetKg)...)
		}
		group = nil
	}

	for _, row := range pivot.Rows {
		if len(row) == 0 {
			continue
		}
		first := strings.TrimSpace(row[0])
		if first == "" {
			continue
		}

		if kg, ok := util.Kilograms(first); ok {
			if current == "" {
				continue
			}
			group = append(group, BulkLine{
				Item:      current,
				WeightKg:  kg,
				UnitsSold: unitsCell(row),
			})
			continue
		}

		flush()
		current = ""
		if filter == "" || strings.Contains(util.NameKey(first), filter) {
			current = first
		}
	}
	flush()

	if len(plan) == 0 {
		if filter != "" {
			return nil, fmt.Errorf("bulk plan: no variations for %q in the pivot", item)
		}
		return nil, fmt.Errorf("bulk plan: pivot has no variation rows")
	}
	return plan, nil
}

func unitsCell(row []string) int {
	if len(row) < 2 {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(row[1]))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// distribute splits the target across one parent's variations by sold
// kilograms, then adjusts.
func distribute(group []BulkLine, targetKg float64) []BulkLine {
	totalKg := 0.0
	for _, g := range group {
		totalKg += g.WeightKg * float64(g.UnitsSold)
	}
	if totalKg <= 0 {
		return nil
	}

	for i := range group {
		sold := group[i].WeightKg * float64(group[i].UnitsSold)
		group[i].ShareKg = sold / totalKg * targetKg
		group[i].Packets = evenPackets(group[i].ShareKg / group[i].WeightKg)
	}
	adjust(group, targetKg)
	return group
}

// evenPackets rounds to the nearest even count; packets come off the
// filling line in pairs.
func evenPackets(x float64) int {
	n := int(2 * math.RoundToEven(x/2))
	if n < 0 {
		return 0
	}
	return n
}

// adjust nudges packet counts in pairs until the filled weight lands within
// tolerance: overshoot drops a pair from the heaviest contributor,
// undershoot adds a pair of the lightest packet.
func adjust(group []BulkLine, targetKg float64) {
	for i := 0; i < maxAdjustIterations; i++ {
		total := 0.0
		for _, g := range group {
			total += float64(g.Packets) * g.WeightKg
		}
		diff := total - targetKg
		if math.Abs(diff) <= bulkTolerance*targetKg {
			return
		}

		if diff > 0 {
			drop := -1
			for j, g := range group {
				if g.Packets < 2 {
					continue
				}
				if drop < 0 || float64(g.Packets)*g.WeightKg > float64(group[drop].Packets)*group[drop].WeightKg {
					drop = j
				}
			}
			if drop < 0 {
				return
			}
			group[drop].Packets -= 2
			continue
		}

		add := 0
		for j, g := range group {
			if g.WeightKg < group[add].WeightKg {
				add = j
			}
		}
		group[add].Packets += 2
	}
}

// BulkPlanXLSX writes the plan with a filled-total footer.
func BulkPlanXLSX(plan []BulkLine, outPath string) error {
	f := excelize.NewFile()
	sheet := "Bulk Plan"
	_ = f.SetSheetName(f.GetSheetName(0), sheet)

	headers := []string{"Item", "Packet (kg)", "Units Sold", "Share (kg)", "Packets", "Fill (kg)"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.CoordinatesToCellName(len(headers), 1)
		_ = f.SetCellStyle(sheet, "A1", last, style)
	}

	totalPackets := 0
	totalKg := 0.0
	for i, p := range plan {
		rowN := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, rowN)
			_ = f.SetCellValue(sheet, cell, value)
		}
		fill := float64(p.Packets) * p.WeightKg
		totalPackets += p.Packets
		totalKg += fill
		set(1, p.Item)
		set(2, p.WeightKg)
		set(3, p.UnitsSold)
		set(4, math.Round(p.ShareKg*100)/100)
		set(5, p.Packets)
		set(6, math.Round(fill*100)/100)
	}

	footer := len(plan) + 2
	for col, v := range map[int]any{1: "TOTAL", 5: totalPackets, 6: math.Round(totalKg*100) / 100} {
		cell, _ := excelize.CoordinatesToCellName(col, footer)
		_ = f.SetCellValue(sheet, cell, v)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outPath)
}
