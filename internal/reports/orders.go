package reports

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"packhouse/internal/catalog"
	"packhouse/internal/util"
)

const (
	ordersSheet = "Orders"
	multiSheet  = "Multi-Item Orders"
)

// OrderRow is one cleaned row of a marketplace order export.
type OrderRow struct {
	OrderID   string
	Product   string
	Qty       int
	Slot      string
	MultiItem bool
}

// OrderReportStats summarizes what the report writer produced.
type OrderReportStats struct {
	Rows            int
	Orders          int
	MultiItemOrders int
}

type orderColumns struct {
	orderID int
	asin    int
	name    int
	qty     int
	slot    int
}

// resolveOrderColumns reads the export header the way marketplaces write
// it: hyphenated lowercase on Amazon ("tracking-id", "product-name"),
// spaced title case elsewhere. Matching is substring on the folded name.
func resolveOrderColumns(headers []string) (orderColumns, error) {
	c := orderColumns{orderID: -1, asin: -1, name: -1, qty: -1, slot: -1}
	for i, h := range headers {
		lower := strings.ToLower(strings.TrimSpace(h))
		folded := strings.NewReplacer("-", " ", "_", " ").Replace(lower)
		switch {
		case c.orderID < 0 && (strings.Contains(folded, "tracking id") || strings.Contains(folded, "order id")):
			c.orderID = i
		case c.asin < 0 && strings.Contains(folded, "asin"):
			c.asin = i
		case c.name < 0 && (strings.Contains(folded, "product name") || folded == "title" || folded == "name"):
			c.name = i
		case c.qty < 0 && (strings.Contains(folded, "quantity") || folded == "qty"):
			c.qty = i
		case c.slot < 0 && (strings.Contains(folded, "pickup") || strings.Contains(folded, "slot")):
			c.slot = i
		}
	}
	if c.orderID < 0 {
		return c, fmt.Errorf("order export: no tracking/order id column")
	}
	if c.asin < 0 && c.name < 0 {
		return c, fmt.Errorf("order export: neither asin nor product name column")
	}
	return c, nil
}

// CleanOrders types an order export and resolves display names through the
// catalog: an ASIN match replaces the listing title with the master's item
// and weight; rows sharing an order id get the multi-item flag.
func CleanOrders(orders catalog.Table, idx *catalog.Index) ([]OrderRow, error) {
	cols, err := resolveOrderColumns(orders.Headers)
	if err != nil {
		return nil, err
	}

	get := func(row []string, idx int) string {
		if idx < 0 || idx >= len(row) {
			return ""
		}
		v := strings.TrimSpace(row[idx])
		if util.IsEmptyCell(v) {
			return ""
		}
		return v
	}

	rows := make([]OrderRow, 0, len(orders.Rows))
	perOrder := map[string]int{}
	for _, r := range orders.Rows {
		row := OrderRow{
			OrderID: get(r, cols.orderID),
			Product: cleanName(get(r, cols.asin), get(r, cols.name), idx),
			Qty:     1,
			Slot:    get(r, cols.slot),
		}
		if row.OrderID == "" && row.Product == "" {
			continue
		}
		if q, err := strconv.Atoi(get(r, cols.qty)); err == nil && q > 0 {
			row.Qty = q
		}
		if row.OrderID != "" {
			perOrder[row.OrderID]++
		}
		rows = append(rows, row)
	}

	for i := range rows {
		rows[i].MultiItem = perOrder[rows[i].OrderID] > 1
	}
	return rows, nil
}

func cleanName(asin, raw string, idx *catalog.Index) string {
	if idx != nil && asin != "" {
		key := strings.ToUpper(strings.TrimSpace(asin))
		if rows := idx.ByASIN[key]; len(rows) > 0 {
			return util.TruncateName(strings.TrimSpace(rows[0].Item+" "+rows[0].Weight), 40)
		}
	}
	return util.TruncateName(raw, 40)
}

// OrderReportXLSX writes the cleaned export as a two-sheet workbook: every
// order, then the multi-item orders alone so the packer can stage them
// together.
func OrderReportXLSX(orders catalog.Table, idx *catalog.Index, outPath string) (OrderReportStats, error) {
	rows, err := CleanOrders(orders, idx)
	if err != nil {
		return OrderReportStats{}, err
	}

	f := excelize.NewFile()
	_ = f.SetSheetName(f.GetSheetName(0), ordersSheet)
	writeOrderSheet(f, ordersSheet, rows)

	var multi []OrderRow
	for _, r := range rows {
		if r.MultiItem {
			multi = append(multi, r)
		}
	}
	if len(multi) > 0 {
		if _, err := f.NewSheet(multiSheet); err != nil {
			return OrderReportStats{}, err
		}
		writeOrderSheet(f, multiSheet, multi)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return OrderReportStats{}, err
	}
	if err := f.SaveAs(outPath); err != nil {
		return OrderReportStats{}, err
	}

	stats := OrderReportStats{Rows: len(rows)}
	seen := map[string]bool{}
	multiSeen := map[string]bool{}
	for _, r := range rows {
		if r.OrderID == "" || seen[r.OrderID] {
			continue
		}
		seen[r.OrderID] = true
		stats.Orders++
	}
	for _, r := range multi {
		if r.OrderID == "" || multiSeen[r.OrderID] {
			continue
		}
		multiSeen[r.OrderID] = true
		stats.MultiItemOrders++
	}
	return stats, nil
}

func writeOrderSheet(f *excelize.File, sheet string, rows []OrderRow) {
	headers := []string{"Order ID", "Product", "Qty", "Pickup Slot", "Multi-Item"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.CoordinatesToCellName(len(headers), 1)
		_ = f.SetCellStyle(sheet, "A1", last, style)
	}

	for i, r := range rows {
		rowN := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, rowN)
			_ = f.SetCellValue(sheet, cell, value)
		}
		set(1, r.OrderID)
		set(2, r.Product)
		set(3, r.Qty)
		set(4, r.Slot)
		if r.MultiItem {
			set(5, "YES")
		}
	}
}
