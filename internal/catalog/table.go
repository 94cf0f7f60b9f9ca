package catalog

import (
	"errors"
	"fmt"
	"strings"

	"packhouse/internal"
	"packhouse/internal/util"
)

var ErrColumnMissing = errors.New("required catalog column missing")

// Table is a loaded master spreadsheet: a header row plus data rows aligned
// to it. Loaders produce it; ProjectRows types it.
type Table struct {
	Headers []string
	Rows    [][]string
}

type columns struct {
	item         int
	weight       int
	packetSize   int
	packetUsed   int
	asin         int
	fkSKU        int
	mRef         int
	mrp          int
	fnsku        int
	fssai        int
	splitInto    int
	productLabel int
}

// resolveColumns matches headers the way ops exports actually vary: casing,
// padding and suffixes change between sheet revisions, so matching is
// substring-based on the lowercased trimmed name.
func resolveColumns(headers []string) (columns, error) {
	c := columns{
		item: -1, weight: -1, packetSize: -1, packetUsed: -1,
		asin: -1, fkSKU: -1, mRef: -1, mrp: -1,
		fnsku: -1, fssai: -1, splitInto: -1, productLabel: -1,
	}

	for i, h := range headers {
		lower := strings.ToLower(strings.TrimSpace(h))
		switch {
		case c.fkSKU < 0 && strings.Contains(lower, "fk") && strings.Contains(lower, "sku"):
			c.fkSKU = i
		case c.productLabel < 0 && strings.Contains(lower, "product") && strings.Contains(lower, "label"):
			c.productLabel = i
		case c.item < 0 && (lower == "item" || lower == "name" || strings.Contains(lower, "product name")):
			c.item = i
		case c.packetSize < 0 && strings.Contains(lower, "packet size"):
			c.packetSize = i
		case c.packetUsed < 0 && strings.Contains(lower, "packet used"):
			c.packetUsed = i
		case c.weight < 0 && strings.Contains(lower, "weight"):
			c.weight = i
		case c.asin < 0 && strings.Contains(lower, "asin"):
			c.asin = i
		case c.fnsku < 0 && strings.Contains(lower, "fnsku"):
			c.fnsku = i
		case c.mrp < 0 && strings.Contains(lower, "mrp"):
			c.mrp = i
		case c.fssai < 0 && strings.Contains(lower, "fssai"):
			c.fssai = i
		case c.splitInto < 0 && strings.Contains(lower, "split"):
			c.splitInto = i
		case c.mRef < 0 && (lower == "m" || strings.HasPrefix(lower, "m ")):
			c.mRef = i
		}
	}

	if c.item < 0 {
		return c, fmt.Errorf("%w: item", ErrColumnMissing)
	}
	if c.weight < 0 {
		return c, fmt.Errorf("%w: weight", ErrColumnMissing)
	}
	return c, nil
}

// ProjectRows types the table. Rows with no item name and no identifier are
// skipped; cell reads treat exporter blanks ("nan", "none", ...) as empty.
func ProjectRows(t Table) ([]internal.CatalogRow, error) {
	cols, err := resolveColumns(t.Headers)
	if err != nil {
		return nil, err
	}

	rows := make([]internal.CatalogRow, 0, len(t.Rows))
	for i, r := range t.Rows {
		get := func(idx int) string {
			if idx < 0 || idx >= len(r) {
				return ""
			}
			v := strings.TrimSpace(r[idx])
			if util.IsEmptyCell(v) {
				return ""
			}
			return v
		}

		row := internal.CatalogRow{
			Index:        i,
			Item:         get(cols.item),
			Weight:       get(cols.weight),
			PacketSize:   get(cols.packetSize),
			PacketUsed:   get(cols.packetUsed),
			ASIN:         get(cols.asin),
			FkSKU:        get(cols.fkSKU),
			MRef:         get(cols.mRef),
			MRP:          get(cols.mrp),
			FNSKU:        get(cols.fnsku),
			FSSAI:        get(cols.fssai),
			SplitInto:    get(cols.splitInto),
			ProductLabel: get(cols.productLabel),
		}
		if row.Item == "" && row.ASIN == "" && row.FkSKU == "" {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}
