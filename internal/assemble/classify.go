package assemble

import (
	"strings"

	"packhouse/internal/invoice"
	"packhouse/internal/pdftext"
)

type PageKind int

const (
	KindOther PageKind = iota
	KindInvoice
	KindLabel
)

func (k PageKind) String() string {
	switch k {
	case KindInvoice:
		return "invoice"
	case KindLabel:
		return "label"
	default:
		return "other"
	}
}

// PageInfo is one source page after classification: its kind, the order
// identifiers found on it, and the identifier hits that fell inside an item
// table. Hits outside a table are address or label context and never reach
// TableHits.
type PageInfo struct {
	Number    int
	Width     float64
	Height    float64
	Kind      PageKind
	OrderID   string
	AWB       string
	HasText   bool
	TableHits []invoice.Hit
}

// ClassifyPage walks the page lines with a fresh table state machine: a
// line carrying both Description and Qty opens the table, a line starting
// with TOTAL closes it. State never crosses pages.
func ClassifyPage(page pdftext.Page, hits []invoice.Hit) PageInfo {
	inTable := false
	tableLine := make([]bool, len(page.Lines))
	for i, line := range page.Lines {
		upper := strings.ToUpper(strings.TrimSpace(line.Text))
		if !inTable {
			if strings.Contains(upper, "DESCRIPTION") && strings.Contains(upper, "QTY") {
				inTable = true
			}
			continue
		}
		if strings.HasPrefix(upper, "TOTAL") {
			inTable = false
			continue
		}
		tableLine[i] = true
	}

	info := PageInfo{
		Number:  page.Number,
		Width:   page.Width,
		Height:  page.Height,
		OrderID: invoice.FindOrderID(page),
		AWB:     invoice.FindAWB(page),
		HasText: len(page.Lines) > 0,
	}

	for _, h := range hits {
		if h.Item.Line >= 0 && h.Item.Line < len(tableLine) && tableLine[h.Item.Line] {
			info.TableHits = append(info.TableHits, h)
		}
	}

	switch {
	case len(info.TableHits) > 0:
		info.Kind = KindInvoice
	case info.AWB != "":
		info.Kind = KindLabel
	default:
		info.Kind = KindOther
	}

	return info
}

// needsHighlight is the packer alert rule: more than one unit in total, or
// more than one item row on the page.
func needsHighlight(info PageInfo) bool {
	total := 0
	for _, h := range info.TableHits {
		total += h.Item.Qty
	}
	return total > 1 || len(info.TableHits) > 1
}
