package assemble

import (
	"testing"

	"packhouse/internal"
	"packhouse/internal/invoice"
	"packhouse/internal/pdftext"
)

// pageFromLines builds a single-fragment-per-line page; 12pt spacing keeps
// every string its own line.
func pageFromLines(num int, lines ...string) pdftext.Page {
	frags := make([]pdftext.Fragment, len(lines))
	for i, s := range lines {
		frags[i] = pdftext.Fragment{Text: s, X: 50, Y: float64(800 - i*12), W: float64(6 * len(s)), Size: 10}
	}
	return pdftext.NewPage(num, 595.28, 841.89, frags)
}

func hitAtLine(line, qty int) invoice.Hit {
	return invoice.Hit{Item: internal.InvoiceItem{Line: line, Qty: qty}}
}

func TestClassifyInvoicePage(t *testing.T) {
	page := pageFromLines(1,
		"Tax Invoice",
		"Order Number: 403-1234567-8901234",
		"Sl.No Description Unit Price Qty Net Amount",
		"1 Premium Almonds 500g B0ALMOND01",
		"Qty 2",
		"TOTAL 2",
	)
	hits := invoice.ExtractPageHits(page, 6)
	if len(hits) != 1 {
		t.Fatalf("hits = %d, want 1", len(hits))
	}

	info := ClassifyPage(page, hits)
	if info.Kind != KindInvoice {
		t.Fatalf("kind = %s, want invoice", info.Kind)
	}
	if len(info.TableHits) != 1 {
		t.Fatalf("table hits = %d, want 1", len(info.TableHits))
	}
	if info.OrderID != "403-1234567-8901234" {
		t.Fatalf("order id = %q", info.OrderID)
	}
	if !info.HasText {
		t.Fatal("HasText = false on a text page")
	}
}

func TestClassifyDropsHitsOutsideTable(t *testing.T) {
	page := pageFromLines(1,
		"Reference B0ALMOND01 appears in the header",
		"Sl.No Description Unit Price Qty Net Amount",
		"1 Premium Almonds 500g B0ALMOND01",
		"TOTAL 1",
	)
	// Hand-placed hits: line 0 precedes the table, line 2 is inside it.
	hits := []invoice.Hit{hitAtLine(0, 1), hitAtLine(2, 1)}

	info := ClassifyPage(page, hits)
	if len(info.TableHits) != 1 {
		t.Fatalf("table hits = %d, want 1", len(info.TableHits))
	}
	if info.TableHits[0].Item.Line != 2 {
		t.Fatalf("kept hit line = %d, want 2", info.TableHits[0].Item.Line)
	}
}

func TestClassifyTotalClosesTable(t *testing.T) {
	page := pageFromLines(1,
		"Description Qty",
		"row inside",
		"TOTAL 1",
		"B0ALMOND01 after the table",
	)
	hits := []invoice.Hit{hitAtLine(3, 1)}

	info := ClassifyPage(page, hits)
	if len(info.TableHits) != 0 {
		t.Fatalf("hit after TOTAL kept: %+v", info.TableHits)
	}
	if info.Kind == KindInvoice {
		t.Fatal("page without table hits classified as invoice")
	}
}

func TestClassifyLabelPage(t *testing.T) {
	page := pageFromLines(1,
		"E-Kart Logistics",
		"AWB No. FMPC0012345678",
		"OD123456789012345",
	)

	info := ClassifyPage(page, nil)
	if info.Kind != KindLabel {
		t.Fatalf("kind = %s, want label", info.Kind)
	}
	if info.AWB != "FMPC0012345678" {
		t.Fatalf("awb = %q", info.AWB)
	}
	if info.OrderID != "OD123456789012345" {
		t.Fatalf("order id = %q", info.OrderID)
	}
}

func TestClassifyBlankPage(t *testing.T) {
	page := pdftext.NewPage(4, 595.28, 841.89, nil)

	info := ClassifyPage(page, nil)
	if info.Kind != KindOther {
		t.Fatalf("kind = %s, want other", info.Kind)
	}
	if info.HasText {
		t.Fatal("HasText = true on an empty page")
	}
}

func TestNeedsHighlight(t *testing.T) {
	cases := []struct {
		name string
		hits []invoice.Hit
		want bool
	}{
		{"single unit", []invoice.Hit{hitAtLine(0, 1)}, false},
		{"multi quantity", []invoice.Hit{hitAtLine(0, 3)}, true},
		{"multi row", []invoice.Hit{hitAtLine(0, 1), hitAtLine(1, 1)}, true},
		{"no hits", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := needsHighlight(PageInfo{TableHits: tc.hits})
			if got != tc.want {
				t.Fatalf("needsHighlight = %v, want %v", got, tc.want)
			}
		})
	}
}
