package invoice

import (
	"regexp"
	"strings"

	"packhouse/internal"
	"packhouse/internal/pdftext"
)

// Hit pairs an extracted item with the text geometry that produced it, so
// the assembler can place highlight rectangles later.
type Hit struct {
	Item     internal.InvoiceItem
	IDFrags  []pdftext.Fragment
	QtyFrags []pdftext.Fragment
}

// ExtractPageHits scans one page for both marketplace forms. Extraction
// carries no state across pages.
func ExtractPageHits(page pdftext.Page, window int) []Hit {
	hits := extractAmazon(page, window)
	return append(hits, extractFlipkart(page)...)
}

// ExtractPage is ExtractPageHits stripped to items, for pipeline callers
// that do not care about geometry.
func ExtractPage(page pdftext.Page, window int) []internal.InvoiceItem {
	hits := ExtractPageHits(page, window)
	items := make([]internal.InvoiceItem, len(hits))
	for i, h := range hits {
		items[i] = h.Item
	}
	return items
}

func extractAmazon(page pdftext.Page, window int) []Hit {
	var hits []Hit
	orderID := findFirst(page, amazonOrderID)
	seen := map[string]bool{}

	for i, line := range page.Lines {
		for _, asin := range asinPattern.FindAllString(line.Text, -1) {
			if seen[asin] {
				continue
			}
			if !validASINContext(page.Lines, i, window) {
				continue
			}
			seen[asin] = true

			qty, qtyLine, qtyToken := detectQty(page.Lines, i, window)
			hit := Hit{
				Item: internal.InvoiceItem{
					Page:          page.Number,
					Line:          i,
					Source:        internal.SourcePDF,
					Marketplace:   internal.MarketplaceAmazon,
					RawIdentifier: asin,
					Qty:           qty,
					OrderID:       orderID,
				},
				IDFrags: fragmentsContaining(line, asin),
			}
			if qtyLine >= 0 {
				hit.QtyFrags = qtyFragment(page.Lines[qtyLine], qtyToken)
			}
			hits = append(hits, hit)
		}
	}
	return hits
}

func extractFlipkart(page pdftext.Page) []Hit {
	orderID := findFirst(page, orderIDPattern)
	awb := findFirstGroup(page, awbPattern)

	var hits []Hit
	inTable := false
	for i, line := range page.Lines {
		upper := strings.ToUpper(line.Text)
		if !inTable {
			if flipkartTableHeader(upper) {
				inTable = true
			}
			continue
		}
		if startsWithStopWord(upper) {
			break
		}

		m := flipkartItemRow.FindStringSubmatch(line.Text)
		if m == nil {
			continue
		}
		skuCell := strings.TrimSpace(m[1])
		qty := atoiSafe(m[3])
		if qty == 0 {
			qty = 1
		}
		name, weight, _ := ParseSKU(skuCell)

		hits = append(hits, Hit{
			Item: internal.InvoiceItem{
				Page:          page.Number,
				Line:          i,
				Source:        internal.SourcePDF,
				Marketplace:   internal.MarketplaceFlipkart,
				RawIdentifier: skuCell,
				Name:          name,
				WeightRaw:     weight,
				Qty:           qty,
				OrderID:       orderID,
				AWB:           awb,
			},
			IDFrags:  skuCellFragments(line),
			QtyFrags: qtyFragment(line, m[3]),
		})
	}
	return hits
}

// FindOrderID returns the first marketplace order id on the page, either
// form.
func FindOrderID(page pdftext.Page) string {
	if id := findFirst(page, orderIDPattern); id != "" {
		return id
	}
	return findFirst(page, amazonOrderID)
}

// FindAWB returns the courier tracking number on a Flipkart label page.
func FindAWB(page pdftext.Page) string {
	return findFirstGroup(page, awbPattern)
}

// DetectMarketplace classifies a raw identifier string.
func DetectMarketplace(raw string) internal.Marketplace {
	if asinPattern.MatchString(raw) {
		return internal.MarketplaceAmazon
	}
	return internal.MarketplaceFlipkart
}

func findFirst(page pdftext.Page, re *regexp.Regexp) string {
	for _, l := range page.Lines {
		if m := re.FindString(l.Text); m != "" {
			return m
		}
	}
	return ""
}

func findFirstGroup(page pdftext.Page, re *regexp.Regexp) string {
	for _, l := range page.Lines {
		if m := re.FindStringSubmatch(l.Text); m != nil {
			return m[1]
		}
	}
	return ""
}

// fragmentsContaining locates the fragments holding the identifier text.
// An identifier split across fragments highlights the whole line.
func fragmentsContaining(line pdftext.Line, sub string) []pdftext.Fragment {
	var out []pdftext.Fragment
	for _, f := range line.Fragments {
		if strings.Contains(f.Text, sub) {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return line.Fragments
	}
	return out
}

func qtyFragment(line pdftext.Line, token string) []pdftext.Fragment {
	if token == "" {
		return nil
	}
	for _, f := range line.Fragments {
		if strings.TrimSpace(f.Text) == token {
			return []pdftext.Fragment{f}
		}
	}
	for _, f := range line.Fragments {
		if strings.Contains(f.Text, token) {
			return []pdftext.Fragment{f}
		}
	}
	return nil
}

// skuCellFragments collects the fragments of the first table cell, up to
// the column separator.
func skuCellFragments(line pdftext.Line) []pdftext.Fragment {
	var out []pdftext.Fragment
	for _, f := range line.Fragments {
		if strings.Contains(f.Text, "|") {
			if len(out) == 0 {
				out = append(out, f)
			}
			break
		}
		out = append(out, f)
	}
	return out
}
