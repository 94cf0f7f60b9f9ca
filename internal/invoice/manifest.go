package invoice

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"packhouse/internal"
)

// ParseHTMLManifest reads order rows out of an HTML email body.
// Marketplace notification mails carry the day's orders as a plain table;
// any table with a recognizable identifier column contributes items.
func ParseHTMLManifest(html string) []internal.InvoiceItem {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	out := []internal.InvoiceItem{}
	line := 0
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		rows := table.Find("tr")
		if rows.Length() < 2 {
			return
		}

		headers := []string{}
		rows.First().Find("th,td").Each(func(_ int, cell *goquery.Selection) {
			headers = append(headers, strings.ToLower(strings.TrimSpace(cell.Text())))
		})

		idIdx := findHeaderIndex(headers, []string{"sku", "asin", "product id", "item id"})
		qtyIdx := findHeaderIndex(headers, []string{"qty", "quantity", "units"})
		nameIdx := findHeaderIndex(headers, []string{"product", "description", "item"})
		if idIdx < 0 && nameIdx < 0 {
			return
		}

		rows.Slice(1, rows.Length()).Each(func(_ int, row *goquery.Selection) {
			cells := []string{}
			row.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, strings.Join(strings.Fields(cell.Text()), " "))
			})
			if len(cells) == 0 {
				return
			}

			raw := pickCell(cells, idIdx)
			if raw == "" {
				raw = pickCell(cells, nameIdx)
			}
			if raw == "" {
				return
			}
			qty := atoiSafe(pickCell(cells, qtyIdx))
			if qty <= 0 {
				qty = 1
			}

			line++
			item := internal.InvoiceItem{
				Line:          line,
				Source:        internal.SourceManifest,
				Marketplace:   DetectMarketplace(raw),
				RawIdentifier: raw,
				Qty:           qty,
			}
			if item.Marketplace == internal.MarketplaceFlipkart {
				if name, weight, ok := ParseSKU(raw); ok {
					item.Name, item.WeightRaw = name, weight
				}
			}
			out = append(out, item)
		})
	})
	return out
}

func findHeaderIndex(headers []string, keys []string) int {
	for i, h := range headers {
		for _, k := range keys {
			if strings.Contains(h, k) {
				return i
			}
		}
	}
	return -1
}

func pickCell(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[idx])
}
