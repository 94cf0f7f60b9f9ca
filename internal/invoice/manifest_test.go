package invoice

import (
	"testing"

	"packhouse/internal"
)

func TestParseHTMLManifest(t *testing.T) {
	html := `
<html><body>
<p>Orders for today</p>
<table>
  <tr><th>SKU</th><th>Product</th><th>Qty</th></tr>
  <tr><td>B0ABCD1234</td><td>Sattu Powder 1kg</td><td>2</td></tr>
  <tr><td>1 Chana Sattu 500g</td><td>Desi Chana Sattu</td><td>3</td></tr>
</table>
</body></html>`

	items := ParseHTMLManifest(html)
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}

	if items[0].Marketplace != internal.MarketplaceAmazon || items[0].RawIdentifier != "B0ABCD1234" {
		t.Fatalf("first = %+v", items[0])
	}
	if items[0].Qty != 2 || items[0].Source != internal.SourceManifest {
		t.Fatalf("first = %+v", items[0])
	}

	if items[1].Marketplace != internal.MarketplaceFlipkart {
		t.Fatalf("second = %+v", items[1])
	}
	if items[1].Name != "chana sattu" || items[1].WeightRaw != "500g" || items[1].Qty != 3 {
		t.Fatalf("second = %+v", items[1])
	}
}

func TestParseHTMLManifestSkipsUnrecognizedTables(t *testing.T) {
	html := `
<table>
  <tr><th>Date</th><th>Amount</th></tr>
  <tr><td>2025-01-01</td><td>100</td></tr>
</table>`

	if items := ParseHTMLManifest(html); len(items) != 0 {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestParseHTMLManifestDefaultsQty(t *testing.T) {
	html := `
<table>
  <tr><th>ASIN</th><th>Product</th></tr>
  <tr><td>B0XYZ56789</td><td>Makhana</td></tr>
</table>`

	items := ParseHTMLManifest(html)
	if len(items) != 1 || items[0].Qty != 1 {
		t.Fatalf("items = %+v", items)
	}
}
