package assemble

import (
	"testing"

	"packhouse/internal"
	"packhouse/internal/invoice"
)

func invoicePage(num int, orderID, asin string, qty int) PageInfo {
	return PageInfo{
		Number:  num,
		Kind:    KindInvoice,
		OrderID: orderID,
		HasText: true,
		TableHits: []invoice.Hit{{
			Item: internal.InvoiceItem{RawIdentifier: asin, Qty: qty, OrderID: orderID},
		}},
	}
}

func labelPage(num int, orderID string) PageInfo {
	return PageInfo{Number: num, Kind: KindLabel, OrderID: orderID, AWB: "FMPC0000000001", HasText: true}
}

func resolverFor(rows map[string]*internal.CatalogRow) Resolver {
	return func(it internal.InvoiceItem) *internal.CatalogRow {
		return rows[it.RawIdentifier]
	}
}

func TestBuildGroupsPairsByOrderID(t *testing.T) {
	pages := []PageInfo{
		labelPage(1, "OD1"),
		invoicePage(2, "OD1", "B0AAAAAAA1", 1),
		invoicePage(3, "403-1234567-8901234", "B0BBBBBBB1", 1),
	}

	groups := BuildGroups(pages, resolverFor(nil))
	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(groups))
	}
	if n := len(groups[0].Pages); n != 2 {
		t.Fatalf("first group pages = %d, want 2", n)
	}
	if groups[0].Pages[0].Number != 1 || groups[0].Pages[1].Number != 2 {
		t.Fatalf("label/invoice pair split: %+v", groups[0].Pages)
	}
}

func TestBuildGroupsSingletonWithoutOrderID(t *testing.T) {
	pages := []PageInfo{
		{Number: 1, Kind: KindOther},
		{Number: 2, Kind: KindOther},
	}

	groups := BuildGroups(pages, resolverFor(nil))
	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(groups))
	}
}

func TestGroupKeyPrefersInvoicePage(t *testing.T) {
	rows := map[string]*internal.CatalogRow{
		"B0AAAAAAA1": {Item: "almonds premium", Weight: "500g"},
	}
	pages := []PageInfo{
		labelPage(1, "OD1"),
		invoicePage(2, "OD1", "B0AAAAAAA1", 1),
	}

	groups := BuildGroups(pages, resolverFor(rows))
	if got := groups[0].Key.Primary; got != "almonds premium" {
		t.Fatalf("primary = %q, want the matched item name", got)
	}
}

func TestSortGroupsOrdersByNameWeightThenSentinels(t *testing.T) {
	rows := map[string]*internal.CatalogRow{
		"B0CASHEW01": {Item: "cashews whole", Weight: "250g"},
		"B0ALMOND01": {Item: "almonds premium", Weight: "500g"},
	}
	pages := []PageInfo{
		invoicePage(1, "OD1", "B0CASHEW01", 1),
		invoicePage(2, "OD2", "B0UNKNOWN1", 1), // not in the catalog
		invoicePage(3, "OD3", "B0ALMOND01", 1),
		labelPage(4, "OD4"), // no identifier at all
	}

	groups := BuildGroups(pages, resolverFor(rows))
	SortGroups(groups)

	got := make([]int, len(groups))
	for i, g := range groups {
		got[i] = g.Pages[0].Number
	}
	// almonds, cashews, then the sentinels: no-identifier before unmatched.
	want := []int{3, 1, 4, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sorted pages = %v, want %v", got, want)
		}
	}

	if groups[2].Key.Primary != SentinelNoIdentifier {
		t.Fatalf("third key = %q, want %q", groups[2].Key.Primary, SentinelNoIdentifier)
	}
	if groups[3].Key.Primary != SentinelUnmatched {
		t.Fatalf("fourth key = %q, want %q", groups[3].Key.Primary, SentinelUnmatched)
	}
}

func TestSortGroupsWeightBreaksNameTie(t *testing.T) {
	rows := map[string]*internal.CatalogRow{
		"B0ALMOND02": {Item: "almonds premium", Weight: "1kg"},
		"B0ALMOND01": {Item: "almonds premium", Weight: "250g"},
	}
	pages := []PageInfo{
		invoicePage(1, "OD1", "B0ALMOND02", 1),
		invoicePage(2, "OD2", "B0ALMOND01", 1),
	}

	groups := BuildGroups(pages, resolverFor(rows))
	SortGroups(groups)

	// Normalized weights sort lexically: "1kg" before "250g".
	if groups[0].Pages[0].Number != 1 {
		t.Fatalf("first group page = %d, want 1", groups[0].Pages[0].Number)
	}
}

func TestSortGroupsStableForEqualKeys(t *testing.T) {
	rows := map[string]*internal.CatalogRow{
		"B0ALMOND01": {Item: "almonds premium", Weight: "500g"},
	}
	pages := []PageInfo{
		invoicePage(1, "", "B0ALMOND01", 1),
		invoicePage(2, "", "B0ALMOND01", 1),
	}

	groups := BuildGroups(pages, resolverFor(rows))
	SortGroups(groups)

	if groups[0].Pages[0].Number != 1 || groups[1].Pages[0].Number != 2 {
		t.Fatalf("equal keys reordered: %d then %d", groups[0].Pages[0].Number, groups[1].Pages[0].Number)
	}
}
