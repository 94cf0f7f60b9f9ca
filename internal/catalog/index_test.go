package catalog

import (
	"testing"

	"packhouse/internal"
)

func testRows() []internal.CatalogRow {
	return []internal.CatalogRow{
		{Index: 0, Item: "Chana Sattu", Weight: "500g", ASIN: "B0ABCD1234", FkSKU: "1 Chana Sattu 500g", FNSKU: "X001ABC123"},
		{Index: 1, Item: "Chana Sattu", Weight: "1kg", ASIN: "B0ABCD5678", FNSKU: "X001ABC456"},
		{Index: 2, Item: "Raw Makhana", Weight: "250g", MRef: "MKH-250", FNSKU: "X002DEF789"},
	}
}

func TestBuildIndexLookups(t *testing.T) {
	idx := BuildIndex(testRows())

	if got := idx.ByASIN["B0ABCD1234"]; len(got) != 1 || got[0].Index != 0 {
		t.Fatalf("ByASIN = %+v", got)
	}
	if got := idx.ByFkSKU["1 chana sattu 500g"]; len(got) != 1 || got[0].Index != 0 {
		t.Fatalf("ByFkSKU = %+v", got)
	}
	if got := idx.ByMRef["mkh 250"]; len(got) != 1 || got[0].Index != 2 {
		t.Fatalf("ByMRef = %+v", got)
	}
	if got := idx.ByName["chana sattu"]; len(got) != 2 {
		t.Fatalf("ByName = %+v", got)
	}
	if got := idx.ByNameWeight[NameWeightKey("Chana Sattu", "0.5")]; len(got) != 1 || got[0].Index != 0 {
		t.Fatalf("ByNameWeight cross-unit = %+v", got)
	}
	if _, ok := idx.TokenToRows["makhana"]; !ok {
		t.Fatal("token index missing makhana")
	}
	if _, ok := idx.TokenToRows["raw"]; !ok {
		t.Fatal("token index missing raw")
	}
	if _, ok := idx.RowsByIndex[1]; !ok {
		t.Fatal("RowsByIndex missing row 1")
	}
}

func TestNameWeightKeyNormalizesBothParts(t *testing.T) {
	if NameWeightKey("Chana  Sattu", "1000g") != "chana sattu|1" {
		t.Fatalf("got %q", NameWeightKey("Chana  Sattu", "1000g"))
	}
	if NameWeightKey("Makhana", "500g") != NameWeightKey("Makhana", "0.5") {
		t.Fatal("gram and shorthand forms should share a key")
	}
}
