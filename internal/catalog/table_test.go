package catalog

import (
	"errors"
	"testing"
)

func TestResolveColumnsFlexibleHeaders(t *testing.T) {
	headers := []string{
		"Item", "weight ", "Packet Size", "Packet used", "ASIN ",
		"FK SKU ID", "M code", "MRP", "FNSKU", "FSSAI", "SplitInto", "Product Label",
	}
	c, err := resolveColumns(headers)
	if err != nil {
		t.Fatalf("resolveColumns: %v", err)
	}
	if c.item != 0 || c.weight != 1 || c.packetSize != 2 || c.packetUsed != 3 {
		t.Fatalf("core columns misresolved: %+v", c)
	}
	if c.asin != 4 || c.fkSKU != 5 || c.mRef != 6 || c.mrp != 7 {
		t.Fatalf("identifier columns misresolved: %+v", c)
	}
	if c.fnsku != 8 || c.fssai != 9 || c.splitInto != 10 || c.productLabel != 11 {
		t.Fatalf("tail columns misresolved: %+v", c)
	}
}

func TestResolveColumnsBareM(t *testing.T) {
	c, err := resolveColumns([]string{"Item", "Weight", "M"})
	if err != nil {
		t.Fatal(err)
	}
	if c.mRef != 2 {
		t.Fatalf("mRef = %d", c.mRef)
	}
}

func TestResolveColumnsMissingRequired(t *testing.T) {
	_, err := resolveColumns([]string{"ASIN", "Weight"})
	if !errors.Is(err, ErrColumnMissing) {
		t.Fatalf("err = %v, want ErrColumnMissing", err)
	}
	_, err = resolveColumns([]string{"Item", "ASIN"})
	if !errors.Is(err, ErrColumnMissing) {
		t.Fatalf("err = %v, want ErrColumnMissing", err)
	}
}

func TestProjectRows(t *testing.T) {
	table := Table{
		Headers: []string{"Item", "Weight", "ASIN", "FNSKU", "SplitInto"},
		Rows: [][]string{
			{"Chana Sattu", "500g", "B0ABCD1234", "X001ABC123", ""},
			{"nan", "nan", "nan", "nan", "nan"},
			{"Makhana", "250g"},
			{"Combo Pack", "1.5kg", "B0COMB0123", "X002DEF456", "1kg + 500g"},
		},
	}

	rows, err := ProjectRows(table)
	if err != nil {
		t.Fatalf("ProjectRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3 (blank row dropped)", len(rows))
	}

	if rows[0].Item != "Chana Sattu" || rows[0].ASIN != "B0ABCD1234" || rows[0].FNSKU != "X001ABC123" {
		t.Fatalf("row 0 = %+v", rows[0])
	}
	// Short row: missing cells read as empty, never panic.
	if rows[1].Item != "Makhana" || rows[1].ASIN != "" {
		t.Fatalf("row 1 = %+v", rows[1])
	}
	if rows[2].SplitInto != "1kg + 500g" {
		t.Fatalf("row 2 = %+v", rows[2])
	}
	if rows[0].Index == rows[2].Index {
		t.Fatal("indices must be distinct")
	}
}
