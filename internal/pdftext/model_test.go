package pdftext

import (
	"reflect"
	"testing"
)

func TestNewPageReconstructsReadingOrder(t *testing.T) {
	frags := []Fragment{
		{Text: "Qty", X: 300, Y: 700, W: 20},
		{Text: "Description", X: 50, Y: 700, W: 70},
		{Text: "Sattu", X: 50, Y: 680, W: 30},
		{Text: "1kg", X: 85, Y: 680.3, W: 20},
		{Text: "2", X: 300, Y: 680, W: 6},
		{Text: "TOTAL", X: 50, Y: 660, W: 40},
	}

	page := NewPage(1, 595, 842, frags)

	got := page.LineTexts()
	want := []string{"Description Qty", "Sattu 1kg 2", "TOTAL"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("lines = %q, want %q", got, want)
	}
}

func TestNewPageJoinsTouchingFragmentsWithoutSpace(t *testing.T) {
	frags := []Fragment{
		{Text: "B0", X: 50, Y: 500, W: 12},
		{Text: "ABCD1234", X: 62.05, Y: 500, W: 48},
	}

	page := NewPage(1, 595, 842, frags)
	if len(page.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(page.Lines))
	}
	if page.Lines[0].Text != "B0ABCD1234" {
		t.Fatalf("text = %q", page.Lines[0].Text)
	}
}

func TestNewPageKeepsFragmentGeometry(t *testing.T) {
	frags := []Fragment{
		{Text: "B0ABCD1234", X: 120, Y: 640, W: 60, Size: 9},
	}
	page := NewPage(3, 595, 842, frags)
	f := page.Lines[0].Fragments[0]
	if f.X != 120 || f.Y != 640 || f.W != 60 || f.Size != 9 {
		t.Fatalf("fragment geometry mutated: %+v", f)
	}
	if page.Number != 3 {
		t.Fatalf("page number = %d", page.Number)
	}
}

func TestNewPageEmptyInput(t *testing.T) {
	page := NewPage(1, 595, 842, nil)
	if len(page.Lines) != 0 {
		t.Fatalf("expected no lines, got %d", len(page.Lines))
	}
}

func TestLineContainsFold(t *testing.T) {
	l := Line{Text: "Description Qty"}
	if !l.ContainsFold("qty") || !l.Contains("Qty") {
		t.Fatal("contains helpers broken")
	}
	if l.Contains("qty") {
		t.Fatal("Contains should be case sensitive")
	}
}
