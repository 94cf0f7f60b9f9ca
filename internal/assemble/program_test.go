package assemble

import (
	"math"
	"testing"

	"packhouse/internal"
	"packhouse/internal/config"
	"packhouse/internal/pdftext"
)

func defaultCrop() config.CropMargins {
	return config.DefaultProfile().Crop
}

func a4Page(info PageInfo) PageInfo {
	info.Width = 595.28
	info.Height = 841.89
	return info
}

func TestBuildProgramOrderAndFinalNumbers(t *testing.T) {
	rows := map[string]*internal.CatalogRow{
		"B0CASHEW01": {Item: "cashews whole", Weight: "250g"},
		"B0ALMOND01": {Item: "almonds premium", Weight: "500g"},
		"B0WALNUT01": {Item: "walnuts halves", Weight: "200g"},
	}
	pages := []PageInfo{
		a4Page(invoicePage(1, "OD1", "B0WALNUT01", 1)),
		a4Page(invoicePage(2, "OD2", "B0ALMOND01", 1)),
		a4Page(invoicePage(3, "OD3", "B0CASHEW01", 1)),
	}

	prog := BuildProgram(pages, resolverFor(rows), defaultCrop())

	want := []int{2, 3, 1}
	for i := range want {
		if prog.Order[i] != want[i] {
			t.Fatalf("order = %v, want %v", prog.Order, want)
		}
	}
	if prog.FinalOf[2] != 1 || prog.FinalOf[3] != 2 || prog.FinalOf[1] != 3 {
		t.Fatalf("final numbering = %v", prog.FinalOf)
	}
	if prog.Groups != 3 {
		t.Fatalf("groups = %d, want 3", prog.Groups)
	}
}

func TestBuildProgramCropsLabelPages(t *testing.T) {
	pages := []PageInfo{
		a4Page(invoicePage(1, "OD1", "B0ALMOND01", 1)),
		a4Page(labelPage(2, "OD1")),
	}

	prog := BuildProgram(pages, resolverFor(nil), defaultCrop())

	if len(prog.Crops) != 1 {
		t.Fatalf("crops = %d, want 1", len(prog.Crops))
	}
	spec := prog.Crops[0]
	if len(spec.Pages) != 1 || spec.Pages[0] != prog.FinalOf[2] {
		t.Fatalf("cropped pages = %v, want the label's final number %d", spec.Pages, prog.FinalOf[2])
	}

	approx := func(got, want float64) bool { return math.Abs(got-want) < 0.01 }
	if !approx(spec.Box[0], 6.49*28.35) ||
		!approx(spec.Box[1], 16.14*28.35) ||
		!approx(spec.Box[2], 595.28-6.49*28.35) ||
		!approx(spec.Box[3], 841.89-0.76*28.35) {
		t.Fatalf("crop box = %v", spec.Box)
	}
}

func TestBuildProgramCropsTextlessPagesInLabelDocs(t *testing.T) {
	withLabels := []PageInfo{
		a4Page(labelPage(1, "OD1")),
		a4Page(PageInfo{Number: 2, Kind: KindOther}), // raster scan, no text
	}
	prog := BuildProgram(withLabels, resolverFor(nil), defaultCrop())
	total := 0
	for _, c := range prog.Crops {
		total += len(c.Pages)
	}
	if total != 2 {
		t.Fatalf("cropped pages = %d, want both", total)
	}

	noLabels := []PageInfo{
		a4Page(invoicePage(1, "OD1", "B0ALMOND01", 1)),
		a4Page(PageInfo{Number: 2, Kind: KindOther}),
	}
	prog = BuildProgram(noLabels, resolverFor(nil), defaultCrop())
	if len(prog.Crops) != 0 {
		t.Fatalf("textless page cropped in a label-free document: %+v", prog.Crops)
	}
}

func TestBuildProgramSkipsDegenerateCrop(t *testing.T) {
	small := labelPage(1, "OD1")
	small.Width = 100
	small.Height = 100

	prog := BuildProgram([]PageInfo{small}, resolverFor(nil), defaultCrop())
	if len(prog.Crops) != 0 {
		t.Fatalf("margins larger than the page still produced a crop: %+v", prog.Crops)
	}
}

func TestBuildProgramHighlightsUseFinalNumbers(t *testing.T) {
	rows := map[string]*internal.CatalogRow{
		"B0CASHEW01": {Item: "cashews whole", Weight: "250g"},
		"B0ALMOND01": {Item: "almonds premium", Weight: "500g"},
	}
	multi := a4Page(invoicePage(1, "OD1", "B0CASHEW01", 2))
	multi.TableHits[0].IDFrags = []pdftext.Fragment{{X: 100, Y: 700, W: 60, Size: 10}}
	multi.TableHits[0].QtyFrags = []pdftext.Fragment{{X: 400, Y: 700, W: 8, Size: 10}}
	single := a4Page(invoicePage(2, "OD2", "B0ALMOND01", 1))

	prog := BuildProgram([]PageInfo{multi, single}, resolverFor(rows), defaultCrop())

	// Cashews sorts after almonds, so source page 1 lands at final page 2.
	finalMulti := prog.FinalOf[1]
	if finalMulti != 2 {
		t.Fatalf("final page of the multi-qty invoice = %d, want 2", finalMulti)
	}
	rects, ok := prog.Highlights[finalMulti]
	if !ok {
		t.Fatalf("no highlights for final page %d: %v", finalMulti, prog.Highlights)
	}
	if len(rects) != 2 {
		t.Fatalf("rects = %d, want one per fragment", len(rects))
	}
	if len(prog.Highlights) != 1 {
		t.Fatalf("single-unit page highlighted too: %v", prog.Highlights)
	}

	r := rects[0]
	if r.X != 100-rectPad || r.Y != 700-rectPad || r.W != 60+2*rectPad || r.H != 10+2*rectPad {
		t.Fatalf("rect = %+v, want fragment box padded by %v", r, rectPad)
	}

	if dims := prog.PageDims[finalMulti]; dims[0] != 595.28 || dims[1] != 841.89 {
		t.Fatalf("page dims = %v", dims)
	}
}
