package assemble

import (
	"fmt"
	"sort"

	"packhouse/internal/config"
	"packhouse/internal/pdftext"
)

const cmToPoints = 28.35

// Highlight rectangles get this much slack on every side.
const rectPad = 1.5

// Rect is an axis-aligned rectangle in PDF user space (origin bottom left,
// points).
type Rect struct {
	X, Y, W, H float64
}

// CropSpec crops a set of final pages to one absolute box. Pages are
// grouped by box so equal-sized label pages crop in a single pass.
type CropSpec struct {
	Pages []int
	Box   [4]float64 // llx, lly, urx, ury
}

// Program is the complete phase-1 plan for one document: the final page
// order, the label crops, and the highlight rectangles keyed by *final*
// page number. Nothing here touches the file; the writer executes it.
type Program struct {
	Order      []int
	FinalOf    map[int]int
	Crops      []CropSpec
	Highlights map[int][]Rect
	PageDims   map[int][2]float64
	Groups     int
}

// BuildProgram classifies, groups and sorts the pages, then lays out crops
// and highlights against the final numbering.
func BuildProgram(pages []PageInfo, resolve Resolver, crop config.CropMargins) Program {
	groups := BuildGroups(pages, resolve)
	SortGroups(groups)

	prog := Program{
		FinalOf:    make(map[int]int, len(pages)),
		Highlights: map[int][]Rect{},
		PageDims:   map[int][2]float64{},
		Groups:     len(groups),
	}

	for _, g := range groups {
		for _, p := range g.Pages {
			prog.Order = append(prog.Order, p.Number)
			prog.FinalOf[p.Number] = len(prog.Order)
		}
	}

	hasLabels := false
	for _, p := range pages {
		if p.Kind == KindLabel {
			hasLabels = true
			break
		}
	}

	cropsByBox := map[string]*CropSpec{}
	for _, p := range pages {
		final := prog.FinalOf[p.Number]

		// Label pages crop to the shipping-label region. Textless pages in a
		// document that carries labels are raster scans of the same layout and
		// get the identical fixed box; anything else passes through full page.
		if p.Kind == KindLabel || (hasLabels && !p.HasText) {
			if box, ok := labelBox(p.Width, p.Height, crop); ok {
				key := fmt.Sprintf("%.2f %.2f %.2f %.2f", box[0], box[1], box[2], box[3])
				spec, exists := cropsByBox[key]
				if !exists {
					spec = &CropSpec{Box: box}
					cropsByBox[key] = spec
				}
				spec.Pages = append(spec.Pages, final)
			}
		}

		if p.Kind == KindInvoice && needsHighlight(p) {
			rects := highlightRects(p)
			if len(rects) > 0 {
				prog.Highlights[final] = rects
				prog.PageDims[final] = [2]float64{p.Width, p.Height}
			}
		}
	}

	keys := make([]string, 0, len(cropsByBox))
	for k := range cropsByBox {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		spec := cropsByBox[k]
		sort.Ints(spec.Pages)
		prog.Crops = append(prog.Crops, *spec)
	}

	return prog
}

// labelBox converts the profile margins to an absolute rectangle on a page
// of the given size. A degenerate box means the margins do not fit the
// page; the caller falls back to the full page.
func labelBox(width, height float64, m config.CropMargins) ([4]float64, bool) {
	llx := m.LeftCm * cmToPoints
	lly := m.BottomCm * cmToPoints
	urx := width - m.RightCm*cmToPoints
	ury := height - m.TopCm*cmToPoints
	if urx-llx < 1 || ury-lly < 1 {
		return [4]float64{}, false
	}
	return [4]float64{llx, lly, urx, ury}, true
}

// highlightRects maps the identifier and quantity fragments of every table
// hit to padded rectangles.
func highlightRects(p PageInfo) []Rect {
	var rects []Rect
	for _, h := range p.TableHits {
		frags := make([]pdftext.Fragment, 0, len(h.IDFrags)+len(h.QtyFrags))
		frags = append(frags, h.IDFrags...)
		frags = append(frags, h.QtyFrags...)
		for _, f := range frags {
			height := f.Size
			if height <= 0 {
				height = 8
			}
			rects = append(rects, Rect{
				X: f.X - rectPad,
				Y: f.Y - rectPad,
				W: f.W + 2*rectPad,
				H: height + 2*rectPad,
			})
		}
	}
	return rects
}
