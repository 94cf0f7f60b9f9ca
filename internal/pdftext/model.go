package pdftext

import (
	"math"
	"sort"
	"strings"
)

// Fragments closer than this on the Y axis belong to the same visual line.
const yTolerance = 0.5

// Fragments further apart than this on the X axis get a joining space.
const xGapForSpace = 0.1

// Fragment is one positioned text run in PDF user space (origin bottom
// left, points).
type Fragment struct {
	Text string
	X    float64
	Y    float64
	W    float64
	Font string
	Size float64
}

// Line is a reading-order row of fragments sharing a baseline.
type Line struct {
	Y         float64
	Text      string
	Fragments []Fragment
}

func (l Line) Contains(sub string) bool {
	return strings.Contains(l.Text, sub)
}

func (l Line) ContainsFold(sub string) bool {
	return strings.Contains(strings.ToLower(l.Text), strings.ToLower(sub))
}

// Page holds the reconstructed lines of one source page, top to bottom.
type Page struct {
	Number int
	Width  float64
	Height float64
	Lines  []Line
}

func (p Page) LineTexts() []string {
	out := make([]string, len(p.Lines))
	for i, l := range p.Lines {
		out[i] = l.Text
	}
	return out
}

type Document struct {
	Path  string
	Pages []Page
}

// NewPage reconstructs reading order from raw fragments: rows are grouped
// within yTolerance, ordered top to bottom, fragments within a row left to
// right.
func NewPage(number int, width, height float64, frags []Fragment) Page {
	sorted := make([]Fragment, len(frags))
	copy(sorted, frags)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var lines []Line
	for _, f := range sorted {
		if n := len(lines); n > 0 && math.Abs(lines[n-1].Y-f.Y) <= yTolerance {
			lines[n-1].Fragments = append(lines[n-1].Fragments, f)
			continue
		}
		lines = append(lines, Line{Y: f.Y, Fragments: []Fragment{f}})
	}

	for i := range lines {
		sort.SliceStable(lines[i].Fragments, func(a, b int) bool {
			return lines[i].Fragments[a].X < lines[i].Fragments[b].X
		})
		lines[i].Text = joinFragments(lines[i].Fragments)
	}

	return Page{Number: number, Width: width, Height: height, Lines: lines}
}

func joinFragments(frags []Fragment) string {
	var b strings.Builder
	for i, f := range frags {
		if i > 0 {
			prev := frags[i-1]
			if f.X-(prev.X+prev.W) > xGapForSpace {
				b.WriteByte(' ')
			}
		}
		b.WriteString(f.Text)
	}
	return strings.TrimSpace(b.String())
}
