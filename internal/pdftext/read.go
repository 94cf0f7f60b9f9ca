package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	pdf "github.com/ledongthuc/pdf"
)

var (
	ErrTooLarge = errors.New("pdf exceeds size limit")
	ErrNoPages  = errors.New("pdf has no pages")
)

// A4 portrait, used when a page carries no usable MediaBox.
const (
	defaultPageWidth  = 595.28
	defaultPageHeight = 841.89
)

// Read loads a PDF and reconstructs positioned text for every page. The
// size check runs before the file is parsed; maxBytes <= 0 disables it.
// Pages without extractable text come back with zero lines.
func Read(path string, maxBytes int64) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return nil, fmt.Errorf("%s: %w (%d bytes)", path, ErrTooLarge, info.Size())
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := ReadBytes(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.Path = path
	return doc, nil
}

// ReadBytes parses an in-memory PDF, for callers that already hold the raw
// attachment.
func ReadBytes(content []byte) (*Document, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, err
	}
	if r.NumPage() == 0 {
		return nil, ErrNoPages
	}

	doc := &Document{Pages: make([]Page, 0, r.NumPage())}
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			doc.Pages = append(doc.Pages, Page{Number: i, Width: defaultPageWidth, Height: defaultPageHeight})
			continue
		}

		width, height := pageSize(p)
		frags := pageFragments(p)
		doc.Pages = append(doc.Pages, NewPage(i, width, height, frags))
	}
	return doc, nil
}

func pageFragments(p pdf.Page) (frags []Fragment) {
	// Content panics on some malformed streams; a page we cannot read is a
	// page with no lines.
	defer func() { _ = recover() }()

	content := p.Content()
	frags = make([]Fragment, 0, len(content.Text))
	for _, t := range content.Text {
		if t.S == "" {
			continue
		}
		frags = append(frags, Fragment{
			Text: t.S,
			X:    t.X,
			Y:    t.Y,
			W:    t.W,
			Font: t.Font,
			Size: t.FontSize,
		})
	}
	return frags
}

// pageSize resolves the MediaBox, walking the Parent chain for inherited
// boxes.
func pageSize(p pdf.Page) (float64, float64) {
	v := p.V
	for i := 0; i < 8 && !v.IsNull(); i++ {
		box := v.Key("MediaBox")
		if !box.IsNull() && box.Len() == 4 {
			llx := box.Index(0).Float64()
			lly := box.Index(1).Float64()
			urx := box.Index(2).Float64()
			ury := box.Index(3).Float64()
			if w, h := urx-llx, ury-lly; w > 0 && h > 0 {
				return w, h
			}
			break
		}
		v = v.Key("Parent")
	}
	return defaultPageWidth, defaultPageHeight
}
