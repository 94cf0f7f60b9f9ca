// Package assemble reworks a marketplace PDF for the packing line: pages
// are regrouped by order and sorted by product, shipping labels are
// cropped to sticker size, and multi-item invoices get their identifiers
// and quantities highlighted.
//
// Work happens in two phases. Phase one computes and executes the page
// program (reorder plus crop), phase two stamps highlights addressed by
// the page numbers the document has after phase one.
package assemble

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"packhouse/internal/config"
	"packhouse/internal/invoice"
	"packhouse/internal/pdftext"
)

// Assembler rewrites one document at a time according to a profile.
type Assembler struct {
	profile config.Profile
}

func New(profile config.Profile) *Assembler {
	return &Assembler{profile: profile}
}

// Result reports what a rework did to one document. Warnings carry
// degradations that did not abort the rework, such as a crop left undone.
type Result struct {
	Pages       int
	Groups      int
	Cropped     int
	Highlighted int
	Warnings    []string
}

// Assemble writes the reworked form of srcPath to outPath. hitsByPage must
// hold one slice per document page, in page order. Crop failures degrade
// to the uncropped page; only reorder and highlight failures abort.
func (a *Assembler) Assemble(srcPath string, doc *pdftext.Document, hitsByPage [][]invoice.Hit, resolve Resolver, outPath string) (Result, error) {
	if len(hitsByPage) != len(doc.Pages) {
		return Result{}, fmt.Errorf("assemble %s: %d pages but %d hit sets", srcPath, len(doc.Pages), len(hitsByPage))
	}

	infos := make([]PageInfo, len(doc.Pages))
	for i, page := range doc.Pages {
		infos[i] = ClassifyPage(page, hitsByPage[i])
	}
	prog := BuildProgram(infos, resolve, a.profile.Crop)

	tmpDir, err := os.MkdirTemp("", "packhouse-assemble-*")
	if err != nil {
		return Result{}, fmt.Errorf("assemble %s: %w", srcPath, err)
	}
	defer os.RemoveAll(tmpDir)

	conf := model.NewDefaultConfiguration()

	ordered := filepath.Join(tmpDir, "ordered.pdf")
	tokens := make([]string, len(prog.Order))
	for i, n := range prog.Order {
		tokens[i] = strconv.Itoa(n)
	}
	if err := api.CollectFile(srcPath, ordered, tokens, conf); err != nil {
		return Result{}, fmt.Errorf("reorder %s: %w", srcPath, err)
	}

	current := ordered
	cropped := 0
	var warnings []string
	for i, spec := range prog.Crops {
		next := filepath.Join(tmpDir, fmt.Sprintf("crop-%d.pdf", i))
		if err := cropPages(current, next, spec, conf); err != nil {
			warnings = append(warnings, fmt.Sprintf("crop pages %v left full size: %v", spec.Pages, err))
			continue
		}
		current = next
		cropped += len(spec.Pages)
	}

	if err := stampHighlights(current, outPath, tmpDir, prog, a.profile.Highlight); err != nil {
		return Result{}, fmt.Errorf("highlight %s: %w", srcPath, err)
	}

	return Result{
		Pages:       len(doc.Pages),
		Groups:      prog.Groups,
		Cropped:     cropped,
		Highlighted: len(prog.Highlights),
		Warnings:    warnings,
	}, nil
}

func cropPages(in, out string, spec CropSpec, conf *model.Configuration) error {
	boxExpr := fmt.Sprintf("[%.2f %.2f %.2f %.2f]", spec.Box[0], spec.Box[1], spec.Box[2], spec.Box[3])
	box, err := model.ParseBox(boxExpr, types.POINTS)
	if err != nil {
		return fmt.Errorf("parse box %s: %w", boxExpr, err)
	}
	pages := make([]string, len(spec.Pages))
	for i, n := range spec.Pages {
		pages[i] = strconv.Itoa(n)
	}
	return api.CropFile(in, out, pages, box, conf)
}
