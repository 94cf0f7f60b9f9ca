package assemble

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"packhouse/internal/config"
)

// writeOverlay renders the highlight rectangles as a standalone one-page
// PDF matching the target page size. Fragment coordinates are bottom-left
// origin while gofpdf draws from the top, so Y flips here.
func writeOverlay(path string, width, height float64, rects []Rect, hl config.Highlight) error {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: width, Ht: height},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	pdf.SetAlpha(hl.Opacity, "Normal")
	pdf.SetFillColor(hl.R, hl.G, hl.B)
	for _, r := range rects {
		pdf.Rect(r.X, height-(r.Y+r.H), r.W, r.H, "F")
	}
	if pdf.Err() {
		return fmt.Errorf("render overlay: %w", pdf.Error())
	}
	return pdf.OutputFileAndClose(path)
}

// stampHighlights burns the per-page overlays into the assembled document
// in a single pdfcpu pass. Page numbers refer to the final ordering.
func stampHighlights(inPath, outPath, tmpDir string, prog Program, hl config.Highlight) error {
	wmMap := make(map[int]*model.Watermark, len(prog.Highlights))
	for page, rects := range prog.Highlights {
		dims := prog.PageDims[page]
		ovPath := filepath.Join(tmpDir, fmt.Sprintf("overlay-%04d.pdf", page))
		if err := writeOverlay(ovPath, dims[0], dims[1], rects, hl); err != nil {
			return fmt.Errorf("overlay for page %d: %w", page, err)
		}
		wm, err := api.PDFWatermark(ovPath, "pos:c, scale:1 abs, rot:0", true, false, types.POINTS)
		if err != nil {
			return fmt.Errorf("watermark for page %d: %w", page, err)
		}
		wmMap[page] = wm
	}
	if len(wmMap) == 0 {
		return copyFile(inPath, outPath)
	}
	return api.AddWatermarksMapFile(inPath, outPath, wmMap, nil)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
