package labels

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/jung-kurt/gofpdf"

	"packhouse/internal/util"
)

// ErrNoJobs means the run holds nothing printable for the requested kind.
var ErrNoJobs = errors.New("no labels to render")

// Sticker stock is 48 x 25 mm, one label per page.
const (
	labelWidth  = 48.0
	labelHeight = 25.0
)

const bestBeforeMonths = 24

func newLabelPDF() *gofpdf.Fpdf {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "mm",
		Size:    gofpdf.SizeType{Wd: labelWidth, Ht: labelHeight},
	})
	pdf.SetMargins(1, 1, 1)
	pdf.SetAutoPageBreak(false, 0)
	return pdf
}

func centered(pdf *gofpdf.Fpdf, y float64, txt string) {
	pdf.SetXY(1, y)
	pdf.CellFormat(labelWidth-2, 3.5, txt, "", 0, "C", false, 0, "")
}

// RenderFNSKULabels writes one barcode label page per packet: item name on
// top, a Code 128 of the FNSKU across the middle, the FNSKU text under the
// bars.
func RenderFNSKULabels(run Run, outPath string) error {
	if len(run.Barcode) == 0 {
		return ErrNoJobs
	}

	pdf := newLabelPDF()
	registered := map[string]bool{}

	for _, job := range run.Barcode {
		img := "fnsku-" + job.FNSKU
		if !registered[img] {
			data, err := barcodePNG(job.FNSKU)
			if err != nil {
				return fmt.Errorf("barcode %s: %w", job.FNSKU, err)
			}
			pdf.RegisterImageOptionsReader(img, gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(data))
			registered[img] = true
		}

		copies := job.Qty
		if copies < 1 {
			copies = 1
		}
		for c := 0; c < copies; c++ {
			pdf.AddPage()
			pdf.SetFont("Helvetica", "", 6)
			centered(pdf, 1.5, util.TruncateName(job.Item, 25))
			pdf.ImageOptions(img, 2, 6, labelWidth-4, 10, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
			pdf.SetFont("Helvetica", "", 7)
			centered(pdf, 17.5, job.FNSKU)
			pdf.SetFont("Helvetica", "", 6)
			centered(pdf, 21, job.Weight)
		}
	}

	return writeOut(pdf, outPath)
}

// RenderMRPLabels writes the statutory retail label: name, net weight, MRP,
// batch, best-before and the FSSAI licence line.
func RenderMRPLabels(run Run, outPath string) error {
	if len(run.MRP) == 0 {
		return ErrNoJobs
	}

	pdf := newLabelPDF()
	bestBefore := time.Now().AddDate(0, bestBeforeMonths, 0).Format("01/2006")

	for _, job := range run.MRP {
		copies := job.Qty
		if copies < 1 {
			copies = 1
		}
		batch := batchNumber()
		for c := 0; c < copies; c++ {
			pdf.AddPage()
			pdf.SetFont("Helvetica", "B", 8)
			centered(pdf, 1.5, util.TruncateName(job.Item, 25))
			pdf.SetFont("Helvetica", "", 7)
			centered(pdf, 6, "Net Wt: "+job.Weight)
			centered(pdf, 9.5, "MRP Rs. "+cleanMoney(job.MRP)+" (incl. of all taxes)")
			centered(pdf, 13, "Batch No: "+batch)
			centered(pdf, 16.5, "Best Before: "+bestBefore)
			pdf.SetFont("Helvetica", "", 6)
			centered(pdf, 20.5, "FSSAI Lic No: "+job.FSSAI)
		}
	}

	return writeOut(pdf, outPath)
}

func writeOut(pdf *gofpdf.Fpdf, outPath string) error {
	if pdf.Err() {
		return fmt.Errorf("render labels: %w", pdf.Error())
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	return pdf.OutputFileAndClose(outPath)
}

func barcodePNG(fnsku string) ([]byte, error) {
	code, err := code128.Encode(fnsku)
	if err != nil {
		return nil, err
	}
	scaled, err := barcode.Scale(code, 440, 100)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// batchNumber issues MFC plus four random digits; every job gets a fresh
// batch, copies of the same job share one.
func batchNumber() string {
	var b [2]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "MFC0000"
	}
	return fmt.Sprintf("MFC%04d", binary.BigEndian.Uint16(b[:])%10000)
}

// cleanMoney strips currency marks the core fonts cannot encode; the label
// prints "Rs." instead.
func cleanMoney(raw string) string {
	return strings.TrimSpace(strings.ReplaceAll(raw, "₹", ""))
}
