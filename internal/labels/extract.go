package labels

import (
	"fmt"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"packhouse/internal/pdftext"
)

// ExtractFNSKUPage pulls the single page holding the given FNSKU out of a
// master barcode PDF. The master is the marketplace's bulk label download,
// one product per page with the FNSKU printed as text.
func ExtractFNSKUPage(masterPath, fnsku, outPath string) error {
	if fnsku == "" {
		return fmt.Errorf("extract label page: empty fnsku")
	}
	doc, err := pdftext.Read(masterPath, 0)
	if err != nil {
		return fmt.Errorf("read master %s: %w", masterPath, err)
	}

	page := 0
	for _, p := range doc.Pages {
		for _, l := range p.Lines {
			if l.Contains(fnsku) {
				page = p.Number
				break
			}
		}
		if page != 0 {
			break
		}
	}
	if page == 0 {
		return fmt.Errorf("fnsku %s not found in %s", fnsku, masterPath)
	}

	return api.TrimFile(masterPath, outPath, []string{strconv.Itoa(page)}, model.NewDefaultConfiguration())
}
