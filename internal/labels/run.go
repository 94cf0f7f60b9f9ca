// Package labels plans and renders the stickers that go on packed
// product: Code 128 FNSKU barcodes for sticker packets and statutory MRP
// labels for everything else.
package labels

import (
	"strings"

	"packhouse/internal"
	"packhouse/internal/util"
)

// Job is one product's print instruction. Qty is the number of label
// copies, one per physical packet.
type Job struct {
	Item   string
	Weight string
	MRP    string
	FNSKU  string
	FSSAI  string
	Qty    int
}

// Skipped records a plan line the run cannot print and why.
type Skipped struct {
	Item   string
	Weight string
	Reason string
}

// Run partitions a packing plan into printable jobs.
type Run struct {
	Barcode []Job
	MRP     []Job
	Skipped []Skipped
}

// BuildLabelRun plans label printing for a packing plan. Ready lines split
// by packet type: sticker packets get FNSKU barcodes, the rest get MRP
// labels. Lines that are not ready land in Skipped. A row opts out of
// printing when its product-label cell is filled with anything but yes.
func BuildLabelRun(plan []internal.PlanLine) Run {
	var run Run
	for _, p := range plan {
		if optedOut(p.ProductLabel) {
			continue
		}
		if p.Status != internal.PlanReady {
			reason := p.Issue
			if reason == "" {
				reason = string(p.Status)
			}
			run.Skipped = append(run.Skipped, Skipped{Item: p.Item, Weight: p.Weight, Reason: reason})
			continue
		}

		job := Job{
			Item:   p.Item,
			Weight: p.Weight,
			MRP:    p.MRP,
			FNSKU:  p.FNSKU,
			FSSAI:  p.FSSAI,
			Qty:    p.Qty,
		}
		if strings.Contains(strings.ToLower(p.PacketUsed), "sticker") {
			run.Barcode = append(run.Barcode, job)
		} else {
			run.MRP = append(run.MRP, job)
		}
	}
	return run
}

// optedOut reads the product-label gate cell. An absent or empty cell means
// print; any filled value other than yes means skip.
func optedOut(cell string) bool {
	if util.IsEmptyCell(cell) {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(cell)) {
	case "yes", "y":
		return false
	}
	return true
}
