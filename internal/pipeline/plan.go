package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"packhouse/internal"
	"packhouse/internal/catalog"
	"packhouse/internal/util"
)

// Expand turns aggregated order lines into the physical packing plan. Rows
// with a Split Into declaration fan out into one plan line per declared
// sub-weight; the order quantity is replicated onto every sub-packet, since
// each ordered unit ships every declared size. After expansion, lines with
// identical display columns merge by summing quantity.
func Expand(lines []internal.OrderLine, idx *catalog.Index) []internal.PlanLine {
	var expanded []internal.PlanLine
	for _, line := range lines {
		expanded = append(expanded, expandLine(line, idx)...)
	}
	return mergePlan(expanded)
}

// MissingProducts lists the non-ready plan lines for operator review.
func MissingProducts(plan []internal.PlanLine) []internal.PlanLine {
	var out []internal.PlanLine
	for _, p := range plan {
		if p.Status != internal.PlanReady {
			out = append(out, p)
		}
	}
	return out
}

func expandLine(line internal.OrderLine, idx *catalog.Index) []internal.PlanLine {
	if line.Row == nil {
		return []internal.PlanLine{placeholderLine(line)}
	}

	row := *line.Row
	split := strings.TrimSpace(row.SplitInto)
	if split == "" || util.IsEmptyCell(split) {
		return []internal.PlanLine{planFromRow(row, line.Qty, "")}
	}

	parent := strings.TrimSpace(row.Item + " " + row.Weight)
	var out []internal.PlanLine
	for _, size := range strings.Split(split, ",") {
		size = strings.TrimSpace(size)
		if size == "" {
			continue
		}
		if sub, ok := resolveSplitSize(row.Item, size, idx); ok {
			out = append(out, planFromRow(sub, line.Qty, parent))
			continue
		}
		weight := util.NormalizeWeight(size)
		if weight == "" {
			weight = size
		}
		out = append(out, internal.PlanLine{
			Item:      row.Item,
			Weight:    weight,
			SplitFrom: parent,
			Qty:       line.Qty,
			Status:    internal.PlanMissingMaster,
			Issue:     internal.IssueSplitMissing,
		})
	}
	return out
}

// resolveSplitSize finds the catalog row for one declared sub-weight: exact
// name+weight first, then any row whose name contains the parent name with a
// tolerant weight match. Declared sizes come in every unit spelling the
// sheet's authors use ("350g", "0.35", "350").
func resolveSplitSize(name, size string, idx *catalog.Index) (internal.CatalogRow, bool) {
	if rows := idx.ByNameWeight[catalog.NameWeightKey(name, size)]; len(rows) > 0 {
		return rows[0], true
	}

	nameKey := util.NameKey(name)
	if nameKey == "" {
		return internal.CatalogRow{}, false
	}
	var found []internal.CatalogRow
	for key, rows := range idx.ByName {
		if !strings.Contains(key, nameKey) {
			continue
		}
		for _, r := range rows {
			if util.WeightsMatch(r.Weight, size) {
				found = append(found, r)
			}
		}
	}
	if len(found) == 0 {
		return internal.CatalogRow{}, false
	}
	sort.Slice(found, func(i, j int) bool { return found[i].Index < found[j].Index })
	return found[0], true
}

func placeholderLine(line internal.OrderLine) internal.PlanLine {
	identity := strings.TrimSpace(line.Name + " " + line.Weight)
	if identity == "" {
		identity = line.RawIdentifier
	}
	p := internal.PlanLine{
		Item:   fmt.Sprintf("UNKNOWN PRODUCT (%s)", identity),
		Weight: line.Weight,
		Qty:    line.Qty,
		Status: internal.PlanMissingMaster,
		Issue:  internal.IssueNotFound,
	}
	if line.Marketplace == internal.MarketplaceAmazon {
		p.ASIN = line.RawIdentifier
	}
	return p
}

func planFromRow(row internal.CatalogRow, qty int, splitFrom string) internal.PlanLine {
	line := internal.PlanLine{
		Item:         row.Item,
		Weight:       row.Weight,
		PacketSize:   row.PacketSize,
		PacketUsed:   row.PacketUsed,
		ASIN:         row.ASIN,
		MRP:          row.MRP,
		FNSKU:        row.FNSKU,
		FSSAI:        row.FSSAI,
		ProductLabel: row.ProductLabel,
		SplitFrom:    splitFrom,
		Qty:          qty,
		Status:       internal.PlanReady,
	}
	if util.IsEmptyCell(row.FNSKU) {
		line.Status = internal.PlanMissingFNSKU
		line.Issue = internal.IssueMissingFNSKU
	}
	return line
}

type mergeKey struct {
	item         string
	weight       string
	packetSize   string
	packetUsed   string
	asin         string
	mrp          string
	fnsku        string
	fssai        string
	productLabel string
	status       internal.PlanStatus
	issue        string
}

// mergePlan collapses duplicate plan lines by summing quantity. The merge is
// deliberate aggregation: the same physical packet reached through different
// order lines is packed once, in total quantity.
func mergePlan(lines []internal.PlanLine) []internal.PlanLine {
	byKey := map[mergeKey]*internal.PlanLine{}
	var order []mergeKey

	for _, l := range lines {
		key := mergeKey{l.Item, l.Weight, l.PacketSize, l.PacketUsed, l.ASIN, l.MRP, l.FNSKU, l.FSSAI, l.ProductLabel, l.Status, l.Issue}
		if existing, ok := byKey[key]; ok {
			existing.Qty += l.Qty
			continue
		}
		merged := l
		byKey[key] = &merged
		order = append(order, key)
	}

	out := make([]internal.PlanLine, 0, len(order))
	for _, k := range order {
		out = append(out, *byKey[k])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if statusRank(out[i].Status) != statusRank(out[j].Status) {
			return statusRank(out[i].Status) < statusRank(out[j].Status)
		}
		if out[i].Item != out[j].Item {
			return out[i].Item < out[j].Item
		}
		return out[i].Weight < out[j].Weight
	})
	return out
}

func statusRank(s internal.PlanStatus) int {
	switch s {
	case internal.PlanReady:
		return 0
	case internal.PlanMissingFNSKU:
		return 1
	default:
		return 2
	}
}
