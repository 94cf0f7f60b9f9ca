package pipeline

import (
	"strconv"

	"packhouse/internal"
)

// Aggregate folds per-page extractions into order lines. Matched items group
// under their catalog row; unmatched items group under their raw identifier,
// so two unparsed SKUs never collapse into one line. Representative fields
// (identifier, name, weight, strategy) come from the first item seen for a
// key and are not re-derived.
func Aggregate(items []internal.InvoiceItem, results []internal.MatchResult) []internal.OrderLine {
	byKey := map[string]*internal.OrderLine{}
	var order []string

	for i, item := range items {
		res := results[i]

		var key string
		if res.Status == internal.Matched && res.Row != nil {
			key = strconv.Itoa(res.Row.Index)
		} else {
			key = "raw:" + item.RawIdentifier
		}

		line, ok := byKey[key]
		if !ok {
			line = &internal.OrderLine{
				Key:           key,
				Row:           res.Row,
				RawIdentifier: item.RawIdentifier,
				Name:          item.Name,
				Weight:        item.WeightRaw,
				Marketplace:   item.Marketplace,
				Strategy:      res.Strategy,
			}
			byKey[key] = line
			order = append(order, key)
		}
		line.Qty += item.Qty
		line.Pages = appendPage(line.Pages, item.Page)
	}

	out := make([]internal.OrderLine, 0, len(order))
	for _, k := range order {
		out = append(out, *byKey[k])
	}
	return out
}

func appendPage(pages []int, page int) []int {
	for _, p := range pages {
		if p == page {
			return pages
		}
	}
	return append(pages, page)
}
