package catalog

import (
	"strconv"
	"strings"

	"packhouse/internal"
	"packhouse/internal/util"
)

// Index holds every lookup the match cascade needs, prebuilt once per run.
// Map values are slices because master sheets do carry duplicate keys; the
// cascade breaks ties by row order.
type Index struct {
	ByASIN       map[string][]internal.CatalogRow
	ByFkSKU      map[string][]internal.CatalogRow
	ByMRef       map[string][]internal.CatalogRow
	ByNameWeight map[string][]internal.CatalogRow
	ByName       map[string][]internal.CatalogRow
	TokenToRows  map[string]map[int]struct{}
	RowsByIndex  map[int]internal.CatalogRow
}

// NameWeightKey builds the combined lookup key from a raw name and raw
// weight. Weight is keyed in kilograms so "500g", "0.5kg" and seller
// shorthand like "0.5" all land on the same entry.
func NameWeightKey(name, weight string) string {
	kg, ok := util.Kilograms(weight)
	if !ok {
		return util.NameKey(name) + "|"
	}
	return util.NameKey(name) + "|" + strconv.FormatFloat(kg, 'f', -1, 64)
}

func BuildIndex(rows []internal.CatalogRow) *Index {
	idx := &Index{
		ByASIN:       map[string][]internal.CatalogRow{},
		ByFkSKU:      map[string][]internal.CatalogRow{},
		ByMRef:       map[string][]internal.CatalogRow{},
		ByNameWeight: map[string][]internal.CatalogRow{},
		ByName:       map[string][]internal.CatalogRow{},
		TokenToRows:  map[string]map[int]struct{}{},
		RowsByIndex:  map[int]internal.CatalogRow{},
	}

	for _, r := range rows {
		idx.RowsByIndex[r.Index] = r

		if r.ASIN != "" {
			key := strings.ToUpper(strings.TrimSpace(r.ASIN))
			idx.ByASIN[key] = append(idx.ByASIN[key], r)
		}
		if r.FkSKU != "" {
			key := util.NameKey(r.FkSKU)
			idx.ByFkSKU[key] = append(idx.ByFkSKU[key], r)
		}
		if r.MRef != "" {
			key := util.NameKey(r.MRef)
			idx.ByMRef[key] = append(idx.ByMRef[key], r)
		}

		nameKey := util.NameKey(r.Item)
		if nameKey == "" {
			continue
		}
		idx.ByName[nameKey] = append(idx.ByName[nameKey], r)
		if _, ok := util.Kilograms(r.Weight); ok {
			key := NameWeightKey(r.Item, r.Weight)
			idx.ByNameWeight[key] = append(idx.ByNameWeight[key], r)
		}
		for _, tok := range util.Keywords(r.Item) {
			if idx.TokenToRows[tok] == nil {
				idx.TokenToRows[tok] = map[int]struct{}{}
			}
			idx.TokenToRows[tok][r.Index] = struct{}{}
		}
	}

	return idx
}
