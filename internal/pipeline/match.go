package pipeline

import (
	"sort"
	"strings"

	"packhouse/internal"
	"packhouse/internal/catalog"
	"packhouse/internal/util"
)

// Strategy names recorded on MatchResult. The cascade tries identifier
// strategies first, then name+weight strategies; order is part of the
// contract because ambiguous real-world rows resolve differently under a
// different order.
const (
	StrategyASINExact       = "asin-exact"
	StrategySKUExact        = "sku-exact"
	StrategySKUSubstring    = "sku-substring"
	StrategySKUReverse      = "sku-reverse"
	StrategyMRefExact       = "mref-exact"
	StrategyNameWeightExact = "name-weight-exact"
	StrategyNameContains    = "name-contains"
	StrategyWordOverlap     = "word-overlap"
	StrategyNameOnly        = "name-only"
	StrategyKeyword         = "keyword"
)

type matchStrategy struct {
	name string
	fn   func(internal.InvoiceItem) []internal.CatalogRow
}

// Matcher resolves extracted items against the prebuilt catalog index.
// Every lookup is deterministic: candidate sets are sorted by catalog row
// order before the winner is picked, so identical inputs always resolve to
// the same row regardless of map iteration order.
type Matcher struct {
	index      *catalog.Index
	strategies []matchStrategy
}

func NewMatcher(index *catalog.Index) *Matcher {
	m := &Matcher{index: index}
	m.strategies = []matchStrategy{
		{StrategyASINExact, m.asinExact},
		{StrategySKUExact, m.skuExact},
		{StrategySKUSubstring, m.skuSubstring},
		{StrategySKUReverse, m.skuReverse},
		{StrategyMRefExact, m.mrefExact},
		{StrategyNameWeightExact, m.nameWeightExact},
		{StrategyNameContains, m.nameContains},
		{StrategyWordOverlap, m.wordOverlap},
		{StrategyNameOnly, m.nameOnly},
		{StrategyKeyword, m.keyword},
	}
	return m
}

func (m *Matcher) Match(item internal.InvoiceItem) internal.MatchResult {
	for _, s := range m.strategies {
		if rows := s.fn(item); len(rows) > 0 {
			return resultFrom(s.name, rows)
		}
	}
	return internal.MatchResult{Status: internal.Unmatched}
}

func (m *Matcher) asinExact(item internal.InvoiceItem) []internal.CatalogRow {
	key := strings.ToUpper(strings.TrimSpace(item.RawIdentifier))
	if key == "" {
		return nil
	}
	return m.index.ByASIN[key]
}

func (m *Matcher) skuExact(item internal.InvoiceItem) []internal.CatalogRow {
	key := util.NameKey(item.RawIdentifier)
	if key == "" {
		return nil
	}
	return m.index.ByFkSKU[key]
}

// skuSubstring finds catalog SKU cells that contain the extracted SKU: the
// invoice often drops the seller's leading serial or a suffix the sheet
// keeps. Both keys must be longer than 2 characters so a stray token cannot
// match the whole sheet.
func (m *Matcher) skuSubstring(item internal.InvoiceItem) []internal.CatalogRow {
	rawKey := util.NameKey(item.RawIdentifier)
	if len(rawKey) <= 2 {
		return nil
	}
	var out []internal.CatalogRow
	for key, rows := range m.index.ByFkSKU {
		if len(key) > 2 && strings.Contains(key, rawKey) {
			out = append(out, rows...)
		}
	}
	return out
}

// skuReverse is the opposite containment: the extracted SKU carries extra
// text around the catalog's cell value.
func (m *Matcher) skuReverse(item internal.InvoiceItem) []internal.CatalogRow {
	rawKey := util.NameKey(item.RawIdentifier)
	if len(rawKey) <= 2 {
		return nil
	}
	var out []internal.CatalogRow
	for key, rows := range m.index.ByFkSKU {
		if len(key) > 2 && strings.Contains(rawKey, key) {
			out = append(out, rows...)
		}
	}
	return out
}

func (m *Matcher) mrefExact(item internal.InvoiceItem) []internal.CatalogRow {
	key := util.NameKey(item.RawIdentifier)
	if key == "" {
		return nil
	}
	return m.index.ByMRef[key]
}

func (m *Matcher) nameWeightExact(item internal.InvoiceItem) []internal.CatalogRow {
	if item.Name == "" {
		return nil
	}
	return m.index.ByNameWeight[catalog.NameWeightKey(item.Name, item.WeightRaw)]
}

func (m *Matcher) nameContains(item internal.InvoiceItem) []internal.CatalogRow {
	queryKey := util.NameKey(item.Name)
	if queryKey == "" {
		return nil
	}
	var out []internal.CatalogRow
	for key, rows := range m.index.ByName {
		if !strings.Contains(key, queryKey) && !strings.Contains(queryKey, key) {
			continue
		}
		for _, r := range rows {
			if util.WeightsMatch(item.WeightRaw, r.Weight) {
				out = append(out, r)
			}
		}
	}
	return out
}

// wordOverlap requires every query word longer than 2 characters to appear
// in the candidate name, plus a weight match.
func (m *Matcher) wordOverlap(item internal.InvoiceItem) []internal.CatalogRow {
	words := util.Words(item.Name)
	if len(words) == 0 {
		return nil
	}
	var out []internal.CatalogRow
	for _, r := range m.index.RowsByIndex {
		if !util.WeightsMatch(item.WeightRaw, r.Weight) {
			continue
		}
		set := map[string]struct{}{}
		for _, w := range util.Words(r.Item) {
			set[w] = struct{}{}
		}
		all := true
		for _, w := range words {
			if _, ok := set[w]; !ok {
				all = false
				break
			}
		}
		if all {
			out = append(out, r)
		}
	}
	return out
}

// nameOnly fires only when the extraction produced no usable weight; with a
// weight present the weighted strategies above are authoritative.
func (m *Matcher) nameOnly(item internal.InvoiceItem) []internal.CatalogRow {
	if item.Name == "" || util.NormalizeWeight(item.WeightRaw) != "" {
		return nil
	}
	return m.index.ByName[util.NameKey(item.Name)]
}

func (m *Matcher) keyword(item internal.InvoiceItem) []internal.CatalogRow {
	seen := map[int]struct{}{}
	var out []internal.CatalogRow
	for _, tok := range util.Keywords(item.Name) {
		for idx := range m.index.TokenToRows[tok] {
			if _, dup := seen[idx]; dup {
				continue
			}
			seen[idx] = struct{}{}
			r := m.index.RowsByIndex[idx]
			if util.WeightsMatch(item.WeightRaw, r.Weight) {
				out = append(out, r)
			}
		}
	}
	return out
}

// resultFrom orders candidates by catalog row position and keeps the first;
// the rest stay visible on the result for operator review.
func resultFrom(strategy string, rows []internal.CatalogRow) internal.MatchResult {
	sorted := make([]internal.CatalogRow, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	best := sorted[0]
	res := internal.MatchResult{Status: internal.Matched, Strategy: strategy, Row: &best}
	if len(sorted) > 1 {
		res.Candidates = sorted[1:]
	}
	return res
}
