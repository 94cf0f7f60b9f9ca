package assemble

import (
	"sort"
	"strings"

	"packhouse/internal"
	"packhouse/internal/util"
)

// Sentinel primaries sort after every real product name, so unresolvable
// pages land at the end of the document in a deterministic order.
const (
	SentinelUnmatched    = "ZZZ_UNMATCHED"
	SentinelNoIdentifier = "ZZZ_NO_ASIN"
)

// Resolver maps an extracted item to its matched catalog row, nil when the
// cascade found nothing.
type Resolver func(internal.InvoiceItem) *internal.CatalogRow

// SortKey orders page groups: matched item name first, then normalized
// weight, then order id as the final tiebreaker.
type SortKey struct {
	Primary   string
	Secondary string
	Tertiary  string
}

// Less compares primaries case-folded: sheet item names carry whatever
// casing ops typed, and the sentinels must still land after all of them.
func (k SortKey) Less(o SortKey) bool {
	if kp, op := strings.ToLower(k.Primary), strings.ToLower(o.Primary); kp != op {
		return kp < op
	}
	if k.Secondary != o.Secondary {
		return k.Secondary < o.Secondary
	}
	return k.Tertiary < o.Tertiary
}

// Group is an atomic run of pages sharing an order id. Reordering moves
// whole groups; a 2-page label+invoice pair never splits.
type Group struct {
	Pages []PageInfo
	Key   SortKey
}

// BuildGroups collects pages into order-id groups in first-seen order.
// Pages without an order id stay singleton groups. Each group keys off its
// invoice page; a group with none keys off its first page.
func BuildGroups(pages []PageInfo, resolve Resolver) []Group {
	var groups []Group
	byOrder := map[string]int{}

	for _, p := range pages {
		if p.OrderID == "" {
			groups = append(groups, Group{Pages: []PageInfo{p}})
			continue
		}
		if gi, ok := byOrder[p.OrderID]; ok {
			groups[gi].Pages = append(groups[gi].Pages, p)
			continue
		}
		byOrder[p.OrderID] = len(groups)
		groups = append(groups, Group{Pages: []PageInfo{p}})
	}

	for i := range groups {
		groups[i].Key = groupKey(groups[i], resolve)
	}
	return groups
}

// SortGroups orders groups by key, stable so equal keys keep source order.
func SortGroups(groups []Group) {
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Key.Less(groups[j].Key)
	})
}

func groupKey(g Group, resolve Resolver) SortKey {
	keyed := g.Pages[0]
	for _, p := range g.Pages {
		if p.Kind == KindInvoice {
			keyed = p
			break
		}
	}
	return pageKey(keyed, resolve)
}

func pageKey(p PageInfo, resolve Resolver) SortKey {
	if len(p.TableHits) == 0 {
		return SortKey{Primary: SentinelNoIdentifier, Tertiary: p.OrderID}
	}

	first := p.TableHits[0].Item
	if row := resolve(first); row != nil {
		return SortKey{
			Primary:   row.Item,
			Secondary: util.NormalizeWeight(row.Weight),
			Tertiary:  p.OrderID,
		}
	}
	return SortKey{
		Primary:   SentinelUnmatched,
		Secondary: util.NormalizeWeight(first.WeightRaw),
		Tertiary:  p.OrderID,
	}
}
