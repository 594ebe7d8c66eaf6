package executor

import (
	"math"
	"sort"
)

const orderBucketTolerance = 10.0

// ApplyExclude removes items matching any active predicate in f. The
// filter is ORed: an item is removed if it matches any set predicate.
func ApplyExclude(items []Item, f ExcludeFilter) []Item {
	if !f.Any() {
		return items
	}
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if f.Locked && it.Locked() {
			continue
		}
		if f.Hidden && it.Hidden() {
			continue
		}
		if f.Guides && it.IsGuide() {
			continue
		}
		if f.Clipped && it.ClippedByAncestor() {
			continue
		}
		out = append(out, it)
	}
	return out
}

// ApplyOrder sorts items per mode, stably, using host-order as the implicit
// tiebreaker since sort.SliceStable preserves relative order of equal keys.
func ApplyOrder(items []Item, mode OrderBy, useMaskBounds bool) []Item {
	out := append([]Item(nil), items...)
	switch mode {
	case OrderZOrder, "":
		// already in host order
	case OrderZOrderReverse:
		reverse(out)
	case OrderReading:
		sort.SliceStable(out, func(i, j int) bool {
			bi, bj := out[i].VisibleBounds(useMaskBounds), out[j].VisibleBounds(useMaskBounds)
			ri, rj := bucket(bi.Top), bucket(bj.Top)
			if ri != rj {
				return ri > rj // top desc
			}
			return bi.Left < bj.Left
		})
	case OrderColumn:
		sort.SliceStable(out, func(i, j int) bool {
			bi, bj := out[i].VisibleBounds(useMaskBounds), out[j].VisibleBounds(useMaskBounds)
			ci, cj := bucket(bi.Left), bucket(bj.Left)
			if ci != cj {
				return ci < cj
			}
			return bi.Top > bj.Top
		})
	case OrderName:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Name() < out[j].Name()
		})
	case OrderPositionX:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].VisibleBounds(useMaskBounds).Left < out[j].VisibleBounds(useMaskBounds).Left
		})
	case OrderPositionY:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].VisibleBounds(useMaskBounds).Top > out[j].VisibleBounds(useMaskBounds).Top
		})
	case OrderArea:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].VisibleBounds(useMaskBounds).Area() < out[j].VisibleBounds(useMaskBounds).Area()
		})
	}
	return out
}

// bucket quantizes a coordinate to a fixed tolerance to prevent jitter
// between items nominally on the same row/column.
func bucket(v float64) int {
	return int(math.Round(v / orderBucketTolerance))
}

func reverse(items []Item) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
}
