// Package selection provides spatial ordering of items used by tool
// wrappers that need row-major or column-major traversal, distinct from the
// coarser orderBy bucketing the executor applies directly (see SPEC_FULL.md).
package selection

import (
	"math"
	"sort"

	"github.com/illustrator-mcp-bridge/bridge/internal/executor"
)

// tolerance prevents jitter between items nominally on the same row/column.
const tolerance = 5.0

// RowMajor orders items left-to-right, top-to-bottom, bucketing the row
// coordinate to tolerance so near-aligned items don't reorder on noise.
func RowMajor(items []executor.Item, useMaskBounds bool) []executor.Item {
	out := append([]executor.Item(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		bi, bj := out[i].VisibleBounds(useMaskBounds), out[j].VisibleBounds(useMaskBounds)
		ri, rj := bucket(bi.Top), bucket(bj.Top)
		if ri != rj {
			return ri > rj
		}
		return bi.Left < bj.Left
	})
	return out
}

// ColumnMajor orders items top-to-bottom, left-to-right, bucketing the
// column coordinate to tolerance.
func ColumnMajor(items []executor.Item, useMaskBounds bool) []executor.Item {
	out := append([]executor.Item(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		bi, bj := out[i].VisibleBounds(useMaskBounds), out[j].VisibleBounds(useMaskBounds)
		ci, cj := bucket(bi.Left), bucket(bj.Left)
		if ci != cj {
			return ci < cj
		}
		return bi.Top > bj.Top
	})
	return out
}

func bucket(v float64) int {
	return int(math.Round(v / tolerance))
}
