// Package layout computes row-then-column grid placement from visible-
// bounds deltas, so that items with non-trivial masks (e.g. clipped
// groups) land at their expected visible position rather than drifting by
// their anchor offset.
package layout

import "github.com/illustrator-mcp-bridge/bridge/internal/executor"

// Placement is the target top-left position (in the host's Y-up coordinate
// system) for one item, along with the delta needed to move the item's
// anchor there given its current visible bounds.
type Placement struct {
	Item    executor.Item
	Left    float64
	Top     float64
	DeltaX  float64
	DeltaY  float64
}

// GridOptions configures a row-then-column grid.
type GridOptions struct {
	StartX, StartY   float64
	GapX, GapY       float64
	Columns          int // 0 means a single row
	UseMaskBounds    bool
}

// Grid lays items out row-then-column, left-to-right within a row, top-to-
// bottom across rows, advancing by each item's own visible-bounds width/
// height plus the configured gap.
func Grid(items []executor.Item, opts GridOptions) []Placement {
	out := make([]Placement, 0, len(items))
	columns := opts.Columns
	if columns <= 0 {
		columns = len(items)
		if columns == 0 {
			columns = 1
		}
	}

	x, y := opts.StartX, opts.StartY
	rowHeight := 0.0
	col := 0

	for _, it := range items {
		bounds := it.VisibleBounds(opts.UseMaskBounds)
		width := bounds.Width()
		height := bounds.Height()

		deltaX := x - bounds.Left
		deltaY := y - bounds.Top

		out = append(out, Placement{
			Item:   it,
			Left:   x,
			Top:    y,
			DeltaX: deltaX,
			DeltaY: deltaY,
		})

		if height > rowHeight {
			rowHeight = height
		}

		col++
		if col >= columns {
			col = 0
			x = opts.StartX
			y -= rowHeight + opts.GapY
			rowHeight = 0
		} else {
			x += width + opts.GapX
		}
	}
	return out
}
