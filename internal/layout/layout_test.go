package layout_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/illustrator-mcp-bridge/bridge/internal/executor"
	"github.com/illustrator-mcp-bridge/bridge/internal/executor/doctest"
	"github.com/illustrator-mcp-bridge/bridge/internal/layout"
)

func rect(width, height float64) executor.Rect {
	return executor.Rect{Left: 0, Top: height, Right: width, Bottom: 0}
}

func TestGridThreeRectanglesSingleRow(t *testing.T) {
	items := []executor.Item{
		&doctest.Item{NameV: "r1", BoundsV: rect(100, 50)},
		&doctest.Item{NameV: "r2", BoundsV: rect(100, 50)},
		&doctest.Item{NameV: "r3", BoundsV: rect(100, 50)},
	}

	placements := layout.Grid(items, layout.GridOptions{
		StartX: 40, StartY: 100, GapX: 8.5, GapY: 8.5, UseMaskBounds: true,
	})

	lefts := make([]float64, len(placements))
	for i, p := range placements {
		lefts[i] = p.Left
	}
	assert.InDeltaSlice(t, []float64{40, 148.5, 257}, lefts, 1e-9)
	assert.InDelta(t, 108.5, lefts[1]-lefts[0], 1e-9)
	assert.InDelta(t, 108.5, lefts[2]-lefts[1], 1e-9)
}
