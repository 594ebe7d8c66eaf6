package presets_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illustrator-mcp-bridge/bridge/internal/executor"
	"github.com/illustrator-mcp-bridge/bridge/internal/executor/doctest"
	"github.com/illustrator-mcp-bridge/bridge/internal/presets"
)

func TestComputeSlotGeometry2x2(t *testing.T) {
	preset := presets.Named["2x2"]
	artboard := executor.Rect{Left: 0, Top: 500, Right: 500, Bottom: 0}
	slots := presets.ComputeSlotGeometry(preset, artboard)
	require.Len(t, slots, 4)

	for _, s := range slots {
		assert.Greater(t, s.Top, s.Bottom)
		assert.Greater(t, s.Right, s.Left)
	}
	// top-left slot must sit inside the margin.
	assert.InDelta(t, artboard.Left+preset.Margin, slots[0].Left, 1e-9)
	assert.InDelta(t, artboard.Top-preset.Margin, slots[0].Top, 1e-9)
}

// applyFit mutates the doctest item's bounds by the delta/scale FitToSlot
// computed, simulating what a host apply stage would do.
func applyFit(it *doctest.Item, result presets.FitResult) {
	b := it.BoundsV
	w := b.Width() * result.ScaleX
	h := b.Height() * result.ScaleY
	newLeft := b.Left + result.DeltaX
	newTop := b.Top + result.DeltaY
	it.BoundsV = executor.Rect{
		Left: newLeft, Top: newTop,
		Right: newLeft + w, Bottom: newTop - h,
	}
}

func TestFitToSlotIsIdempotent(t *testing.T) {
	slot := executor.Rect{Left: 100, Top: 300, Right: 300, Bottom: 100}
	it := &doctest.Item{BoundsV: executor.Rect{Left: 0, Top: 50, Right: 80, Bottom: 0}}

	first := presets.FitToSlot(it, slot, presets.FitContain, true)
	applyFit(it, first)
	boundsAfterFirst := it.VisibleBounds(true)

	second := presets.FitToSlot(it, slot, presets.FitContain, true)
	applyFit(it, second)
	boundsAfterSecond := it.VisibleBounds(true)

	assert.InDelta(t, boundsAfterFirst.Left, boundsAfterSecond.Left, 1e-9)
	assert.InDelta(t, boundsAfterFirst.Top, boundsAfterSecond.Top, 1e-9)
	assert.InDelta(t, boundsAfterFirst.Right, boundsAfterSecond.Right, 1e-9)
	assert.InDelta(t, boundsAfterFirst.Bottom, boundsAfterSecond.Bottom, 1e-9)
	assert.InDelta(t, 0, second.DeltaX, 1e-9)
	assert.InDelta(t, 0, second.DeltaY, 1e-9)
}
