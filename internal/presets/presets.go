// Package presets provides named grid layouts and idempotent slot-fitting
// for placing items onto an artboard.
package presets

import "github.com/illustrator-mcp-bridge/bridge/internal/executor"

// Preset names a fixed row x column grid with margins and a gutter between
// slots.
type Preset struct {
	Rows, Columns int
	Margin        float64
	Gutter        float64
}

// Named presets. Keys match the grid dimensions they describe.
var Named = map[string]Preset{
	"2x2": {Rows: 2, Columns: 2, Margin: 20, Gutter: 10},
	"3x1": {Rows: 1, Columns: 3, Margin: 20, Gutter: 10},
	"1x3": {Rows: 3, Columns: 1, Margin: 20, Gutter: 10},
	"2x3": {Rows: 3, Columns: 2, Margin: 20, Gutter: 10},
	"3x2": {Rows: 2, Columns: 3, Margin: 20, Gutter: 10},
	"1x2": {Rows: 2, Columns: 1, Margin: 20, Gutter: 10},
	"2x1": {Rows: 1, Columns: 2, Margin: 20, Gutter: 10},
}

// FitMode selects how an item is resized to fill a slot.
type FitMode string

const (
	FitContain FitMode = "contain" // preserve aspect ratio, fit within slot
	FitStretch FitMode = "stretch" // ignore aspect ratio, fill slot exactly
)

// ComputeSlotGeometry returns the absolute rectangle of each slot in the
// preset's grid, inside artboard, in the host's Y-up coordinate system
// (top > bottom).
func ComputeSlotGeometry(preset Preset, artboard executor.Rect) []executor.Rect {
	usableWidth := artboard.Width() - 2*preset.Margin - float64(preset.Columns-1)*preset.Gutter
	usableHeight := artboard.Height() - 2*preset.Margin - float64(preset.Rows-1)*preset.Gutter
	slotW := usableWidth / float64(preset.Columns)
	slotH := usableHeight / float64(preset.Rows)

	slots := make([]executor.Rect, 0, preset.Rows*preset.Columns)
	top := artboard.Top - preset.Margin
	for row := 0; row < preset.Rows; row++ {
		left := artboard.Left + preset.Margin
		rowTop := top - float64(row)*(slotH+preset.Gutter)
		rowBottom := rowTop - slotH
		for col := 0; col < preset.Columns; col++ {
			slotLeft := left + float64(col)*(slotW+preset.Gutter)
			slots = append(slots, executor.Rect{
				Left:   slotLeft,
				Top:    rowTop,
				Right:  slotLeft + slotW,
				Bottom: rowBottom,
			})
		}
	}
	return slots
}

// FitToSlot computes the translate-and-scale delta needed to place it into
// slot under mode, and returns the item's resulting visible bounds. The
// computation is idempotent: it is derived from the item's current
// post-scale visible bounds, so applying it again (once the caller has
// moved/scaled the item accordingly) produces no further drift.
type FitResult struct {
	DeltaX, DeltaY float64
	ScaleX, ScaleY float64
	ResultBounds   executor.Rect
}

// FitToSlot is a pure computation: it does not mutate it. Callers apply
// DeltaX/DeltaY/ScaleX/ScaleY to the host item themselves.
func FitToSlot(it executor.Item, slot executor.Rect, mode FitMode, useMaskBounds bool) FitResult {
	bounds := it.VisibleBounds(useMaskBounds)
	bw, bh := bounds.Width(), bounds.Height()
	if bw == 0 || bh == 0 {
		return FitResult{ResultBounds: bounds}
	}

	sw := slot.Width() / bw
	sh := slot.Height() / bh

	scaleX, scaleY := sw, sh
	if mode == FitContain {
		scale := sw
		if sh < sw {
			scale = sh
		}
		scaleX, scaleY = scale, scale
	}

	resultW := bw * scaleX
	resultH := bh * scaleY

	// Center within the slot.
	resultLeft := slot.Left + (slot.Width()-resultW)/2
	resultTop := slot.Top - (slot.Height()-resultH)/2

	return FitResult{
		DeltaX: resultLeft - bounds.Left,
		DeltaY: resultTop - bounds.Top,
		ScaleX: scaleX,
		ScaleY: scaleY,
		ResultBounds: executor.Rect{
			Left:   resultLeft,
			Top:    resultTop,
			Right:  resultLeft + resultW,
			Bottom: resultTop - resultH,
		},
	}
}
