// Package geometry provides pure bounds and unit-conversion helpers shared
// by the executor's collect/compute/apply stages.
package geometry

import "github.com/illustrator-mcp-bridge/bridge/internal/executor"

// PointsPerMM is the exact conversion factor between points and
// millimetres used throughout the bridge.
const PointsPerMM = 2.83464567

// PointsToMM converts a measurement in points to millimetres.
func PointsToMM(points float64) float64 {
	return points / PointsPerMM
}

// MMToPoints converts a measurement in millimetres to points.
func MMToPoints(mm float64) float64 {
	return mm * PointsPerMM
}

// VisibleBounds returns an item's visible bounds. For clipping groups, when
// useMaskBounds is true it returns the mask's geometric bounds rather than
// the masked content's bounds (the open-question policy flag resolved in
// SPEC_FULL.md).
func VisibleBounds(it executor.Item, useMaskBounds bool) executor.Rect {
	return it.VisibleBounds(useMaskBounds)
}

// GeometricBounds returns an item's geometric (stroke-exclusive) bounds.
func GeometricBounds(it executor.Item) executor.Rect {
	return it.Bounds()
}
