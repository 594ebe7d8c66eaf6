// Package assets analyzes placed/raster items for aspect ratio and
// orientation, used by tool wrappers that need to reason about imported
// imagery.
package assets

import "github.com/illustrator-mcp-bridge/bridge/internal/executor"

// Orientation classifies an aspect ratio with a dead zone around 1.0 so
// near-square assets aren't misclassified by floating-point noise.
type Orientation string

const (
	Landscape Orientation = "landscape"
	Portrait  Orientation = "portrait"
	Square    Orientation = "square"
)

// squareDeadZone is the +/-5% band around an aspect ratio of 1.0 treated as
// square.
const squareDeadZone = 0.05

// AspectRatio returns width/height for an item's visible bounds.
func AspectRatio(it executor.Item, useMaskBounds bool) float64 {
	b := it.VisibleBounds(useMaskBounds)
	h := b.Height()
	if h == 0 {
		return 0
	}
	return b.Width() / h
}

// Classify returns the orientation for a given aspect ratio.
func Classify(aspectRatio float64) Orientation {
	switch {
	case aspectRatio > 1+squareDeadZone:
		return Landscape
	case aspectRatio < 1-squareDeadZone:
		return Portrait
	default:
		return Square
	}
}

// AnalyzeItem is a convenience wrapper combining AspectRatio and Classify.
func AnalyzeItem(it executor.Item, useMaskBounds bool) (ratio float64, orientation Orientation) {
	ratio = AspectRatio(it, useMaskBounds)
	return ratio, Classify(ratio)
}
