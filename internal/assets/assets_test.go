package assets_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/illustrator-mcp-bridge/bridge/internal/assets"
	"github.com/illustrator-mcp-bridge/bridge/internal/executor"
	"github.com/illustrator-mcp-bridge/bridge/internal/executor/doctest"
)

func TestClassifyDeadZone(t *testing.T) {
	assert.Equal(t, assets.Square, assets.Classify(1.0))
	assert.Equal(t, assets.Square, assets.Classify(1.04))
	assert.Equal(t, assets.Square, assets.Classify(0.96))
	assert.Equal(t, assets.Landscape, assets.Classify(1.2))
	assert.Equal(t, assets.Portrait, assets.Classify(0.5))
}

func TestAnalyzeItemLandscape(t *testing.T) {
	it := &doctest.Item{BoundsV: executor.Rect{Left: 0, Top: 100, Right: 200, Bottom: 0}}
	ratio, orientation := assets.AnalyzeItem(it, true)
	assert.InDelta(t, 2.0, ratio, 1e-9)
	assert.Equal(t, assets.Landscape, orientation)
}
