package selection_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/illustrator-mcp-bridge/bridge/internal/executor"
	"github.com/illustrator-mcp-bridge/bridge/internal/executor/doctest"
	"github.com/illustrator-mcp-bridge/bridge/internal/selection"
)

func TestRowMajorToleratesJitter(t *testing.T) {
	// Three items nominally on one row (top within tolerance), left-to-right.
	a := &doctest.Item{NameV: "a", BoundsV: executor.Rect{Left: 0, Top: 100.2, Right: 10, Bottom: 90}}
	b := &doctest.Item{NameV: "b", BoundsV: executor.Rect{Left: 20, Top: 99.8, Right: 30, Bottom: 89}}
	c := &doctest.Item{NameV: "c", BoundsV: executor.Rect{Left: 10, Top: 100.0, Right: 20, Bottom: 90}}

	items := []executor.Item{b, c, a}
	ordered := selection.RowMajor(items, true)

	names := make([]string, len(ordered))
	for i, it := range ordered {
		names[i] = it.Name()
	}
	assert.Equal(t, []string{"a", "c", "b"}, names)
}

func TestColumnMajorOrdersTopDescendingWithinColumn(t *testing.T) {
	a := &doctest.Item{NameV: "a", BoundsV: executor.Rect{Left: 0, Top: 50, Right: 10, Bottom: 40}}
	b := &doctest.Item{NameV: "b", BoundsV: executor.Rect{Left: 0.2, Top: 100, Right: 10, Bottom: 90}}

	ordered := selection.ColumnMajor([]executor.Item{a, b}, true)
	assert.Equal(t, "b", ordered[0].Name())
	assert.Equal(t, "a", ordered[1].Name())
}
