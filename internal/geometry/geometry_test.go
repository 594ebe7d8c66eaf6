package geometry_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/illustrator-mcp-bridge/bridge/internal/geometry"
)

func TestMMPointsRoundTrip(t *testing.T) {
	for _, x := range []float64{0, 1, 72, 123.456, 1e6} {
		got := geometry.MMToPoints(geometry.PointsToMM(x))
		assert.True(t, math.Abs(got-x) < 1e-9, "x=%v got=%v", x, got)
	}
}

func TestPointsPerMMExactFactor(t *testing.T) {
	assert.Equal(t, 2.83464567, geometry.PointsPerMM)
}
