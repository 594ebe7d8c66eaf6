package resolver_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illustrator-mcp-bridge/bridge/internal/resolver"
)

func manifest() resolver.Manifest {
	return resolver.Manifest{
		"geometry":  {Content: "function getVisibleBounds(){}\n", Exports: []string{"getVisibleBounds"}},
		"selection": {Content: "function orderItems(){}\n", Dependencies: []string{"geometry"}, Exports: []string{"orderItems"}},
		"layout":    {Content: "function placeGrid(){}\n", Dependencies: []string{"geometry", "selection"}, Exports: []string{"placeGrid"}},
	}
}

func TestResolveTransitiveOrderAndDedup(t *testing.T) {
	r, err := resolver.New(manifest(), 16)
	require.NoError(t, err)

	out, err := r.Resolve([]string{"layout"}, "BODY")
	require.NoError(t, err)
	assert.Contains(t, out, "getVisibleBounds")
	assert.Contains(t, out, "orderItems")
	assert.Contains(t, out, "placeGrid")
	assert.Contains(t, out, "BODY")

	geoIdx := indexOf(out, "getVisibleBounds")
	selIdx := indexOf(out, "orderItems")
	layoutIdx := indexOf(out, "placeGrid")
	assert.Less(t, geoIdx, selIdx)
	assert.Less(t, selIdx, layoutIdx)
}

func TestCycleDetection(t *testing.T) {
	m := resolver.Manifest{
		"a": {Content: "a", Dependencies: []string{"b"}},
		"b": {Content: "b", Dependencies: []string{"a"}},
	}
	r, err := resolver.New(m, 16)
	require.NoError(t, err)

	_, err = r.Resolve([]string{"a"}, "")
	require.Error(t, err)
	var cycleErr *resolver.CycleError
	assert.True(t, errors.As(err, &cycleErr))
}

func TestExportCollision(t *testing.T) {
	m := resolver.Manifest{
		"a": {Content: "a", Exports: []string{"shared"}},
		"b": {Content: "b", Exports: []string{"shared"}},
	}
	r, err := resolver.New(m, 16)
	require.NoError(t, err)

	_, err = r.Resolve([]string{"a", "b"}, "")
	require.Error(t, err)
	var collErr *resolver.CollisionError
	require.True(t, errors.As(err, &collErr))
	assert.Equal(t, "shared", collErr.Symbol)
}

func TestResolveIsCachedAcrossCalls(t *testing.T) {
	r, err := resolver.New(manifest(), 16)
	require.NoError(t, err)

	out1, err := r.Resolve([]string{"selection", "geometry"}, "BODY1")
	require.NoError(t, err)
	out2, err := r.Resolve([]string{"geometry", "selection"}, "BODY2")
	require.NoError(t, err)

	// Same requested set (order independent) shares a cached prefix.
	prefix1 := out1[:len(out1)-len("BODY1")]
	prefix2 := out2[:len(out2)-len("BODY2")]
	assert.Equal(t, prefix1, prefix2)
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
