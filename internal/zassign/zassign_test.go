package zassign

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lidarmap/cadoverlay/internal/cloud"
	"github.com/lidarmap/cadoverlay/internal/overlay"
)

func flatCloud(zs []float64) []cloud.Point {
	points := make([]cloud.Point, len(zs))
	for i, z := range zs {
		// spread along x so every point stays within one radius of origin
		points[i] = cloud.Point{X: float64(i) * 0.01, Y: 0, Z: z}
	}
	return points
}

func TestNewEngineRejectsNonPositiveRadius(t *testing.T) {
	_, err := NewEngine(nil, 0)
	var perr *overlay.InvalidParameterError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "radius", perr.Name)
}

func TestAssignValidatesParams(t *testing.T) {
	engine, err := NewEngine(flatCloud([]float64{1}), 1)
	require.NoError(t, err)

	_, err = engine.Assign(context.Background(), []float64{0}, []float64{0}, Params{K: 0, Quantile: 0.5}, nil)
	assert.Error(t, err)

	_, err = engine.Assign(context.Background(), []float64{0}, []float64{0}, Params{K: 1, Quantile: 1.5}, nil)
	assert.Error(t, err)

	_, err = engine.Assign(context.Background(), []float64{0}, []float64{0, 1}, Params{K: 1, Quantile: 0.5}, nil)
	var derr *overlay.DimensionMismatchError
	assert.ErrorAs(t, err, &derr)
}

func TestAssignQuantileOfNeighbors(t *testing.T) {
	engine, err := NewEngine(flatCloud([]float64{3, 1, 2}), 1)
	require.NoError(t, err)

	assign := func(q float64) float64 {
		out, err := engine.Assign(context.Background(), []float64{0}, []float64{0}, Params{K: 64, Quantile: q}, nil)
		require.NoError(t, err)
		require.Len(t, out, 1)
		return out[0]
	}

	assert.InDelta(t, 1.0, assign(0), 1e-12)
	assert.InDelta(t, 3.0, assign(1), 1e-12)

	mid := assign(0.5)
	assert.GreaterOrEqual(t, mid, 1.0)
	assert.LessOrEqual(t, mid, 3.0)
}

func TestAssignAddsOffset(t *testing.T) {
	engine, err := NewEngine(flatCloud([]float64{5, 5, 5}), 1)
	require.NoError(t, err)

	out, err := engine.Assign(context.Background(), []float64{0}, []float64{0}, Params{K: 64, Quantile: 0.5, Offset: 1.5}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 6.5, out[0], 1e-12)
}

func TestAssignKeepsOnlyNearestK(t *testing.T) {
	points := []cloud.Point{
		{X: 0.1, Y: 0, Z: 10},
		{X: 0.2, Y: 0, Z: 20},
		{X: 0.3, Y: 0, Z: 30},
		{X: 0.4, Y: 0, Z: 40},
	}
	engine, err := NewEngine(points, 1)
	require.NoError(t, err)

	// the two nearest carry z 10 and 20, so the max over them is 20
	out, err := engine.Assign(context.Background(), []float64{0}, []float64{0}, Params{K: 2, Quantile: 1}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, out[0], 1e-12)
}

func TestAssignKOneTakesNearestNeighbor(t *testing.T) {
	points := []cloud.Point{
		{X: 0.5, Y: 0, Z: 7},
		{X: -0.9, Y: 0, Z: 99},
	}
	engine, err := NewEngine(points, 1)
	require.NoError(t, err)

	out, err := engine.Assign(context.Background(), []float64{0}, []float64{0}, Params{K: 1, Quantile: 0.5}, nil)
	require.NoError(t, err)
	assert.InDelta(t, 7.0, out[0], 1e-12)
}

func TestAssignFallsBackWithoutNeighbors(t *testing.T) {
	engine, err := NewEngine([]cloud.Point{{X: 100, Y: 100, Z: 5}}, 1)
	require.NoError(t, err)

	out, err := engine.Assign(context.Background(), []float64{0}, []float64{0}, Params{K: 8, Quantile: 0.5, FallbackZ: 42, Offset: 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, 43.0, out[0])
}

func TestAssignProgressReportsOnChangeOnly(t *testing.T) {
	engine, err := NewEngine(flatCloud([]float64{1, 2, 3}), 1)
	require.NoError(t, err)

	xs := make([]float64, 10)
	ys := make([]float64, 10)

	var reported []int
	_, err = engine.Assign(context.Background(), xs, ys, Params{K: 8, Quantile: 0.5}, func(pct int) {
		reported = append(reported, pct)
	})
	require.NoError(t, err)

	require.NotEmpty(t, reported)
	assert.Equal(t, 100, reported[len(reported)-1])
	for i := 1; i < len(reported); i++ {
		assert.Greater(t, reported[i], reported[i-1])
	}
}

func TestAssignCancellation(t *testing.T) {
	engine, err := NewEngine(flatCloud([]float64{1}), 1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = engine.Assign(ctx, []float64{0}, []float64{0}, Params{K: 1, Quantile: 0.5}, nil)
	assert.ErrorIs(t, err, overlay.ErrCancelled)
}

func TestConstantZ(t *testing.T) {
	flat := []float64{7, 7, 7, 7}

	median, err := ConstantZ(flat, StatMedian, 0)
	require.NoError(t, err)
	assert.InDelta(t, 7.0, median, 1e-12)

	withOffset, err := ConstantZ(flat, StatMedian, 2)
	require.NoError(t, err)
	assert.InDelta(t, 9.0, withOffset, 1e-12)

	// the input need not be sorted, and p95 lands near the top of the range
	seq := []float64{12, 3, 18, 0, 9, 6, 15, 20}
	p95, err := ConstantZ(seq, StatP95, 0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, p95, 15.0)
	assert.LessOrEqual(t, p95, 20.0)

	medianSeq, err := ConstantZ(seq, StatMedian, 0)
	require.NoError(t, err)
	assert.Less(t, medianSeq, p95)
}

func TestConstantZErrors(t *testing.T) {
	_, err := ConstantZ(nil, StatMedian, 0)
	assert.Error(t, err)

	_, err = ConstantZ([]float64{1}, Statistic("MEAN"), 0)
	assert.Error(t, err)
}
