package spatial

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNeighborsWithinMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	const n = 500
	const radius = 5.0

	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := 0; i < n; i++ {
		xs[i] = rng.Float64() * 100
		ys[i] = rng.Float64() * 100
	}
	idx := NewIndex(xs, ys, radius)

	var buf []int32
	for q := 0; q < 50; q++ {
		qx := rng.Float64()*120 - 10
		qy := rng.Float64()*120 - 10

		buf = idx.NeighborsWithin(qx, qy, buf)
		got := append([]int32(nil), buf...)
		sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })

		var want []int32
		for i := 0; i < n; i++ {
			dx := xs[i] - qx
			dy := ys[i] - qy
			if dx*dx+dy*dy <= radius*radius {
				want = append(want, int32(i))
			}
		}
		assert.Equal(t, want, got, "query (%f, %f)", qx, qy)
	}
}

func TestNeighborsWithinIncludesExactRadius(t *testing.T) {
	// (3, 4) lies exactly at distance 5 from the origin
	xs := []float64{3, 6}
	ys := []float64{4, 8}
	idx := NewIndex(xs, ys, 5)

	got := idx.NeighborsWithin(0, 0, nil)

	require.Len(t, got, 1)
	assert.Equal(t, int32(0), got[0])
}

func TestNeighborsWithinAcrossCellBoundaries(t *testing.T) {
	// both points sit in cells adjacent to the query's cell
	xs := []float64{-0.5, 1.5}
	ys := []float64{0.5, -0.5}
	idx := NewIndex(xs, ys, 1)

	got := idx.NeighborsWithin(0.2, 0.2, nil)
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })

	assert.Equal(t, []int32{0, 1}, got)
}

func TestNeighborsWithinReusesBuffer(t *testing.T) {
	xs := []float64{0, 1, 2}
	ys := []float64{0, 0, 0}
	idx := NewIndex(xs, ys, 10)

	buf := make([]int32, 0, 8)
	first := idx.NeighborsWithin(0, 0, buf)
	second := idx.NeighborsWithin(0, 0, first)

	assert.Len(t, second, 3)
	// the same backing array is reused when capacity suffices
	assert.Equal(t, cap(first), cap(second))
}

func TestNeighborsWithinEmptyIndex(t *testing.T) {
	idx := NewIndex(nil, nil, 1)

	assert.Empty(t, idx.NeighborsWithin(0, 0, nil))
	assert.Equal(t, 1.0, idx.Radius())
}
