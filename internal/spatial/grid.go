// Package spatial provides a uniform-cell hash index over planar point
// coordinates for radius queries. Cell size equals the query radius, so a
// 3x3 cell neighborhood always covers the radius disk and the query never
// touches the full point set.
package spatial

import "math"

// Index is a read-only spatial hash built once from a point set.
type Index struct {
	cell  float64
	r2    float64
	xs    []float64
	ys    []float64
	cells map[int64][]int32
}

// NewIndex builds an index over the given coordinates with cell size equal
// to the search radius. The coordinate slices are referenced, not copied,
// and must not be mutated afterwards.
func NewIndex(xs, ys []float64, radius float64) *Index {
	idx := &Index{
		cell:  radius,
		r2:    radius * radius,
		xs:    xs,
		ys:    ys,
		cells: make(map[int64][]int32, len(xs)/4+1),
	}
	for i := range xs {
		key := cellKey(idx.cellOf(xs[i]), idx.cellOf(ys[i]))
		idx.cells[key] = append(idx.cells[key], int32(i))
	}
	return idx
}

// NeighborsWithin returns the indices of all points with squared planar
// distance to (x, y) at most radius squared, in no particular order.
// Results are appended to buf to allow reuse across queries.
func (idx *Index) NeighborsWithin(x, y float64, buf []int32) []int32 {
	cx := idx.cellOf(x)
	cy := idx.cellOf(y)
	out := buf[:0]
	for dx := int32(-1); dx <= 1; dx++ {
		for dy := int32(-1); dy <= 1; dy++ {
			for _, i := range idx.cells[cellKey(cx+dx, cy+dy)] {
				ddx := idx.xs[i] - x
				ddy := idx.ys[i] - y
				if ddx*ddx+ddy*ddy <= idx.r2 {
					out = append(out, i)
				}
			}
		}
	}
	return out
}

// Radius returns the search radius the index was built with.
func (idx *Index) Radius() float64 {
	return idx.cell
}

func (idx *Index) cellOf(v float64) int32 {
	return int32(math.Floor(v / idx.cell))
}

// cellKey packs a cell coordinate pair into a single sortable key.
func cellKey(ix, iy int32) int64 {
	return int64(ix)<<32 ^ (int64(iy) & 0xFFFFFFFF)
}
