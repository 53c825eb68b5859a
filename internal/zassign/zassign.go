// Package zassign assigns elevations to boundary samples from nearby
// cloud points using a radius-bounded neighbor query and a robust
// quantile statistic.
package zassign

import (
	"context"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/lidarmap/cadoverlay/internal/cloud"
	"github.com/lidarmap/cadoverlay/internal/overlay"
	"github.com/lidarmap/cadoverlay/internal/spatial"
)

// Params controls one elevation assignment pass.
type Params struct {
	K         int     // cap on neighbors per sample
	Quantile  float64 // quantile of neighbor elevations, in [0,1]
	FallbackZ float64 // used when no neighbor lies within the radius
	Offset    float64 // added to every assigned elevation
}

// Engine answers per-sample elevation queries against an immutable cloud
// subset. The spatial index is built once and is read-only afterwards.
type Engine struct {
	xs, ys, zs []float64
	index      *spatial.Index
}

// NewEngine indexes the retained cloud subset with cell size equal to the
// search radius.
func NewEngine(points []cloud.Point, radius float64) (*Engine, error) {
	if radius <= 0 {
		return nil, &overlay.InvalidParameterError{Name: "radius", Value: radius}
	}
	e := &Engine{
		xs: make([]float64, len(points)),
		ys: make([]float64, len(points)),
		zs: make([]float64, len(points)),
	}
	for i, p := range points {
		e.xs[i] = p.X
		e.ys[i] = p.Y
		e.zs[i] = p.Z
	}
	e.index = spatial.NewIndex(e.xs, e.ys, radius)
	return e, nil
}

// Assign computes one elevation per sample. For each sample the neighbors
// within the radius are gathered; if more than K are found, the K nearest
// by squared distance are kept via partial selection; the requested
// quantile of their elevations plus the offset is the result. Samples with
// no neighbor get FallbackZ plus the offset.
//
// The output order matches the sample order. progress, when non-nil, is
// invoked with the integer percent complete, only on value change.
func (e *Engine) Assign(ctx context.Context, xs, ys []float64, p Params, progress func(int)) ([]float64, error) {
	if p.K <= 0 {
		return nil, &overlay.InvalidParameterError{Name: "k", Value: float64(p.K)}
	}
	if p.Quantile < 0 || p.Quantile > 1 {
		return nil, &overlay.InvalidParameterError{Name: "quantile", Value: p.Quantile}
	}
	if len(xs) != len(ys) {
		return nil, &overlay.DimensionMismatchError{What: "sample ys", Want: len(xs), Got: len(ys)}
	}

	out := make([]float64, len(xs))
	var (
		nbuf     []int32
		d2buf    []float64
		zbuf     []float64
		lastPerc = -1
	)
	for i := range xs {
		if err := ctx.Err(); err != nil {
			return nil, overlay.ErrCancelled
		}

		nbuf = e.index.NeighborsWithin(xs[i], ys[i], nbuf)
		if len(nbuf) == 0 {
			out[i] = p.FallbackZ + p.Offset
		} else {
			keep := nbuf
			if len(nbuf) > p.K {
				d2buf = d2buf[:0]
				for _, n := range nbuf {
					dx := e.xs[n] - xs[i]
					dy := e.ys[n] - ys[i]
					d2buf = append(d2buf, dx*dx+dy*dy)
				}
				selectSmallest(d2buf, nbuf, p.K)
				keep = nbuf[:p.K]
			}
			zbuf = zbuf[:0]
			for _, n := range keep {
				zbuf = append(zbuf, e.zs[n])
			}
			sort.Float64s(zbuf)
			out[i] = stat.Quantile(p.Quantile, stat.LinInterp, zbuf, nil) + p.Offset
		}

		if progress != nil {
			perc := 100 * (i + 1) / len(xs)
			if perc != lastPerc {
				lastPerc = perc
				progress(perc)
			}
		}
	}
	return out, nil
}

// selectSmallest partially orders the parallel slices so that the k
// entries with the smallest d2 occupy the front. Ordering within the
// front, and ties at the boundary, are arbitrary.
func selectSmallest(d2 []float64, idx []int32, k int) {
	lo, hi := 0, len(d2)-1
	for lo < hi {
		p := partition(d2, idx, lo, hi)
		switch {
		case p == k-1:
			return
		case p < k-1:
			lo = p + 1
		default:
			hi = p - 1
		}
	}
}

func partition(d2 []float64, idx []int32, lo, hi int) int {
	// median-of-three pivot guards against sorted input
	mid := lo + (hi-lo)/2
	if d2[mid] < d2[lo] {
		swap(d2, idx, mid, lo)
	}
	if d2[hi] < d2[lo] {
		swap(d2, idx, hi, lo)
	}
	if d2[hi] < d2[mid] {
		swap(d2, idx, hi, mid)
	}
	pivot := d2[mid]
	swap(d2, idx, mid, hi)

	store := lo
	for i := lo; i < hi; i++ {
		if d2[i] < pivot {
			swap(d2, idx, i, store)
			store++
		}
	}
	swap(d2, idx, store, hi)
	return store
}

func swap(d2 []float64, idx []int32, i, j int) {
	d2[i], d2[j] = d2[j], d2[i]
	idx[i], idx[j] = idx[j], idx[i]
}
