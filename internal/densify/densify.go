// Package densify inserts interpolated points along polylines so that
// consecutive points are no farther apart than a given step.
package densify

import (
	"math"

	"github.com/lidarmap/cadoverlay/internal/geometry"
	"github.com/lidarmap/cadoverlay/internal/overlay"
)

// dedupEpsilon is the planar distance below which consecutive emitted
// points are considered duplicates and collapsed.
const dedupEpsilon = 1e-9

// Densify emits points along the polyline spaced at most step apart,
// preserving traversal order. Vertex elevations are linearly interpolated
// when both segment endpoints carry one. Polylines with fewer than two
// vertices are returned unchanged.
func Densify(vertices []geometry.Vertex, step float64) ([]geometry.Vertex, error) {
	if len(vertices) < 2 {
		return vertices, nil
	}
	if step <= 0 {
		return nil, &overlay.InvalidParameterError{Name: "step", Value: step}
	}

	out := make([]geometry.Vertex, 0, len(vertices)*2)
	for i := 0; i < len(vertices)-1; i++ {
		v0 := vertices[i]
		v1 := vertices[i+1]
		dx := v1.X - v0.X
		dy := v1.Y - v0.Y
		segLen := math.Hypot(dx, dy)
		if segLen == 0 {
			continue
		}

		n := int(math.Ceil(segLen / step))
		if n < 1 {
			n = 1
		}
		for j := 0; j < n; j++ {
			t := float64(j) / float64(n)
			v := geometry.Vertex{X: v0.X + dx*t, Y: v0.Y + dy*t}
			if v0.HasZ && v1.HasZ {
				v.Z = v0.Z + (v1.Z-v0.Z)*t
				v.HasZ = true
			}
			out = append(out, v)
		}
	}
	out = append(out, vertices[len(vertices)-1])

	return dedup(out), nil
}

func dedup(points []geometry.Vertex) []geometry.Vertex {
	kept := points[:0]
	for _, p := range points {
		if len(kept) == 0 {
			kept = append(kept, p)
			continue
		}
		last := kept[len(kept)-1]
		if math.Abs(last.X-p.X) > dedupEpsilon || math.Abs(last.Y-p.Y) > dedupEpsilon {
			kept = append(kept, p)
		}
	}
	return kept
}
