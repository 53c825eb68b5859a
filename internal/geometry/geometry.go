package geometry

import "fmt"

// Coordinate holds a 3D point in the cloud's reference system.
type Coordinate struct {
	X float64
	Y float64
	Z float64
}

// Vertex is a polyline vertex. Source geometry does not always carry an
// elevation, so Z is only meaningful when HasZ is set.
type Vertex struct {
	X    float64
	Y    float64
	Z    float64
	HasZ bool
}

// NewVertex2D builds a vertex without elevation.
func NewVertex2D(x, y float64) Vertex {
	return Vertex{X: x, Y: y}
}

// NewVertex3D builds a vertex with elevation.
func NewVertex3D(x, y, z float64) Vertex {
	return Vertex{X: x, Y: y, Z: z, HasZ: true}
}

// BoundingBox is an axis aligned planar rectangle with inclusive bounds.
type BoundingBox struct {
	Xmin float64
	Ymin float64
	Xmax float64
	Ymax float64
}

// NewBoundingBox returns a bounding box with the given bounds.
func NewBoundingBox(xmin, ymin, xmax, ymax float64) BoundingBox {
	return BoundingBox{Xmin: xmin, Ymin: ymin, Xmax: xmax, Ymax: ymax}
}

// EmptyBoundingBox returns a box that extends to nothing and can be grown
// point by point with Extend.
func EmptyBoundingBox() BoundingBox {
	return BoundingBox{
		Xmin: maxFloat, Ymin: maxFloat,
		Xmax: -maxFloat, Ymax: -maxFloat,
	}
}

const maxFloat = 1.797693134862315708145274237317043567981e+308

// Contains reports whether (x, y) falls inside the box, bounds included.
func (b BoundingBox) Contains(x, y float64) bool {
	return x >= b.Xmin && x <= b.Xmax && y >= b.Ymin && y <= b.Ymax
}

// Extend grows the box to include (x, y).
func (b *BoundingBox) Extend(x, y float64) {
	if x < b.Xmin {
		b.Xmin = x
	}
	if x > b.Xmax {
		b.Xmax = x
	}
	if y < b.Ymin {
		b.Ymin = y
	}
	if y > b.Ymax {
		b.Ymax = y
	}
}

// IsEmpty reports whether the box never received a point.
func (b BoundingBox) IsEmpty() bool {
	return b.Xmin > b.Xmax || b.Ymin > b.Ymax
}

// Intersects reports whether two boxes share any area, touching edges
// included.
func (b BoundingBox) Intersects(o BoundingBox) bool {
	return b.Xmin <= o.Xmax && b.Xmax >= o.Xmin && b.Ymin <= o.Ymax && b.Ymax >= o.Ymin
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("[%g %g %g %g]", b.Xmin, b.Ymin, b.Xmax, b.Ymax)
}

// ComputeBoundingBox returns the planar bounding box of the given
// coordinate arrays. Both slices must have the same length and at least
// one element.
func ComputeBoundingBox(xs, ys []float64) BoundingBox {
	box := EmptyBoundingBox()
	for i := range xs {
		box.Extend(xs[i], ys[i])
	}
	return box
}
