// Package boundary extracts line-like geometry from CAD drawings.
package boundary

import "github.com/lidarmap/cadoverlay/internal/geometry"

// TaggedPolyline is one boundary polyline together with the name of the
// drawing layer it came from.
type TaggedPolyline struct {
	Layer    string
	Vertices []geometry.Vertex
}

// Extractor obtains boundary polylines from a drawing file.
type Extractor interface {
	// Extract returns the polylines of the drawing, optionally
	// restricted to the given layer allow-list (empty selects all).
	// Returns NoGeometryError when nothing qualifies.
	Extract(path string, layers []string) ([]TaggedPolyline, error)

	// ListLayers enumerates the layers that carry supported linework.
	ListLayers(path string) ([]string, error)
}
