package overlay

import (
	"errors"
	"fmt"

	"github.com/lidarmap/cadoverlay/internal/geometry"
)

// ErrCancelled is returned when the caller's context is done before the
// run completes. Partially built structures are released; no usable
// output is left behind.
var ErrCancelled = errors.New("run cancelled")

// InvalidParameterError reports a numeric input outside its allowed range.
type InvalidParameterError struct {
	Name  string
	Value float64
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s=%v", e.Name, e.Value)
}

// NoGeometryError reports that the boundary source contains no usable
// line entities, or that none survived the layer filter.
type NoGeometryError struct {
	Path   string
	Layers []string
}

func (e *NoGeometryError) Error() string {
	if len(e.Layers) > 0 {
		return fmt.Sprintf("no supported linework found in %s (layers %v)", e.Path, e.Layers)
	}
	return fmt.Sprintf("no supported linework found in %s", e.Path)
}

// UnalignedDataError reports that the boundary bounding box and the cloud
// extent occupy disjoint regions, commonly a CRS mismatch. Both boxes are
// carried for diagnostics.
type UnalignedDataError struct {
	QueryBox geometry.BoundingBox
	CloudBox geometry.BoundingBox
}

func (e *UnalignedDataError) Error() string {
	return fmt.Sprintf(
		"cloud is not aligned with the boundary: boundary_bbox=%v cloud_bbox=%v",
		e.QueryBox, e.CloudBox)
}

// UnsupportedFormatError reports a container that cannot be decoded or
// written, e.g. missing compression support.
type UnsupportedFormatError struct {
	Path   string
	Reason string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format %s: %s", e.Path, e.Reason)
}

// DimensionMismatchError reports a length disagreement between parallel
// arrays at an internal hand-off.
type DimensionMismatchError struct {
	What string
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: %s has length %d, want %d", e.What, e.Got, e.Want)
}
