package overlay

import "strings"

type ZMode string
type OutputKind string
type ScalarMode string

const (
	// Surface assigns each boundary point the low quantile of nearby
	// cloud elevations, tracking the local ground surface.
	ZModeSurface ZMode = "SURFACE"

	// SurfaceOffset is Surface with a constant vertical offset added,
	// lifting the boundary above the relief.
	ZModeSurfaceOffset ZMode = "SURFACE-OFFSET"

	// P95 uses the 95th percentile of the whole retained cloud as the
	// fallback elevation, for a "constant height" rendition.
	ZModeP95 ZMode = "P95"

	// Median uses the cloud-wide median as the fallback elevation.
	ZModeMedian ZMode = "MEDIAN"
)

const (
	OutputXYZ       OutputKind = "XYZ"
	OutputXYZID     OutputKind = "XYZ-ID"
	OutputXYZScalar OutputKind = "XYZ-SF"
	OutputXYZRGB    OutputKind = "XYZ-RGB"
)

const (
	ScalarConst      ScalarMode = "CONST"
	ScalarPolylineID ScalarMode = "POLYLINE-ID"
)

func ParseZMode(value string) ZMode {
	switch normalize(value) {
	case "SURFACE":
		return ZModeSurface
	case "SURFACE-OFFSET":
		return ZModeSurfaceOffset
	case "P95":
		return ZModeP95
	case "MEDIAN":
		return ZModeMedian
	}
	return ""
}

func ParseOutputKind(value string) OutputKind {
	switch normalize(value) {
	case "XYZ":
		return OutputXYZ
	case "XYZ-ID":
		return OutputXYZID
	case "XYZ-SF":
		return OutputXYZScalar
	case "XYZ-RGB":
		return OutputXYZRGB
	}
	return ""
}

func ParseScalarMode(value string) ScalarMode {
	switch normalize(value) {
	case "CONST":
		return ScalarConst
	case "POLYLINE-ID":
		return ScalarPolylineID
	}
	return ""
}

func normalize(value string) string {
	return strings.ReplaceAll(strings.Trim(strings.ToUpper(value), " "), "_", "-")
}

// ProgressFunc receives coarse grained progress updates. percent is
// monotonically non-decreasing within a run.
type ProgressFunc func(percent int, label string)

// Contains the options needed for an overlay run.
type Options struct {
	BoundaryPath     string   // Input CAD boundary file
	CloudPath        string   // Input point cloud file
	OutputPath       string   // Output XYZ text file, empty to skip
	MergedOutputPath string   // Output merged cloud file, empty to skip
	Step             float64  // Densification step
	Layers           []string // Layer allow-list, empty selects all layers
	BoundaryCRS      string   // CRS of the boundary file, empty to assume the cloud's
	CloudCRS         string   // CRS of the cloud file
	ZMode            ZMode    // Elevation assignment mode
	ZOffset          float64  // Vertical offset added to assigned elevations
	Radius           float64  // Neighbor search radius
	MaxNeighbors     int      // Cap on neighbors considered per sample
	Quantile         float64  // Quantile of neighbor elevations, in [0,1]
	MaxCloudPoints   int      // Cap on retained cloud points, 0 disables
	OutputKind       OutputKind
	Color            ColorResolver
	ScalarMode       ScalarMode
	ScalarValue      float64
	Progress         ProgressFunc
}

func (opt *Options) Copy() *Options {
	newOpt := *opt
	if opt.Layers != nil {
		newOpt.Layers = make([]string, len(opt.Layers))
		copy(newOpt.Layers, opt.Layers)
	}
	return &newOpt
}

// Validate checks the numeric inputs shared by every run. Stage specific
// constraints are re-checked by the components that own them.
func (opt *Options) Validate() error {
	if opt.Step <= 0 {
		return &InvalidParameterError{Name: "step", Value: opt.Step}
	}
	if opt.Radius <= 0 {
		return &InvalidParameterError{Name: "radius", Value: opt.Radius}
	}
	if opt.MaxNeighbors <= 0 {
		return &InvalidParameterError{Name: "k", Value: float64(opt.MaxNeighbors)}
	}
	if opt.Quantile < 0 || opt.Quantile > 1 {
		return &InvalidParameterError{Name: "quantile", Value: opt.Quantile}
	}
	if opt.MaxCloudPoints < 0 {
		return &InvalidParameterError{Name: "max-points", Value: float64(opt.MaxCloudPoints)}
	}
	return nil
}
