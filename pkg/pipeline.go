// Package pkg drives the overlay pipeline: boundary extraction,
// densification, spatially bounded cloud ingestion, elevation assignment,
// coloring and output writing.
package pkg

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/lidarmap/cadoverlay/internal/boundary"
	"github.com/lidarmap/cadoverlay/internal/cloud"
	"github.com/lidarmap/cadoverlay/internal/cloud/las"
	"github.com/lidarmap/cadoverlay/internal/cloud/pcd"
	"github.com/lidarmap/cadoverlay/internal/converters"
	"github.com/lidarmap/cadoverlay/internal/densify"
	"github.com/lidarmap/cadoverlay/internal/geometry"
	"github.com/lidarmap/cadoverlay/internal/overlay"
	"github.com/lidarmap/cadoverlay/internal/zassign"
	"github.com/lidarmap/cadoverlay/tools"
)

// Overlayer runs one overlay conversion.
type Overlayer interface {
	Run(ctx context.Context, opts *overlay.Options) error
}

type Pipeline struct {
	extractor boundary.Extractor
	converter converters.CoordinateConverter
}

func NewPipeline(extractor boundary.Extractor, converter converters.CoordinateConverter) Overlayer {
	return &Pipeline{
		extractor: extractor,
		converter: converter,
	}
}

// defaultColor matches the conventional boundary rendering (red).
var defaultColor = overlay.RGB{R: 255, G: 0, B: 0}

// Run executes the pipeline stages in order, reporting coarse progress
// milestones. Any failure aborts the run; no partial output is kept.
func (p *Pipeline) Run(ctx context.Context, opts *overlay.Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	prog := &progressTracker{fn: opts.Progress}
	prog.report(0, "start")

	// Extracting
	tools.LogOutput("> reading boundary geometry...", filepath.Base(opts.BoundaryPath))
	prog.report(2, "reading boundary")
	polylines, err := p.extractor.Extract(opts.BoundaryPath, opts.Layers)
	if err != nil {
		return err
	}

	// Densifying
	tools.LogOutput("> densifying", len(polylines), "polylines")
	prog.report(8, "densifying boundary")
	var (
		xs, ys    []float64
		ids       []int
		layerTags []string
	)
	for polyID, pl := range polylines {
		pts, err := densify.Densify(pl.Vertices, opts.Step)
		if err != nil {
			return err
		}
		for _, v := range pts {
			xs = append(xs, v.X)
			ys = append(ys, v.Y)
			ids = append(ids, polyID)
			layerTags = append(layerTags, pl.Layer)
		}
	}

	// BoundsComputed, after an optional reprojection into the cloud's CRS
	if xs, ys, err = p.reproject(opts, xs, ys); err != nil {
		return err
	}
	box := geometry.ComputeBoundingBox(xs, ys)
	tools.LogOutput("> boundary bbox", box.String())

	// CloudLoaded
	prog.report(15, "loading cloud")
	points, err := p.loadCloud(ctx, opts, box)
	if err != nil {
		return err
	}
	tools.LogOutput("> retained", len(points), "cloud points")

	// ZAssigned
	prog.report(40, "assigning elevations")
	zvals, err := p.assignZ(ctx, opts, points, xs, ys, prog)
	if err != nil {
		return err
	}

	// ColorResolved
	resolver := opts.Color
	if resolver == nil {
		resolver = overlay.UniformColor{Color: defaultColor}
	}
	colors := make([]overlay.RGB, len(xs))
	for i, layer := range layerTags {
		colors[i] = resolver.Resolve(layer)
	}

	// Written
	if opts.OutputPath != "" {
		prog.report(48, "writing points")
		if err := p.writeText(opts, xs, ys, zvals, ids, colors); err != nil {
			return err
		}
		prog.report(52, "points written")
	}
	if opts.MergedOutputPath != "" {
		if err := p.writeMerged(ctx, opts, prog, xs, ys, zvals, colors); err != nil {
			return err
		}
	}

	prog.report(100, "done")
	return nil
}

func (p *Pipeline) reproject(opts *overlay.Options, xs, ys []float64) ([]float64, []float64, error) {
	srcCRS, err := p.converter.ParseCRS(opts.BoundaryCRS)
	if err != nil {
		return nil, nil, err
	}
	dstCRS, err := p.converter.ParseCRS(opts.CloudCRS)
	if err != nil {
		return nil, nil, err
	}
	if srcCRS != nil && dstCRS != nil && !srcCRS.Equal(dstCRS) {
		tools.LogOutput("> reprojecting boundary", srcCRS.Def(), "->", dstCRS.Def())
	}
	return p.converter.TransformXY(srcCRS, dstCRS, xs, ys)
}

func (p *Pipeline) loadCloud(ctx context.Context, opts *overlay.Options, box geometry.BoundingBox) ([]cloud.Point, error) {
	src, err := openCloud(opts.CloudPath)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return cloud.ReadBounded(ctx, src, box, opts.MaxCloudPoints)
}

func (p *Pipeline) assignZ(ctx context.Context, opts *overlay.Options, points []cloud.Point, xs, ys []float64, prog *progressTracker) ([]float64, error) {
	statistic := zassign.StatMedian
	offset := opts.ZOffset
	switch opts.ZMode {
	case overlay.ZModeSurface:
		offset = 0
	case overlay.ZModeSurfaceOffset, overlay.ZModeMedian:
	case overlay.ZModeP95:
		statistic = zassign.StatP95
	default:
		return nil, fmt.Errorf("unknown z-mode %q", string(opts.ZMode))
	}

	zs := make([]float64, len(points))
	for i, pt := range points {
		zs[i] = pt.Z
	}
	fallback, err := zassign.ConstantZ(zs, statistic, 0)
	if err != nil {
		return nil, err
	}

	engine, err := zassign.NewEngine(points, opts.Radius)
	if err != nil {
		return nil, err
	}
	return engine.Assign(ctx, xs, ys, zassign.Params{
		K:         opts.MaxNeighbors,
		Quantile:  opts.Quantile,
		FallbackZ: fallback,
		Offset:    offset,
	}, func(pct int) {
		prog.report(40+7*pct/100, "assigning elevations")
	})
}

func (p *Pipeline) writeText(opts *overlay.Options, xs, ys, zs []float64, ids []int, colors []overlay.RGB) error {
	switch opts.OutputKind {
	case overlay.OutputXYZID:
		return WriteXYZWithID(opts.OutputPath, xs, ys, zs, ids)
	case overlay.OutputXYZScalar:
		sf := make([]float64, len(xs))
		for i := range sf {
			if opts.ScalarMode == overlay.ScalarPolylineID {
				sf[i] = float64(ids[i])
			} else {
				sf[i] = opts.ScalarValue
			}
		}
		return WriteXYZWithScalar(opts.OutputPath, xs, ys, zs, sf)
	case overlay.OutputXYZRGB:
		return WriteXYZRGB(opts.OutputPath, xs, ys, zs, colors)
	case overlay.OutputXYZ, "":
		return WriteXYZ(opts.OutputPath, xs, ys, zs)
	}
	return fmt.Errorf("unknown output kind %q", string(opts.OutputKind))
}

// openCloud dispatches on the container extension.
func openCloud(path string) (cloud.Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".las":
		return las.Open(path)
	case ".laz":
		return nil, &overlay.UnsupportedFormatError{
			Path:   path,
			Reason: "LAZ compression not supported, convert to LAS first",
		}
	case ".pcd":
		return pcd.Open(path)
	}
	return nil, &overlay.UnsupportedFormatError{Path: path, Reason: "unknown cloud container extension"}
}

// progressTracker keeps reported percentages monotonically non-decreasing
// within a run.
type progressTracker struct {
	fn   overlay.ProgressFunc
	last int
}

func (p *progressTracker) report(percent int, label string) {
	if p.fn == nil {
		return
	}
	if percent < p.last {
		percent = p.last
	}
	p.last = percent
	p.fn(percent, label)
}
