package pkg

import (
	"context"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/lidarmap/cadoverlay/internal/cloud"
	"github.com/lidarmap/cadoverlay/internal/cloud/las"
	"github.com/lidarmap/cadoverlay/internal/overlay"
	"github.com/lidarmap/cadoverlay/tools"
)

// writeMerged reads the entire original cloud (not bounding-box limited),
// appends the colored boundary points and writes one merged LAS file. The
// output is always color-capable; original points lacking color are
// written black.
func (p *Pipeline) writeMerged(ctx context.Context, opts *overlay.Options, prog *progressTracker, xs, ys, zs []float64, colors []overlay.RGB) error {
	if len(colors) != len(xs) {
		return &overlay.DimensionMismatchError{What: "colors", Want: len(xs), Got: len(colors)}
	}

	src, err := openCloud(opts.CloudPath)
	if err != nil {
		return err
	}
	defer src.Close()
	hdr := src.Header()

	tools.LogOutput("> reading full cloud for merge...", filepath.Base(opts.CloudPath))
	prog.report(55, "reading cloud")

	var base []cloud.Chunk
	var baseCount uint64
	for {
		if err := ctx.Err(); err != nil {
			return overlay.ErrCancelled
		}
		chunk, err := src.ReadChunk(cloud.ChunkSize)
		if chunk != nil && chunk.Len() > 0 {
			base = append(base, *chunk)
			baseCount += uint64(chunk.Len())
			if hdr.PointCount > 0 {
				pct := 55 + int(20*math.Min(1, float64(baseCount)/float64(hdr.PointCount)))
				prog.report(pct, "reading cloud")
			}
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
	}

	wopts := las.WriterOptions{
		Format:  2,
		ScaleX:  hdr.ScaleX,
		ScaleY:  hdr.ScaleY,
		ScaleZ:  hdr.ScaleZ,
		OffsetX: hdr.OffsetX,
		OffsetY: hdr.OffsetY,
		OffsetZ: hdr.OffsetZ,
	}
	if wopts.ScaleX == 0 {
		// source without native quantization, derive one from the data
		minX, minY, minZ := mergedMinima(base, xs, ys, zs)
		wopts.OffsetX, wopts.OffsetY, wopts.OffsetZ = las.DeriveOffsets(minX, minY, minZ)
	}

	if err := tools.CreateDirectoryIfDoesNotExist(filepath.Dir(opts.MergedOutputPath)); err != nil {
		return err
	}
	w, err := las.Create(opts.MergedOutputPath, wopts)
	if err != nil {
		return err
	}
	abort := func(err error) error {
		w.Close()
		os.Remove(opts.MergedOutputPath)
		return err
	}

	for _, chunk := range base {
		if err := ctx.Err(); err != nil {
			return abort(overlay.ErrCancelled)
		}
		for i := 0; i < chunk.Len(); i++ {
			var r, g, b uint16
			if chunk.R != nil {
				r, g, b = chunk.R[i], chunk.G[i], chunk.B[i]
			}
			if err := w.WritePoint(chunk.X[i], chunk.Y[i], chunk.Z[i], r, g, b); err != nil {
				return abort(err)
			}
		}
	}

	prog.report(95, "writing merged cloud")
	for i := range xs {
		c := colors[i]
		// widen 8 bit channels to the 16 bit LAS color depth
		if err := w.WritePoint(xs[i], ys[i], zs[i], uint16(c.R)*257, uint16(c.G)*257, uint16(c.B)*257); err != nil {
			return abort(err)
		}
	}
	if err := w.Close(); err != nil {
		os.Remove(opts.MergedOutputPath)
		return err
	}
	tools.LogOutput("> merged cloud written:", baseCount, "+", len(xs), "points")
	return nil
}

func mergedMinima(base []cloud.Chunk, xs, ys, zs []float64) (float64, float64, float64) {
	minX, minY, minZ := math.Inf(1), math.Inf(1), math.Inf(1)
	for _, chunk := range base {
		for i := 0; i < chunk.Len(); i++ {
			minX = math.Min(minX, chunk.X[i])
			minY = math.Min(minY, chunk.Y[i])
			minZ = math.Min(minZ, chunk.Z[i])
		}
	}
	for i := range xs {
		minX = math.Min(minX, xs[i])
		minY = math.Min(minY, ys[i])
		minZ = math.Min(minZ, zs[i])
	}
	return minX, minY, minZ
}
