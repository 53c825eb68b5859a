package cloud

import (
	"context"
	"io"
	"math/rand"

	"github.com/lidarmap/cadoverlay/internal/geometry"
	"github.com/lidarmap/cadoverlay/internal/overlay"
)

// ChunkSize is the number of points pulled from a source per read.
const ChunkSize = 2_000_000

// subsampleSeed keeps subsampling reproducible across runs with identical
// inputs.
const subsampleSeed = 0

// ReadBounded streams the source and retains only points whose planar
// coordinates fall inside box, bounds inclusive. When maxPoints > 0,
// reading stops pulling chunks once the running total meets the cap and
// the retained set is subsampled down to exactly
// min(totalInBox, maxPoints) with a fixed seed.
//
// Returns UnalignedDataError when no point falls inside box, carrying both
// the query box and the source's own extent.
func ReadBounded(ctx context.Context, src Source, box geometry.BoundingBox, maxPoints int) ([]Point, error) {
	hdr := src.Header()

	var points []Point
	scanned := geometry.EmptyBoundingBox()
	for {
		if err := ctx.Err(); err != nil {
			return nil, overlay.ErrCancelled
		}
		chunk, err := src.ReadChunk(ChunkSize)
		if chunk != nil {
			for i := 0; i < chunk.Len(); i++ {
				x, y := chunk.X[i], chunk.Y[i]
				scanned.Extend(x, y)
				if box.Contains(x, y) {
					points = append(points, Point{X: x, Y: y, Z: chunk.Z[i]})
				}
			}
		}
		if err != nil {
			if err != io.EOF {
				return nil, err
			}
			break
		}
		if maxPoints > 0 && len(points) >= maxPoints {
			break
		}
	}

	if len(points) == 0 {
		cloudBox := scanned
		if hdr.HasExtent {
			cloudBox = geometry.NewBoundingBox(hdr.MinX, hdr.MinY, hdr.MaxX, hdr.MaxY)
		}
		return nil, &overlay.UnalignedDataError{QueryBox: box, CloudBox: cloudBox}
	}

	if maxPoints > 0 && len(points) > maxPoints {
		points = subsample(points, maxPoints)
	}
	return points, nil
}

// subsample reduces points to exactly n elements via a partial
// Fisher-Yates shuffle with a fixed seed.
func subsample(points []Point, n int) []Point {
	rng := rand.New(rand.NewSource(subsampleSeed))
	for i := 0; i < n; i++ {
		j := i + rng.Intn(len(points)-i)
		points[i], points[j] = points[j], points[i]
	}
	return points[:n]
}
