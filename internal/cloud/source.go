// Package cloud defines the streaming contract point-cloud containers are
// read through, and the memory-bounded ingestion built on top of it.
package cloud

// Header describes a point-cloud source before its points are read.
type Header struct {
	PointCount uint64
	HasColor   bool

	// Extent of the whole source as declared by the container, valid
	// only when HasExtent is set. Containers without a declared extent
	// (e.g. PCD) may fill it while decoding.
	HasExtent                          bool
	MinX, MinY, MinZ, MaxX, MaxY, MaxZ float64

	// Quantization of the source container, zero when the container
	// stores raw floating point coordinates.
	ScaleX, ScaleY, ScaleZ    float64
	OffsetX, OffsetY, OffsetZ float64
}

// Chunk is one batch of decoded points as parallel arrays. Color slices
// are nil when the source carries no color channels; when present they
// hold 16 bit channel values, the container's native color depth.
type Chunk struct {
	X, Y, Z []float64
	R, G, B []uint16
}

func (c *Chunk) Len() int {
	return len(c.X)
}

// Source is a chunked point-cloud reader. ReadChunk returns io.EOF once
// the source is exhausted.
type Source interface {
	Header() Header
	ReadChunk(max int) (*Chunk, error)
	Close() error
}

// Point is one retained cloud point. The retained subset lives only for
// the duration of a run.
type Point struct {
	X float64
	Y float64
	Z float64
}
