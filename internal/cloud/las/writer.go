package las

import (
	"bufio"
	"encoding/binary"
	"math"
	"os"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultScale is the coordinate quantization used when the source
// container does not dictate one. One millimeter keeps survey-grade
// precision within int32 range for local reference systems.
const DefaultScale = 0.001

// WriterOptions fixes the output quantization and point layout before the
// first point is written.
type WriterOptions struct {
	Format                    uint8 // 0 = XYZ, 2 = XYZ+RGB
	ScaleX, ScaleY, ScaleZ    float64
	OffsetX, OffsetY, OffsetZ float64
}

// DeriveOffsets quantizes the given minima down to whole units, giving
// header offsets that keep scaled coordinates small and exactly
// representable.
func DeriveOffsets(minX, minY, minZ float64) (float64, float64, float64) {
	floor := func(v float64) float64 {
		f, _ := decimal.NewFromFloat(v).Floor().Float64()
		return f
	}
	return floor(minX), floor(minY), floor(minZ)
}

// Writer streams point records to a LAS 1.2 file. The header is finalized
// on Close once the point count and extents are known.
type Writer struct {
	f     *os.File
	bw    *bufio.Writer
	opts  WriterOptions
	count uint32

	minX, minY, minZ float64
	maxX, maxY, maxZ float64
}

// Create opens the output file and reserves space for the header.
func Create(path string, opts WriterOptions) (*Writer, error) {
	if opts.Format != 0 && opts.Format != 2 {
		opts.Format = 2
	}
	if opts.ScaleX == 0 {
		opts.ScaleX = DefaultScale
	}
	if opts.ScaleY == 0 {
		opts.ScaleY = DefaultScale
	}
	if opts.ScaleZ == 0 {
		opts.ScaleZ = DefaultScale
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := &Writer{
		f:    f,
		bw:   bufio.NewWriterSize(f, 1<<20),
		opts: opts,
		minX: math.Inf(1), minY: math.Inf(1), minZ: math.Inf(1),
		maxX: math.Inf(-1), maxY: math.Inf(-1), maxZ: math.Inf(-1),
	}
	if _, err := w.bw.Write(make([]byte, baseHeaderSize)); err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

// WritePoint appends one record. Color channels are 16 bit and ignored
// for format 0.
func (w *Writer) WritePoint(x, y, z float64, r, g, b uint16) error {
	rec := make([]byte, minRecordLength[w.opts.Format])
	binary.LittleEndian.PutUint32(rec[0:4], uint32(w.scale(x, w.opts.ScaleX, w.opts.OffsetX)))
	binary.LittleEndian.PutUint32(rec[4:8], uint32(w.scale(y, w.opts.ScaleY, w.opts.OffsetY)))
	binary.LittleEndian.PutUint32(rec[8:12], uint32(w.scale(z, w.opts.ScaleZ, w.opts.OffsetZ)))
	rec[14] = 0x09 // single return
	if w.opts.Format == 2 {
		binary.LittleEndian.PutUint16(rec[20:22], r)
		binary.LittleEndian.PutUint16(rec[22:24], g)
		binary.LittleEndian.PutUint16(rec[24:26], b)
	}
	if _, err := w.bw.Write(rec); err != nil {
		return err
	}

	w.count++
	w.minX, w.maxX = math.Min(w.minX, x), math.Max(w.maxX, x)
	w.minY, w.maxY = math.Min(w.minY, y), math.Max(w.maxY, y)
	w.minZ, w.maxZ = math.Min(w.minZ, z), math.Max(w.maxZ, z)
	return nil
}

func (w *Writer) scale(v, scale, offset float64) int32 {
	return int32(math.Round((v - offset) / scale))
}

// Close flushes the point records, rewrites the header with the final
// count and extents, and closes the file.
func (w *Writer) Close() error {
	if err := w.bw.Flush(); err != nil {
		w.f.Close()
		return err
	}
	if err := w.writeHeader(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}

func (w *Writer) writeHeader() error {
	hdr := make([]byte, baseHeaderSize)
	copy(hdr[0:4], signature)
	hdr[24] = 1 // version 1.2
	hdr[25] = 2
	copy(hdr[26:], "cadoverlay")
	copy(hdr[58:], "cadoverlay")
	now := time.Now().UTC()
	binary.LittleEndian.PutUint16(hdr[90:92], uint16(now.YearDay()))
	binary.LittleEndian.PutUint16(hdr[92:94], uint16(now.Year()))
	binary.LittleEndian.PutUint16(hdr[94:96], baseHeaderSize)
	binary.LittleEndian.PutUint32(hdr[96:100], baseHeaderSize)
	hdr[104] = w.opts.Format
	binary.LittleEndian.PutUint16(hdr[105:107], uint16(minRecordLength[w.opts.Format]))
	binary.LittleEndian.PutUint32(hdr[107:111], w.count)
	binary.LittleEndian.PutUint32(hdr[111:115], w.count) // points by return, first return

	putF64 := func(off int, v float64) {
		binary.LittleEndian.PutUint64(hdr[off:off+8], math.Float64bits(v))
	}
	putF64(131, w.opts.ScaleX)
	putF64(139, w.opts.ScaleY)
	putF64(147, w.opts.ScaleZ)
	putF64(155, w.opts.OffsetX)
	putF64(163, w.opts.OffsetY)
	putF64(171, w.opts.OffsetZ)
	minX, minY, minZ, maxX, maxY, maxZ := w.minX, w.minY, w.minZ, w.maxX, w.maxY, w.maxZ
	if w.count == 0 {
		minX, minY, minZ, maxX, maxY, maxZ = 0, 0, 0, 0, 0, 0
	}
	putF64(179, maxX)
	putF64(187, minX)
	putF64(195, maxY)
	putF64(203, minY)
	putF64(211, maxZ)
	putF64(219, minZ)

	_, err := w.f.WriteAt(hdr, 0)
	return err
}
