// Package las reads and writes LAS point-cloud containers. Reading
// supports versions 1.0 through 1.4 with point formats 0-3 and 6-8;
// writing emits LAS 1.2. LAZ compression is not supported.
package las

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/lidarmap/cadoverlay/internal/cloud"
	"github.com/lidarmap/cadoverlay/internal/overlay"
)

const (
	signature      = "LASF"
	baseHeaderSize = 227
	maxHeaderSize  = 375
)

// minRecordLength maps a point data format to its mandatory record size.
var minRecordLength = map[uint8]int{
	0: 20, 1: 28, 2: 26, 3: 34,
	6: 30, 7: 36, 8: 38,
}

// colorOffset maps RGB-capable formats to the byte offset of the red
// channel within a point record.
var colorOffset = map[uint8]int{
	2: 20, 3: 28, 7: 30, 8: 30,
}

// Reader streams points from a LAS file in chunks.
type Reader struct {
	f         *os.File
	br        *bufio.Reader
	path      string
	hdr       cloud.Header
	format    uint8
	recordLen int
	colorOff  int
	remaining uint64
}

// Open reads and validates the file header and positions the reader at
// the first point record.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r := &Reader{f: f, path: path}
	if err := r.readHeader(); err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) readHeader() error {
	buf := make([]byte, maxHeaderSize)
	if _, err := io.ReadFull(r.f, buf[:baseHeaderSize]); err != nil {
		return r.unsupported("file shorter than a LAS header")
	}
	if string(buf[:4]) != signature {
		return r.unsupported("missing LASF signature")
	}
	versionMinor := buf[25]

	headerSize := int(binary.LittleEndian.Uint16(buf[94:96]))
	if headerSize > baseHeaderSize {
		if headerSize > maxHeaderSize {
			headerSize = maxHeaderSize
		}
		if _, err := io.ReadFull(r.f, buf[baseHeaderSize:headerSize]); err != nil {
			return r.unsupported("truncated LAS header")
		}
	}

	offsetToPoints := binary.LittleEndian.Uint32(buf[96:100])
	r.format = buf[104]
	if r.format&0x80 != 0 {
		return r.unsupported("LAZ compressed point records")
	}
	r.recordLen = int(binary.LittleEndian.Uint16(buf[105:107]))
	minLen, ok := minRecordLength[r.format]
	if !ok {
		return r.unsupported("unknown point data format")
	}
	if r.recordLen < minLen {
		return r.unsupported("point record length below format minimum")
	}

	count := uint64(binary.LittleEndian.Uint32(buf[107:111]))
	if count == 0 && versionMinor >= 4 && headerSize >= 255 {
		count = binary.LittleEndian.Uint64(buf[247:255])
	}
	r.remaining = count

	r.colorOff = 0
	hasColor := false
	if off, ok := colorOffset[r.format]; ok {
		r.colorOff = off
		hasColor = true
	}

	f64 := func(off int) float64 {
		return math.Float64frombits(binary.LittleEndian.Uint64(buf[off : off+8]))
	}
	r.hdr = cloud.Header{
		PointCount: count,
		HasColor:   hasColor,
		HasExtent:  true,
		MaxX:       f64(179), MinX: f64(187),
		MaxY: f64(195), MinY: f64(203),
		MaxZ: f64(211), MinZ: f64(219),
		ScaleX: f64(131), ScaleY: f64(139), ScaleZ: f64(147),
		OffsetX: f64(155), OffsetY: f64(163), OffsetZ: f64(171),
	}

	if _, err := r.f.Seek(int64(offsetToPoints), io.SeekStart); err != nil {
		return err
	}
	r.br = bufio.NewReaderSize(r.f, 1<<20)
	return nil
}

func (r *Reader) unsupported(reason string) error {
	return &overlay.UnsupportedFormatError{Path: r.path, Reason: reason}
}

func (r *Reader) Header() cloud.Header {
	return r.hdr
}

// ReadChunk decodes up to max point records. It returns io.EOF once all
// records declared by the header have been read.
func (r *Reader) ReadChunk(max int) (*cloud.Chunk, error) {
	if r.remaining == 0 {
		return nil, io.EOF
	}
	n := max
	if uint64(n) > r.remaining {
		n = int(r.remaining)
	}

	chunk := &cloud.Chunk{
		X: make([]float64, n),
		Y: make([]float64, n),
		Z: make([]float64, n),
	}
	if r.hdr.HasColor {
		chunk.R = make([]uint16, n)
		chunk.G = make([]uint16, n)
		chunk.B = make([]uint16, n)
	}

	rec := make([]byte, r.recordLen)
	for i := 0; i < n; i++ {
		if _, err := io.ReadFull(r.br, rec); err != nil {
			return nil, r.unsupported("point data shorter than declared count")
		}
		xi := int32(binary.LittleEndian.Uint32(rec[0:4]))
		yi := int32(binary.LittleEndian.Uint32(rec[4:8]))
		zi := int32(binary.LittleEndian.Uint32(rec[8:12]))
		chunk.X[i] = float64(xi)*r.hdr.ScaleX + r.hdr.OffsetX
		chunk.Y[i] = float64(yi)*r.hdr.ScaleY + r.hdr.OffsetY
		chunk.Z[i] = float64(zi)*r.hdr.ScaleZ + r.hdr.OffsetZ
		if r.hdr.HasColor {
			chunk.R[i] = binary.LittleEndian.Uint16(rec[r.colorOff : r.colorOff+2])
			chunk.G[i] = binary.LittleEndian.Uint16(rec[r.colorOff+2 : r.colorOff+4])
			chunk.B[i] = binary.LittleEndian.Uint16(rec[r.colorOff+4 : r.colorOff+6])
		}
	}
	r.remaining -= uint64(n)
	return chunk, nil
}

func (r *Reader) Close() error {
	return r.f.Close()
}
