// Package pcd reads PCD point-cloud containers with x, y, z and optional
// packed rgb fields, in ascii, binary and binary_compressed encodings.
package pcd

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	lzf "github.com/zhuyie/golzf"

	"github.com/lidarmap/cadoverlay/internal/cloud"
	"github.com/lidarmap/cadoverlay/internal/overlay"
)

type format int

const (
	formatASCII format = iota
	formatBinary
	formatBinaryCompressed
)

type fieldInfo struct {
	name  string
	size  int
	typ   string
	count int
}

// Reader holds a fully decoded PCD cloud and serves it in chunks. PCD
// files carry no extent in the header, so the extent is computed while
// decoding.
type Reader struct {
	hdr     cloud.Header
	x, y, z []float64
	r, g, b []uint16
	pos     int
}

// Open decodes the whole file. PCD bodies are not chunk-addressable
// (binary_compressed stores whole columns), so decoding is eager and
// chunking happens over the decoded arrays.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r, err := parse(f)
	if err != nil {
		if ufe, ok := err.(*overlay.UnsupportedFormatError); ok {
			ufe.Path = path
			return nil, ufe
		}
		return nil, err
	}
	return r, nil
}

func parse(src io.Reader) (*Reader, error) {
	rb := bufio.NewReader(src)

	var (
		fields []fieldInfo
		names  []string
		sizes  []int
		types  []string
		counts []int
		points int
		fmtTyp format
	)

L_HEADER:
	for {
		line, err := rb.ReadString('\n')
		if err != nil {
			return nil, unsupported("truncated PCD header")
		}
		args := strings.Fields(line)
		if len(args) == 0 || strings.HasPrefix(args[0], "#") {
			continue
		}
		if len(args) < 2 {
			return nil, unsupported("header field must have a value")
		}
		switch args[0] {
		case "FIELDS":
			names = args[1:]
		case "SIZE":
			sizes = make([]int, len(args)-1)
			for i, s := range args[1:] {
				if sizes[i], err = strconv.Atoi(s); err != nil {
					return nil, unsupported("bad SIZE entry")
				}
			}
		case "TYPE":
			types = args[1:]
		case "COUNT":
			counts = make([]int, len(args)-1)
			for i, s := range args[1:] {
				if counts[i], err = strconv.Atoi(s); err != nil {
					return nil, unsupported("bad COUNT entry")
				}
			}
		case "POINTS":
			if points, err = strconv.Atoi(args[1]); err != nil {
				return nil, unsupported("bad POINTS entry")
			}
		case "DATA":
			switch args[1] {
			case "ascii":
				fmtTyp = formatASCII
			case "binary":
				fmtTyp = formatBinary
			case "binary_compressed":
				fmtTyp = formatBinaryCompressed
			default:
				return nil, unsupported("unknown DATA encoding " + args[1])
			}
			break L_HEADER
		}
	}

	if len(names) != len(sizes) || len(names) != len(types) {
		return nil, unsupported("FIELDS/SIZE/TYPE length mismatch")
	}
	if counts == nil {
		counts = make([]int, len(names))
		for i := range counts {
			counts[i] = 1
		}
	}
	for i, name := range names {
		fields = append(fields, fieldInfo{name: name, size: sizes[i], typ: types[i], count: counts[i]})
	}

	r := &Reader{
		x: make([]float64, points),
		y: make([]float64, points),
		z: make([]float64, points),
	}
	hasColor := false
	for _, f := range fields {
		if f.name == "rgb" || f.name == "rgba" {
			hasColor = true
		}
	}
	if hasColor {
		r.r = make([]uint16, points)
		r.g = make([]uint16, points)
		r.b = make([]uint16, points)
	}

	var err error
	switch fmtTyp {
	case formatASCII:
		err = r.decodeASCII(rb, fields, points)
	case formatBinary:
		err = r.decodeBinary(rb, fields, points)
	case formatBinaryCompressed:
		err = r.decodeBinaryCompressed(rb, fields, points)
	}
	if err != nil {
		return nil, err
	}

	if err := r.finishHeader(points, hasColor); err != nil {
		return nil, err
	}
	return r, nil
}

func unsupported(reason string) error {
	return &overlay.UnsupportedFormatError{Reason: reason}
}

func (r *Reader) finishHeader(points int, hasColor bool) error {
	r.hdr = cloud.Header{
		PointCount: uint64(points),
		HasColor:   hasColor,
	}
	if points > 0 {
		r.hdr.HasExtent = true
		r.hdr.MinX, r.hdr.MaxX = minMax(r.x)
		r.hdr.MinY, r.hdr.MaxY = minMax(r.y)
		r.hdr.MinZ, r.hdr.MaxZ = minMax(r.z)
	}
	return nil
}

func minMax(vs []float64) (float64, float64) {
	lo, hi := vs[0], vs[0]
	for _, v := range vs {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

func (r *Reader) setColor(i int, packed uint32) {
	// packed 0x00RRGGBB, widened to the 16 bit channel depth
	r.r[i] = uint16((packed>>16)&0xFF) * 257
	r.g[i] = uint16((packed>>8)&0xFF) * 257
	r.b[i] = uint16(packed&0xFF) * 257
}

func (r *Reader) decodeASCII(rb *bufio.Reader, fields []fieldInfo, points int) error {
	for i := 0; i < points; i++ {
		line, err := rb.ReadString('\n')
		if err != nil && err != io.EOF {
			return unsupported("truncated ascii body")
		}
		tokens := strings.Fields(line)
		pos := 0
		for _, f := range fields {
			if pos+f.count > len(tokens) {
				return unsupported("short ascii record")
			}
			tok := tokens[pos]
			pos += f.count
			switch f.name {
			case "x", "y", "z":
				v, err := strconv.ParseFloat(tok, 64)
				if err != nil {
					return unsupported("bad ascii coordinate")
				}
				r.setCoord(f.name, i, v)
			case "rgb", "rgba":
				var packed uint32
				if f.typ == "U" || f.typ == "I" {
					u, err := strconv.ParseUint(tok, 10, 32)
					if err != nil {
						return unsupported("bad ascii color")
					}
					packed = uint32(u)
				} else {
					v, err := strconv.ParseFloat(tok, 32)
					if err != nil {
						return unsupported("bad ascii color")
					}
					packed = math.Float32bits(float32(v))
				}
				r.setColor(i, packed)
			}
		}
	}
	return nil
}

func (r *Reader) setCoord(name string, i int, v float64) {
	switch name {
	case "x":
		r.x[i] = v
	case "y":
		r.y[i] = v
	case "z":
		r.z[i] = v
	}
}

func (r *Reader) decodeBinary(rb *bufio.Reader, fields []fieldInfo, points int) error {
	stride := 0
	offsets := make([]int, len(fields))
	for i, f := range fields {
		offsets[i] = stride
		stride += f.size * f.count
	}
	rec := make([]byte, stride)
	for i := 0; i < points; i++ {
		if _, err := io.ReadFull(rb, rec); err != nil {
			return unsupported("truncated binary body")
		}
		for fi, f := range fields {
			if err := r.decodeField(f, rec[offsets[fi]:], i); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Reader) decodeBinaryCompressed(rb *bufio.Reader, fields []fieldInfo, points int) error {
	var nCompressed, nUncompressed int32
	if err := binary.Read(rb, binary.LittleEndian, &nCompressed); err != nil {
		return unsupported("truncated compressed body")
	}
	if err := binary.Read(rb, binary.LittleEndian, &nUncompressed); err != nil {
		return unsupported("truncated compressed body")
	}
	body, err := io.ReadAll(rb)
	if err != nil || len(body) < int(nCompressed) {
		return unsupported("truncated compressed body")
	}
	dec := make([]byte, nUncompressed)
	n, err := lzf.Decompress(body[:nCompressed], dec)
	if err != nil {
		return unsupported("lzf decompression failed")
	}
	if n != int(nUncompressed) {
		return unsupported("wrong uncompressed size")
	}

	// binary_compressed stores whole columns: all x, then all y, ...
	off := 0
	for _, f := range fields {
		width := f.size * f.count
		for i := 0; i < points; i++ {
			if off+width > len(dec) {
				return unsupported("short compressed column")
			}
			if err := r.decodeField(f, dec[off:], i); err != nil {
				return err
			}
			off += width
		}
	}
	return nil
}

func (r *Reader) decodeField(f fieldInfo, b []byte, i int) error {
	switch f.name {
	case "x", "y", "z":
		switch f.size {
		case 4:
			r.setCoord(f.name, i, float64(math.Float32frombits(binary.LittleEndian.Uint32(b))))
		case 8:
			r.setCoord(f.name, i, math.Float64frombits(binary.LittleEndian.Uint64(b)))
		default:
			return unsupported("coordinate field must be 4 or 8 bytes")
		}
	case "rgb", "rgba":
		if f.size != 4 {
			return unsupported("color field must be 4 bytes")
		}
		r.setColor(i, binary.LittleEndian.Uint32(b))
	}
	return nil
}

func (r *Reader) Header() cloud.Header {
	return r.hdr
}

// ReadChunk serves up to max points from the decoded arrays, io.EOF once
// exhausted.
func (r *Reader) ReadChunk(max int) (*cloud.Chunk, error) {
	if r.pos >= len(r.x) {
		return nil, io.EOF
	}
	end := r.pos + max
	if end > len(r.x) {
		end = len(r.x)
	}
	chunk := &cloud.Chunk{
		X: r.x[r.pos:end],
		Y: r.y[r.pos:end],
		Z: r.z[r.pos:end],
	}
	if r.hdr.HasColor {
		chunk.R = r.r[r.pos:end]
		chunk.G = r.g[r.pos:end]
		chunk.B = r.b[r.pos:end]
	}
	r.pos = end
	return chunk, nil
}

func (r *Reader) Close() error {
	return nil
}
