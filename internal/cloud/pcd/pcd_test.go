package pcd

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lzf "github.com/zhuyie/golzf"

	"github.com/lidarmap/cadoverlay/internal/overlay"
)

func writeTempPCD(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cloud.pcd")
	require.NoError(t, os.WriteFile(path, content, 0644))
	return path
}

func header(fields, sizes, types, counts string, points int, data string) string {
	return "# .PCD v0.7 - Point Cloud Data file format\n" +
		"VERSION 0.7\n" +
		"FIELDS " + fields + "\n" +
		"SIZE " + sizes + "\n" +
		"TYPE " + types + "\n" +
		"COUNT " + counts + "\n" +
		"WIDTH " + strconv.Itoa(points) + "\n" +
		"HEIGHT 1\n" +
		"VIEWPOINT 0 0 0 1 0 0 0\n" +
		"POINTS " + strconv.Itoa(points) + "\n" +
		"DATA " + data + "\n"
}

func TestOpenASCIIWithPackedColor(t *testing.T) {
	content := header("x y z rgb", "4 4 4 4", "F F F U", "1 1 1 1", 2, "ascii") +
		"1.0 2.0 3.0 16711680\n" + // 0x00FF0000, pure red
		"4.0 5.0 6.0 255\n" // 0x000000FF, pure blue
	path := writeTempPCD(t, []byte(content))

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	hdr := r.Header()
	assert.Equal(t, uint64(2), hdr.PointCount)
	assert.True(t, hdr.HasColor)
	assert.True(t, hdr.HasExtent)
	assert.Equal(t, 1.0, hdr.MinX)
	assert.Equal(t, 4.0, hdr.MaxX)
	assert.Equal(t, 6.0, hdr.MaxZ)

	chunk, err := r.ReadChunk(10)
	require.NoError(t, err)
	require.Equal(t, 2, chunk.Len())
	assert.Equal(t, 1.0, chunk.X[0])
	assert.Equal(t, uint16(255*257), chunk.R[0])
	assert.Equal(t, uint16(0), chunk.B[0])
	assert.Equal(t, uint16(255*257), chunk.B[1])

	_, err = r.ReadChunk(10)
	assert.Equal(t, io.EOF, err)
}

func TestOpenBinary(t *testing.T) {
	var body bytes.Buffer
	coords := [][3]float32{{1, 2, 3}, {-4, 5, -6}}
	for _, c := range coords {
		for _, v := range c {
			require.NoError(t, binary.Write(&body, binary.LittleEndian, v))
		}
	}
	content := append([]byte(header("x y z", "4 4 4", "F F F", "1 1 1", 2, "binary")), body.Bytes()...)
	path := writeTempPCD(t, content)

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	assert.False(t, r.Header().HasColor)
	chunk, err := r.ReadChunk(10)
	require.NoError(t, err)
	require.Equal(t, 2, chunk.Len())
	assert.Equal(t, -4.0, chunk.X[1])
	assert.Equal(t, -6.0, chunk.Z[1])
	assert.Nil(t, chunk.R)
}

func TestOpenBinaryCompressed(t *testing.T) {
	// columns, not records: all x, then all y, then all z
	var cols bytes.Buffer
	for _, column := range [][]float32{{1, 4}, {2, 5}, {3, 6}} {
		for _, v := range column {
			require.NoError(t, binary.Write(&cols, binary.LittleEndian, v))
		}
	}
	raw := cols.Bytes()
	compressed := make([]byte, len(raw)+100)
	n, err := lzf.Compress(raw, compressed)
	require.NoError(t, err)

	var body bytes.Buffer
	require.NoError(t, binary.Write(&body, binary.LittleEndian, int32(n)))
	require.NoError(t, binary.Write(&body, binary.LittleEndian, int32(len(raw))))
	body.Write(compressed[:n])

	content := append([]byte(header("x y z", "4 4 4", "F F F", "1 1 1", 2, "binary_compressed")), body.Bytes()...)
	path := writeTempPCD(t, content)

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	chunk, err := r.ReadChunk(10)
	require.NoError(t, err)
	require.Equal(t, 2, chunk.Len())
	assert.Equal(t, []float64{1, 4}, chunk.X)
	assert.Equal(t, []float64{2, 5}, chunk.Y)
	assert.Equal(t, []float64{3, 6}, chunk.Z)
}

func TestOpenDoubleCoordinates(t *testing.T) {
	var body bytes.Buffer
	for _, v := range []float64{1.5, 2.5, 3.5} {
		require.NoError(t, binary.Write(&body, binary.LittleEndian, v))
	}
	content := append([]byte(header("x y z", "8 8 8", "F F F", "1 1 1", 1, "binary")), body.Bytes()...)
	path := writeTempPCD(t, content)

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	chunk, err := r.ReadChunk(1)
	require.NoError(t, err)
	assert.Equal(t, 1.5, chunk.X[0])
	assert.Equal(t, 3.5, chunk.Z[0])
}

func TestOpenFloatPackedColor(t *testing.T) {
	// PCL traditionally stores rgb as the packed integer reinterpreted
	// as a float32
	packed := uint32(0x00112233)
	var body bytes.Buffer
	for _, v := range []float32{1, 2, 3, math.Float32frombits(packed)} {
		require.NoError(t, binary.Write(&body, binary.LittleEndian, v))
	}
	content := append([]byte(header("x y z rgb", "4 4 4 4", "F F F F", "1 1 1 1", 1, "binary")), body.Bytes()...)
	path := writeTempPCD(t, content)

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	chunk, err := r.ReadChunk(1)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x11*257), chunk.R[0])
	assert.Equal(t, uint16(0x22*257), chunk.G[0])
	assert.Equal(t, uint16(0x33*257), chunk.B[0])
}

func TestOpenRejectsUnknownEncoding(t *testing.T) {
	content := header("x y z", "4 4 4", "F F F", "1 1 1", 0, "base64")
	path := writeTempPCD(t, []byte(content))

	_, err := Open(path)
	var uerr *overlay.UnsupportedFormatError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, path, uerr.Path)
}

func TestOpenRejectsTruncatedBinaryBody(t *testing.T) {
	content := header("x y z", "4 4 4", "F F F", "1 1 1", 5, "binary")
	path := writeTempPCD(t, append([]byte(content), 1, 2, 3))

	_, err := Open(path)
	var uerr *overlay.UnsupportedFormatError
	assert.ErrorAs(t, err, &uerr)
}
