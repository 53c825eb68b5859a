package boundary

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lidarmap/cadoverlay/internal/overlay"
)

// pairs joins DXF group code/value pairs one per line.
func pairs(tags ...string) string {
	return strings.Join(tags, "\n") + "\n"
}

func writeTempDXF(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "drawing.dxf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func sampleDrawing() string {
	return pairs(
		"0", "SECTION",
		"2", "HEADER",
		"9", "$ACADVER",
		"1", "AC1027",
		"0", "ENDSEC",
		"0", "SECTION",
		"2", "ENTITIES",
		// a LINE on layer ROAD
		"0", "LINE",
		"8", "ROAD",
		"10", "0.0",
		"20", "0.0",
		"30", "1.0",
		"11", "10.0",
		"21", "0.0",
		"31", "2.0",
		// an LWPOLYLINE with entity elevation on layer PARCEL
		"0", "LWPOLYLINE",
		"8", "PARCEL",
		"90", "3",
		"38", "12.5",
		"10", "0.0",
		"20", "0.0",
		"10", "5.0",
		"20", "0.0",
		"10", "5.0",
		"20", "5.0",
		// a heavyweight POLYLINE with VERTEX children on layer PIPE
		"0", "POLYLINE",
		"8", "PIPE",
		"66", "1",
		"0", "VERTEX",
		"8", "PIPE",
		"10", "1.0",
		"20", "1.0",
		"30", "3.0",
		"0", "VERTEX",
		"8", "PIPE",
		"10", "2.0",
		"20", "2.0",
		"30", "4.0",
		"0", "SEQEND",
		// an unsupported entity that must be skipped
		"0", "CIRCLE",
		"8", "ROAD",
		"10", "0.0",
		"20", "0.0",
		"40", "5.0",
		"0", "ENDSEC",
		"0", "EOF",
	)
}

func TestExtractAllEntityKinds(t *testing.T) {
	path := writeTempDXF(t, sampleDrawing())

	polys, err := NewDXFExtractor().Extract(path, nil)
	require.NoError(t, err)
	require.Len(t, polys, 3)

	line := polys[0]
	assert.Equal(t, "ROAD", line.Layer)
	require.Len(t, line.Vertices, 2)
	assert.Equal(t, 0.0, line.Vertices[0].X)
	assert.Equal(t, 1.0, line.Vertices[0].Z)
	assert.True(t, line.Vertices[0].HasZ)
	assert.Equal(t, 10.0, line.Vertices[1].X)

	lwp := polys[1]
	assert.Equal(t, "PARCEL", lwp.Layer)
	require.Len(t, lwp.Vertices, 3)
	assert.Equal(t, 5.0, lwp.Vertices[2].Y)
	// entity elevation applies to every vertex
	for _, v := range lwp.Vertices {
		assert.True(t, v.HasZ)
		assert.Equal(t, 12.5, v.Z)
	}

	pipe := polys[2]
	assert.Equal(t, "PIPE", pipe.Layer)
	require.Len(t, pipe.Vertices, 2)
	assert.Equal(t, 3.0, pipe.Vertices[0].Z)
	assert.Equal(t, 4.0, pipe.Vertices[1].Z)
}

func TestExtractLWPolylineWithoutElevation(t *testing.T) {
	path := writeTempDXF(t, pairs(
		"0", "SECTION",
		"2", "ENTITIES",
		"0", "LWPOLYLINE",
		"8", "A",
		"10", "0",
		"20", "0",
		"10", "1",
		"20", "1",
		"0", "ENDSEC",
		"0", "EOF",
	))

	polys, err := NewDXFExtractor().Extract(path, nil)
	require.NoError(t, err)
	require.Len(t, polys, 1)
	for _, v := range polys[0].Vertices {
		assert.False(t, v.HasZ)
	}
}

func TestExtractFiltersByLayer(t *testing.T) {
	path := writeTempDXF(t, sampleDrawing())

	polys, err := NewDXFExtractor().Extract(path, []string{"PIPE"})
	require.NoError(t, err)
	require.Len(t, polys, 1)
	assert.Equal(t, "PIPE", polys[0].Layer)
}

func TestExtractUnknownLayerReportsNoGeometry(t *testing.T) {
	path := writeTempDXF(t, sampleDrawing())

	_, err := NewDXFExtractor().Extract(path, []string{"NOPE"})
	var gerr *overlay.NoGeometryError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, path, gerr.Path)
	assert.Equal(t, []string{"NOPE"}, gerr.Layers)
}

func TestExtractEmptyDrawingReportsNoGeometry(t *testing.T) {
	path := writeTempDXF(t, pairs(
		"0", "SECTION",
		"2", "ENTITIES",
		"0", "ENDSEC",
		"0", "EOF",
	))

	_, err := NewDXFExtractor().Extract(path, nil)
	var gerr *overlay.NoGeometryError
	assert.ErrorAs(t, err, &gerr)
}

func TestExtractSingleVertexPolylineIsDropped(t *testing.T) {
	path := writeTempDXF(t, pairs(
		"0", "SECTION",
		"2", "ENTITIES",
		"0", "LWPOLYLINE",
		"8", "A",
		"10", "0",
		"20", "0",
		"0", "LINE",
		"8", "B",
		"10", "0",
		"20", "0",
		"11", "1",
		"21", "1",
		"0", "ENDSEC",
		"0", "EOF",
	))

	polys, err := NewDXFExtractor().Extract(path, nil)
	require.NoError(t, err)
	require.Len(t, polys, 1)
	assert.Equal(t, "B", polys[0].Layer)
}

func TestListLayers(t *testing.T) {
	path := writeTempDXF(t, sampleDrawing())

	layers, err := NewDXFExtractor().ListLayers(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"PARCEL", "PIPE", "ROAD"}, layers)
}

func TestExtractMissingFile(t *testing.T) {
	_, err := NewDXFExtractor().Extract(filepath.Join(t.TempDir(), "missing.dxf"), nil)
	assert.Error(t, err)
}

func TestExtractMalformedGroupCode(t *testing.T) {
	path := writeTempDXF(t, pairs(
		"0", "SECTION",
		"2", "ENTITIES",
		"not-a-number", "LINE",
	))

	_, err := NewDXFExtractor().Extract(path, nil)
	assert.Error(t, err)
}
