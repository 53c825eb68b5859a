package boundary

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/lidarmap/cadoverlay/internal/geometry"
	"github.com/lidarmap/cadoverlay/internal/overlay"
)

// DXFExtractor reads LWPOLYLINE, POLYLINE and LINE entities from the
// ENTITIES section of an ASCII DXF drawing. Arcs, splines and other
// entity types are ignored.
type DXFExtractor struct{}

func NewDXFExtractor() Extractor {
	return &DXFExtractor{}
}

func (e *DXFExtractor) Extract(path string, layers []string) ([]TaggedPolyline, error) {
	all, err := e.parseFile(path)
	if err != nil {
		return nil, err
	}

	allow := make(map[string]bool, len(layers))
	for _, l := range layers {
		if l != "" {
			allow[l] = true
		}
	}

	out := all
	if len(allow) > 0 {
		out = out[:0]
		for _, pl := range all {
			if allow[pl.Layer] {
				out = append(out, pl)
			}
		}
	}
	if len(out) == 0 {
		return nil, &overlay.NoGeometryError{Path: path, Layers: layers}
	}
	return out, nil
}

func (e *DXFExtractor) ListLayers(path string) ([]string, error) {
	all, err := e.parseFile(path)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	for _, pl := range all {
		if pl.Layer != "" {
			seen[pl.Layer] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (e *DXFExtractor) parseFile(path string) ([]TaggedPolyline, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	polys, err := parseEntities(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return polys, nil
}

// entityState accumulates the group codes of the entity currently being
// read. DXF is a stream of (code, value) pairs; an entity's fields arrive
// between its introducing 0 code and the next one.
type entityState struct {
	kind  string
	layer string

	// LINE endpoints
	sx, sy, sz float64
	ex, ey, ez float64

	// LWPOLYLINE vertices and entity elevation
	verts   []geometry.Vertex
	elev    float64
	hasElev bool

	// VERTEX location
	vx, vy, vz float64
}

func parseEntities(r io.Reader) ([]TaggedPolyline, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		out     []TaggedPolyline
		section string
		cur     entityState

		// POLYLINE entities span their VERTEX children up to SEQEND
		inPolyline bool
		polyLayer  string
		polyVerts  []geometry.Vertex
	)

	flush := func() {
		switch cur.kind {
		case "LINE":
			out = append(out, TaggedPolyline{
				Layer: cur.layer,
				Vertices: []geometry.Vertex{
					geometry.NewVertex3D(cur.sx, cur.sy, cur.sz),
					geometry.NewVertex3D(cur.ex, cur.ey, cur.ez),
				},
			})
		case "LWPOLYLINE":
			if len(cur.verts) >= 2 {
				verts := make([]geometry.Vertex, len(cur.verts))
				for i, v := range cur.verts {
					v.Z = cur.elev
					v.HasZ = cur.hasElev
					verts[i] = v
				}
				out = append(out, TaggedPolyline{Layer: cur.layer, Vertices: verts})
			}
		case "POLYLINE":
			inPolyline = true
			polyLayer = cur.layer
			polyVerts = nil
		case "VERTEX":
			if inPolyline {
				polyVerts = append(polyVerts, geometry.NewVertex3D(cur.vx, cur.vy, cur.vz))
			}
		case "SEQEND":
			if inPolyline && len(polyVerts) >= 2 {
				out = append(out, TaggedPolyline{Layer: polyLayer, Vertices: polyVerts})
			}
			inPolyline = false
		}
		cur = entityState{}
	}

	for {
		code, value, ok, err := nextPair(sc)
		if err != nil {
			return nil, err
		}
		if !ok || (code == 0 && value == "EOF") {
			if section == "ENTITIES" {
				flush()
			}
			break
		}

		switch {
		case code == 0 && value == "SECTION":
			section = ""
		case code == 2 && section == "":
			section = value
		case code == 0 && value == "ENDSEC":
			if section == "ENTITIES" {
				flush()
			}
			section = "-"
		case section == "ENTITIES":
			if code == 0 {
				flush()
				cur.kind = value
				continue
			}
			applyCode(&cur, code, value)
		}
	}
	return out, nil
}

func applyCode(cur *entityState, code int, value string) {
	if code == 8 {
		cur.layer = value
		return
	}
	f := func() float64 {
		v, _ := strconv.ParseFloat(value, 64)
		return v
	}
	switch cur.kind {
	case "LINE":
		switch code {
		case 10:
			cur.sx = f()
		case 20:
			cur.sy = f()
		case 30:
			cur.sz = f()
		case 11:
			cur.ex = f()
		case 21:
			cur.ey = f()
		case 31:
			cur.ez = f()
		}
	case "LWPOLYLINE":
		switch code {
		case 10:
			cur.verts = append(cur.verts, geometry.Vertex{X: f()})
		case 20:
			if len(cur.verts) > 0 {
				cur.verts[len(cur.verts)-1].Y = f()
			}
		case 38:
			cur.elev = f()
			cur.hasElev = true
		}
	case "VERTEX":
		switch code {
		case 10:
			cur.vx = f()
		case 20:
			cur.vy = f()
		case 30:
			cur.vz = f()
		}
	}
}

// nextPair reads one (group code, value) pair from the tag stream.
func nextPair(sc *bufio.Scanner) (int, string, bool, error) {
	if !sc.Scan() {
		return 0, "", false, sc.Err()
	}
	codeLine := strings.TrimSpace(sc.Text())
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return 0, "", false, err
		}
		return 0, "", false, fmt.Errorf("group code %q without a value", codeLine)
	}
	code, err := strconv.Atoi(codeLine)
	if err != nil {
		return 0, "", false, fmt.Errorf("bad group code %q", codeLine)
	}
	return code, strings.TrimSpace(sc.Text()), true, nil
}
