package converters

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	proj "github.com/xeonx/proj4"
)

type projection = *proj.Proj

// proj4Converter resolves CRS identifiers through an EPSG lookup table
// and reprojects with proj4. Parsed projections are cached per definition
// and released by Cleanup.
type proj4Converter struct {
	cache map[string]*CRS
}

func NewProj4Converter() CoordinateConverter {
	return &proj4Converter{cache: make(map[string]*CRS)}
}

func (c *proj4Converter) ParseCRS(identifier string) (*CRS, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, nil
	}

	def, err := resolveDefinition(identifier)
	if err != nil {
		return nil, err
	}
	if crs, ok := c.cache[def]; ok {
		return crs, nil
	}

	p, err := proj.InitPlus(def)
	if err != nil {
		return nil, fmt.Errorf("initializing projection %q: %w", def, err)
	}
	crs := &CRS{def: def, proj: p, latLong: p.IsLatLong()}
	c.cache[def] = crs
	return crs, nil
}

func (c *proj4Converter) TransformXY(src, dst *CRS, xs, ys []float64) ([]float64, []float64, error) {
	if src == nil || dst == nil || src.Equal(dst) {
		return xs, ys, nil
	}
	if len(xs) != len(ys) {
		return nil, nil, fmt.Errorf("coordinate arrays disagree: %d x values, %d y values", len(xs), len(ys))
	}

	if src.latLong {
		scale(xs, ys, math.Pi/180)
	}
	if err := proj.TransformRaw(src.proj, dst.proj, xs, ys, nil); err != nil {
		return nil, nil, fmt.Errorf("transforming %q -> %q: %w", src.def, dst.def, err)
	}
	if dst.latLong {
		scale(xs, ys, 180/math.Pi)
	}
	return xs, ys, nil
}

func (c *proj4Converter) Cleanup() {
	for _, crs := range c.cache {
		crs.proj.Close()
	}
	c.cache = make(map[string]*CRS)
}

func scale(xs, ys []float64, factor float64) {
	for i := range xs {
		xs[i] *= factor
		ys[i] *= factor
	}
}

// resolveDefinition turns a user identifier into a proj4 definition
// string. Raw definitions pass through untouched.
func resolveDefinition(identifier string) (string, error) {
	if strings.HasPrefix(identifier, "+") {
		return identifier, nil
	}
	code := identifier
	if idx := strings.Index(strings.ToUpper(identifier), "EPSG:"); idx == 0 {
		code = identifier[5:]
	}
	srid, err := strconv.Atoi(code)
	if err != nil {
		return "", fmt.Errorf("unrecognized CRS identifier %q", identifier)
	}
	return epsgDefinition(srid)
}

// epsgDefinition covers the codes this tool meets in practice: the
// geodetic and mercator bases plus the WGS84 and ETRS89 UTM zones.
func epsgDefinition(srid int) (string, error) {
	switch {
	case srid == 4326:
		return "+proj=longlat +datum=WGS84 +no_defs", nil
	case srid == 3857:
		return "+proj=merc +a=6378137 +b=6378137 +lat_ts=0 +lon_0=0 +x_0=0 +y_0=0 +k=1 +units=m +nadgrids=@null +wgs84=0,0,0 +no_defs", nil
	case srid == 3395:
		return "+proj=merc +lon_0=0 +k=1 +x_0=0 +y_0=0 +datum=WGS84 +units=m +no_defs", nil
	case srid >= 32601 && srid <= 32660:
		return fmt.Sprintf("+proj=utm +zone=%d +datum=WGS84 +units=m +no_defs", srid-32600), nil
	case srid >= 32701 && srid <= 32760:
		return fmt.Sprintf("+proj=utm +zone=%d +south +datum=WGS84 +units=m +no_defs", srid-32700), nil
	case srid >= 25828 && srid <= 25838:
		return fmt.Sprintf("+proj=utm +zone=%d +ellps=GRS80 +towgs84=0,0,0,0,0,0,0 +units=m +no_defs", srid-25800), nil
	}
	return "", fmt.Errorf("no proj4 definition for EPSG:%d, pass a raw +proj definition instead", srid)
}
