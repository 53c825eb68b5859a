// Package converters translates boundary coordinates between reference
// systems before the cloud lookup.
package converters

// CRS is a parsed coordinate reference system. A nil *CRS means "unset";
// transforms involving an unset side are no-ops.
type CRS struct {
	def     string
	proj    projection
	latLong bool
}

// Def returns the normalized proj4 definition string of the CRS.
func (c *CRS) Def() string {
	if c == nil {
		return ""
	}
	return c.def
}

// Equal reports whether two CRS resolve to the same definition.
func (c *CRS) Equal(o *CRS) bool {
	if c == nil || o == nil {
		return c == o
	}
	return c.def == o.def
}

// CoordinateConverter parses CRS identifiers and reprojects planar
// coordinate arrays between them.
type CoordinateConverter interface {
	// ParseCRS resolves an identifier (EPSG code, "EPSG:n", or a raw
	// proj4 definition). An empty identifier yields a nil CRS.
	ParseCRS(identifier string) (*CRS, error)

	// TransformXY reprojects the coordinate arrays from src to dst,
	// in place is allowed. When either CRS is nil or both are equal
	// the inputs are returned unchanged.
	TransformXY(src, dst *CRS, xs, ys []float64) ([]float64, []float64, error)

	// Cleanup releases any projection resources held by parsed CRSs.
	Cleanup()
}
