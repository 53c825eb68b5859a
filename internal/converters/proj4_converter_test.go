package converters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDefinitionPassesRawProj4Through(t *testing.T) {
	def := "+proj=tmerc +lat_0=0 +lon_0=9 +k=1 +datum=WGS84"

	got, err := resolveDefinition(def)
	require.NoError(t, err)
	assert.Equal(t, def, got)
}

func TestResolveDefinitionAcceptsEPSGForms(t *testing.T) {
	for _, identifier := range []string{"EPSG:32633", "epsg:32633", "32633"} {
		got, err := resolveDefinition(identifier)
		require.NoError(t, err, identifier)
		assert.Contains(t, got, "+proj=utm")
		assert.Contains(t, got, "+zone=33")
	}
}

func TestResolveDefinitionRejectsGarbage(t *testing.T) {
	_, err := resolveDefinition("not-a-crs")
	assert.Error(t, err)
}

func TestEPSGDefinitions(t *testing.T) {
	cases := []struct {
		srid     int
		contains string
	}{
		{4326, "+proj=longlat"},
		{3857, "+proj=merc"},
		{3395, "+proj=merc"},
		{32601, "+zone=1 "},
		{32660, "+zone=60"},
		{32733, "+south"},
		{25832, "+ellps=GRS80"},
	}
	for _, tc := range cases {
		def, err := epsgDefinition(tc.srid)
		require.NoError(t, err, tc.srid)
		assert.Contains(t, def, tc.contains, tc.srid)
	}

	_, err := epsgDefinition(99999)
	assert.Error(t, err)
}

func TestNorthernZoneHasNoSouthFlag(t *testing.T) {
	def, err := epsgDefinition(32633)
	require.NoError(t, err)
	assert.NotContains(t, def, "+south")
}

func TestParseCRSEmptyIdentifierMeansNone(t *testing.T) {
	c := NewProj4Converter()
	defer c.Cleanup()

	crs, err := c.ParseCRS("")
	require.NoError(t, err)
	assert.Nil(t, crs)

	crs, err = c.ParseCRS("   ")
	require.NoError(t, err)
	assert.Nil(t, crs)
}

func TestTransformXYWithoutCRSIsIdentity(t *testing.T) {
	c := NewProj4Converter()
	defer c.Cleanup()

	xs := []float64{1, 2, 3}
	ys := []float64{4, 5, 6}

	gotX, gotY, err := c.TransformXY(nil, nil, xs, ys)
	require.NoError(t, err)
	assert.Equal(t, xs, gotX)
	assert.Equal(t, ys, gotY)
}
