package geom

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lineFeature(power string, pts ...orb.Point) *geojson.Feature {
	f := geojson.NewFeature(orb.LineString(pts))
	f.Properties[PropPower] = power
	f.Properties["name"] = "Line A"
	return f
}

func TestParseRegion(t *testing.T) {
	r, err := ParseRegion("38.85,-94.80,39.10,-94.55")
	require.NoError(t, err)
	assert.Equal(t, OverlandPark, r)
	assert.Equal(t, "38.85,-94.8,39.1,-94.55", r.String())

	for _, bad := range []string{"", "1,2,3", "a,b,c,d", "39.1,-94.8,38.85,-94.55", "38.85,-94.55,39.1,-94.8"} {
		_, err := ParseRegion(bad)
		assert.ErrorIs(t, err, ErrInvalidRegion, bad)
	}
}

func TestRegionDiagonal(t *testing.T) {
	d := OverlandPark.DiagonalKm()
	assert.InDelta(t, 35.2, d, 0.5)

	big := Region{South: 38.0, West: -95.5, North: 39.5, East: -94.0}
	assert.Greater(t, big.DiagonalKm(), 60.0)
}

func TestCategoryOf(t *testing.T) {
	assert.Equal(t, Transmission, CategoryOf("line"))
	assert.Equal(t, Distribution, CategoryOf("minor_line"))
	assert.Equal(t, Transformer, CategoryOf("transformer"))
	assert.Equal(t, Transformer, CategoryOf("substation"))
	assert.Equal(t, Unknown, CategoryOf("tower"))
	assert.Equal(t, "distribution", Distribution.String())
}

func TestEndpointMarkersDistinct(t *testing.T) {
	f := lineFeature(PowerLine, orb.Point{0, 0}, orb.Point{1, 1})
	markers := EndpointMarkers(f)
	require.Len(t, markers, 2)
	assert.Equal(t, orb.Point{0, 0}, markers[0].Geometry)
	assert.Equal(t, orb.Point{1, 1}, markers[1].Geometry)
	for _, m := range markers {
		assert.Equal(t, LineEndpoint, m.Properties[PropPointType])
		assert.Equal(t, PowerLine, m.Properties[PropPower])
		assert.Equal(t, "Line A", m.Properties["name"])
	}
	_, tagged := f.Properties[PropPointType]
	assert.False(t, tagged, "source line must not be modified")
}

func TestEndpointMarkersClosedLine(t *testing.T) {
	f := lineFeature(PowerMinorLine, orb.Point{0, 0}, orb.Point{0, 0})
	assert.Len(t, EndpointMarkers(f), 1)

	loop := lineFeature(PowerMinorLine, orb.Point{0, 0}, orb.Point{1, 0}, orb.Point{0, 0})
	assert.Len(t, EndpointMarkers(loop), 1)

	assert.Empty(t, EndpointMarkers(geojson.NewFeature(orb.Point{1, 2})))
}

func TestWithEndpoints(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	fc.Append(lineFeature(PowerLine, orb.Point{0, 0}, orb.Point{1, 1}))
	tr := geojson.NewFeature(orb.Point{5, 5})
	tr.Properties[PropPower] = PowerTransformer
	fc.Append(tr)
	fc.Append(lineFeature(PowerMinorLine, orb.Point{2, 2}, orb.Point{3, 3}))

	out := WithEndpoints(fc)
	require.Len(t, out.Features, 2+4+1)
	assert.IsType(t, orb.LineString{}, out.Features[0].Geometry)
	assert.IsType(t, orb.LineString{}, out.Features[1].Geometry)
	assert.True(t, IsEndpoint(out.Features[2]))
	assert.Equal(t, PowerTransformer, Power(out.Features[4]))
	assert.Len(t, fc.Features, 3)
}

func TestComputeStats(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	tl := lineFeature(PowerLine, orb.Point{-94.7, 38.9}, orb.Point{-94.7, 39.0})
	tl.Properties["voltage"] = "345000;161000"
	fc.Append(tl)
	dl := lineFeature(PowerMinorLine, orb.Point{-94.7, 38.9}, orb.Point{-94.6, 38.9})
	dl.Properties["voltage"] = "12470"
	fc.Append(dl)
	tr := geojson.NewFeature(orb.Point{-94.65, 38.95})
	tr.Properties[PropPower] = PowerSubstation
	fc.Append(tr)

	s := ComputeStats(fc)
	// 0.1 degree of latitude is ~11.12 km
	assert.InDelta(t, 11.12*milesPerKm, s.TransmissionMiles, 0.05)
	assert.Greater(t, s.DistributionMiles, 0.0)
	assert.Less(t, s.DistributionMiles, s.TransmissionMiles)
	assert.Equal(t, 1, s.TransformerCount)
	assert.Equal(t, 1, s.Transformers())
	require.NotNil(t, s.HighestVoltage)
	assert.Equal(t, 345000.0, *s.HighestVoltage)
	assert.Equal(t, 12470.0, *s.LowestVoltage)
}

func TestComputeStatsNoVoltage(t *testing.T) {
	s := ComputeStats(geojson.NewFeatureCollection())
	assert.Nil(t, s.HighestVoltage)
	assert.Nil(t, s.LowestVoltage)
	assert.Equal(t, 3, Stats{SubstationCount: 3}.Transformers())
}

func TestFormatVoltage(t *testing.T) {
	assert.Equal(t, "345.0 kV", FormatVoltage(345000))
	assert.Equal(t, "480 V", FormatVoltage(480))
}

func TestParseVariants(t *testing.T) {
	fc, err := Parse([]byte(`{"type":"Feature","geometry":{"type":"Point","coordinates":[1,2]},"properties":{"power":"transformer"}}`))
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, PowerTransformer, Power(fc.Features[0]))

	fc, err = Parse([]byte(`{"type":"LineString","coordinates":[[0,0],[1,1]]}`))
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, orb.LineString{{0, 0}, {1, 1}}, fc.Features[0].Geometry)

	_, err = Parse([]byte(`{}`))
	assert.Error(t, err)
}

func TestLoadFileAndBound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lines.geojson")
	body := `{"type":"FeatureCollection","features":[
		{"type":"Feature","geometry":{"type":"LineString","coordinates":[[-94.7,38.9],[-94.6,39.0]]},"properties":{"power":"line"}},
		{"type":"Feature","geometry":{"type":"Point","coordinates":[-94.8,38.95]},"properties":{"power":"transformer"}}]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	fc, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)

	b, ok := Bound(fc)
	require.True(t, ok)
	assert.Equal(t, orb.Point{-94.8, 38.9}, b.Min)
	assert.Equal(t, orb.Point{-94.6, 39.0}, b.Max)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.geojson"))
	assert.Error(t, err)
}
