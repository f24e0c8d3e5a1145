package geom

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

const (
	PropPower     = "power"
	PropPointType = "point_type"
	LineEndpoint  = "line_endpoint"
)

// Power returns the power tag of f or "".
func Power(f *geojson.Feature) string {
	if f == nil {
		return ""
	}
	return PropString(f, PropPower)
}

// IsEndpoint reports whether f is a derived line endpoint marker.
func IsEndpoint(f *geojson.Feature) bool {
	return PropString(f, PropPointType) == LineEndpoint
}

// EndpointMarkers derives point markers for a line feature: the first vertex
// always, the last one only if it differs from the first. Markers carry a copy
// of the line's properties tagged as line endpoints.
func EndpointMarkers(f *geojson.Feature) []*geojson.Feature {
	if f == nil {
		return nil
	}
	ls, ok := f.Geometry.(orb.LineString)
	if !ok || len(ls) == 0 {
		return nil
	}
	first, last := ls[0], ls[len(ls)-1]
	out := []*geojson.Feature{endpoint(f, first)}
	if len(ls) > 1 && !first.Equal(last) {
		out = append(out, endpoint(f, last))
	}
	return out
}

func endpoint(line *geojson.Feature, p orb.Point) *geojson.Feature {
	m := geojson.NewFeature(p)
	m.Properties = line.Properties.Clone()
	if m.Properties == nil {
		m.Properties = geojson.Properties{}
	}
	m.Properties[PropPointType] = LineEndpoint
	return m
}

// WithEndpoints returns a new collection holding the lines of fc followed by
// their endpoint markers and the pass-through point features, in that order.
// Other geometry types are dropped. fc is not modified.
func WithEndpoints(fc *geojson.FeatureCollection) *geojson.FeatureCollection {
	out := geojson.NewFeatureCollection()
	if fc == nil {
		return out
	}
	var points []*geojson.Feature
	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			continue
		}
		switch f.Geometry.(type) {
		case orb.LineString:
			out.Append(f)
			points = append(points, EndpointMarkers(f)...)
		case orb.Point:
			points = append(points, f)
		}
	}
	out.Features = append(out.Features, points...)
	return out
}
