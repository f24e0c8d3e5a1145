package geom

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// LoadFile reads a GeoJSON file holding a FeatureCollection, a single Feature
// or a bare geometry, and returns it as a FeatureCollection.
func LoadFile(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes GeoJSON bytes into a FeatureCollection.
func Parse(data []byte) (*geojson.FeatureCollection, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}
	switch head.Type {
	case "FeatureCollection":
		return geojson.UnmarshalFeatureCollection(data)
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, err
		}
		fc := geojson.NewFeatureCollection()
		fc.Append(f)
		return fc, nil
	case "":
		return nil, fmt.Errorf("geojson: missing type")
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, err
		}
		fc := geojson.NewFeatureCollection()
		fc.Append(geojson.NewFeature(g.Geometry()))
		return fc, nil
	}
}

// Bound returns the extent of every geometry in fc.
func Bound(fc *geojson.FeatureCollection) (orb.Bound, bool) {
	var b orb.Bound
	ok := false
	if fc == nil {
		return b, false
	}
	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			continue
		}
		if !ok {
			b = f.Geometry.Bound()
			ok = true
			continue
		}
		b = b.Union(f.Geometry.Bound())
	}
	return b, ok
}
