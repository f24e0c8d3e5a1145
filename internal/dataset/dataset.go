// Package dataset serves boundary and power infrastructure from a local
// GeoJSON file, the same data the backend would return.
package dataset

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog"

	"gridmap/internal/api"
	"gridmap/internal/geom"
)

// MaxDiagonalKm bounds the size of a power query.
const MaxDiagonalKm = 60.0

var ErrRegionTooLarge = errors.New("Zoom in - bounding box too large (max 60km diagonal)")

//go:embed overland_park.geojson
var sample []byte

type Dataset struct {
	boundary *geojson.FeatureCollection
	power    *geojson.FeatureCollection
	log      zerolog.Logger
}

// Sample returns the bundled Overland Park dataset.
func Sample(log zerolog.Logger) (*Dataset, error) {
	fc, err := geom.Parse(sample)
	if err != nil {
		return nil, fmt.Errorf("parse sample: %w", err)
	}
	return New(fc, log), nil
}

// Load reads a dataset file, or the bundled sample when path is empty.
func Load(path string, log zerolog.Logger) (*Dataset, error) {
	if path == "" {
		return Sample(log)
	}
	fc, err := geom.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load dataset %s: %w", path, err)
	}
	return New(fc, log), nil
}

// New splits fc into boundary polygons and power features. Lines get
// length_km and length_miles properties.
func New(fc *geojson.FeatureCollection, log zerolog.Logger) *Dataset {
	d := &Dataset{
		boundary: geojson.NewFeatureCollection(),
		power:    geojson.NewFeatureCollection(),
		log:      log,
	}
	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			continue
		}
		switch f.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
			if geom.Power(f) == "" {
				d.boundary.Append(f)
			}
			continue
		}
		switch geom.CategoryOf(geom.Power(f)) {
		case geom.Transmission, geom.Distribution:
			km := geom.LengthKm(f.Geometry)
			f.Properties["length_km"] = roundTo(km, 3)
			f.Properties["length_miles"] = roundTo(km*0.621371, 3)
			d.power.Append(f)
		case geom.Transformer:
			d.power.Append(f)
		}
	}
	log.Info().Int("boundary", len(d.boundary.Features)).Int("power", len(d.power.Features)).Msg("dataset loaded")
	return d
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func (d *Dataset) Boundary(ctx context.Context) (*geojson.FeatureCollection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.boundary, nil
}

// Power returns the features whose extent intersects r, with statistics.
func (d *Dataset) Power(ctx context.Context, r geom.Region) (*api.PowerResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.DiagonalKm() > MaxDiagonalKm {
		return nil, ErrRegionTooLarge
	}
	b := r.Bound()
	fc := geojson.NewFeatureCollection()
	for _, f := range d.power.Features {
		if b.Intersects(f.Geometry.Bound()) {
			fc.Append(f)
		}
	}
	d.log.Debug().Str("bbox", r.String()).Int("features", len(fc.Features)).Msg("power query")
	return &api.PowerResult{GeoJSON: fc, Stats: geom.ComputeStats(fc)}, nil
}
