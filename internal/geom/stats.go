package geom

import (
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"
)

const milesPerKm = 0.621371

// Stats summarises the infrastructure inside a region.
type Stats struct {
	TransmissionMiles float64  `json:"transmission_miles"`
	DistributionMiles float64  `json:"distribution_miles"`
	TransformerCount  int      `json:"transformer_count"`
	SubstationCount   int      `json:"substation_count,omitempty"`
	HighestVoltage    *float64 `json:"highest_voltage,omitempty"`
	LowestVoltage     *float64 `json:"lowest_voltage,omitempty"`
}

// Transformers returns the transformer count, falling back to the substation
// count reported by older backends.
func (s Stats) Transformers() int {
	if s.TransformerCount > 0 {
		return s.TransformerCount
	}
	return s.SubstationCount
}

// LengthKm is the haversine length of a line geometry in kilometres.
func LengthKm(g orb.Geometry) float64 {
	switch g.(type) {
	case orb.LineString, orb.MultiLineString:
		return geo.LengthHaversign(g) / 1000
	}
	return 0
}

// Voltages parses an OSM voltage tag such as "345000;161000".
func Voltages(tag string) []float64 {
	var out []float64
	for _, part := range strings.Split(tag, ";") {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || v <= 0 {
			continue
		}
		out = append(out, v)
	}
	return out
}

// ComputeStats totals line lengths per category, counts transformer points
// and tracks voltage extremes across all features.
func ComputeStats(fc *geojson.FeatureCollection) Stats {
	var s Stats
	if fc == nil {
		return s
	}
	hi, lo := math.Inf(-1), math.Inf(1)
	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			continue
		}
		switch CategoryOf(Power(f)) {
		case Transmission:
			s.TransmissionMiles += LengthKm(f.Geometry) * milesPerKm
		case Distribution:
			s.DistributionMiles += LengthKm(f.Geometry) * milesPerKm
		case Transformer:
			if _, ok := f.Geometry.(orb.Point); ok {
				s.TransformerCount++
			}
		default:
			continue
		}
		for _, v := range Voltages(PropString(f, "voltage")) {
			hi = math.Max(hi, v)
			lo = math.Min(lo, v)
		}
	}
	s.TransmissionMiles = round(s.TransmissionMiles, 2)
	s.DistributionMiles = round(s.DistributionMiles, 2)
	if !math.IsInf(hi, -1) {
		s.HighestVoltage = &hi
		s.LowestVoltage = &lo
	}
	return s
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// FormatVoltage renders volts as kV above 1000 V.
func FormatVoltage(v float64) string {
	if v >= 1000 {
		return strconv.FormatFloat(v/1000, 'f', 1, 64) + " kV"
	}
	return strconv.FormatFloat(v, 'f', -1, 64) + " V"
}
