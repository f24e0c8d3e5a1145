package geom

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

var ErrInvalidRegion = errors.New("invalid region")

// Category is the infrastructure class derived from a feature's power tag.
type Category int

const (
	Unknown Category = iota
	Transmission
	Distribution
	Transformer
)

func (c Category) String() string {
	switch c {
	case Transmission:
		return "transmission"
	case Distribution:
		return "distribution"
	case Transformer:
		return "transformer"
	}
	return "unknown"
}

// Power tag values as they appear in the feature properties.
const (
	PowerLine        = "line"
	PowerMinorLine   = "minor_line"
	PowerTransformer = "transformer"
	PowerSubstation  = "substation"
)

// CategoryOf classifies a power tag value.
func CategoryOf(power string) Category {
	switch power {
	case PowerLine:
		return Transmission
	case PowerMinorLine:
		return Distribution
	case PowerTransformer, PowerSubstation:
		return Transformer
	}
	return Unknown
}

// Region is a geographic rectangle in the backend's south,west,north,east order.
type Region struct {
	South float64
	West  float64
	North float64
	East  float64
}

// OverlandPark is the fixed region the map loads.
var OverlandPark = Region{South: 38.85, West: -94.80, North: 39.10, East: -94.55}

// ParseRegion parses "south,west,north,east".
func ParseRegion(s string) (Region, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Region{}, fmt.Errorf("%w: bbox must be 'south,west,north,east'", ErrInvalidRegion)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Region{}, fmt.Errorf("%w: %q is not a number", ErrInvalidRegion, p)
		}
		v[i] = f
	}
	r := Region{South: v[0], West: v[1], North: v[2], East: v[3]}
	if r.South >= r.North || r.West >= r.East {
		return Region{}, fmt.Errorf("%w: south must be < north, west must be < east", ErrInvalidRegion)
	}
	return r, nil
}

func (r Region) String() string {
	return strconv.FormatFloat(r.South, 'f', -1, 64) + "," +
		strconv.FormatFloat(r.West, 'f', -1, 64) + "," +
		strconv.FormatFloat(r.North, 'f', -1, 64) + "," +
		strconv.FormatFloat(r.East, 'f', -1, 64)
}

func (r Region) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{r.West, r.South}, Max: orb.Point{r.East, r.North}}
}

func (r Region) Center() orb.Point {
	return r.Bound().Center()
}

// DiagonalKm is the haversine distance between the south-west and north-east corners.
func (r Region) DiagonalKm() float64 {
	return geo.DistanceHaversine(orb.Point{r.West, r.South}, orb.Point{r.East, r.North}) / 1000
}
