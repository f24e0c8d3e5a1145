package powermap

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"gridmap/internal/geom"
)

const noIdentifier = "No name/identifier available"

type Row struct {
	Label string
	Value string
}

// Popup describes a clicked feature.
type Popup struct {
	Title       string
	Category    geom.Category
	Identifiers []Row
	Details     []Row
	OSMID       string
	At          orb.Point
	Feature     *geojson.Feature
}

// Lines renders the popup body as plain text lines.
func (p Popup) Lines() []string {
	var out []string
	if len(p.Identifiers) == 0 {
		out = append(out, noIdentifier)
	}
	for _, r := range p.Identifiers {
		out = append(out, r.Label+": "+r.Value)
	}
	out = append(out, "")
	for _, r := range p.Details {
		out = append(out, r.Label+": "+r.Value)
	}
	out = append(out, "", "OSM ID: "+p.OSMID)
	return out
}

type field struct{ key, label string }

var lineIdentifiers = []field{
	{"name", "Name"},
	{"ref", "Ref"},
	{"ref:operator", "Operator Ref"},
	{"operator:ref", "Operator Ref"},
	{"cables", "Cables"},
	{"name:en", "Name (EN)"},
	{"description", "Description"},
	{"note", "Note"},
	{"location", "Location"},
	{"addr:housename", "Location Name"},
	{"addr:street", "Street"},
}

var distributionIdentifiers = []field{
	{"line", "Line ID"},
	{"circuit", "Circuit"},
}

var transformerIdentifiers = []field{
	{"name", "Name"},
	{"ref", "Ref"},
	{"ref:operator", "Operator Ref"},
	{"operator:ref", "Operator Ref"},
	{"name:en", "Name (EN)"},
	{"description", "Description"},
	{"note", "Note"},
	{"location", "Location"},
	{"addr:housename", "Location Name"},
	{"addr:street", "Street"},
	{"substation", "Substation"},
	{"substation:name", "Substation Name"},
	{"rating", "Rating"},
	{"transformer:type", "Type"},
}

// NewPopup builds the popup for f clicked at at. It returns false for
// features that are neither lines nor transformers.
func NewPopup(f *geojson.Feature, at orb.Point) (Popup, bool) {
	switch geom.CategoryOf(geom.Power(f)) {
	case geom.Transmission, geom.Distribution:
		return LinePopup(f, at), true
	case geom.Transformer:
		return TransformerPopup(f, at), true
	}
	return Popup{}, false
}

func LinePopup(f *geojson.Feature, at orb.Point) Popup {
	cat := geom.CategoryOf(geom.Power(f))
	p := Popup{Title: "Distribution Line", Category: cat, At: at, Feature: f, OSMID: osmID(f)}
	typ := "Distribution"
	if cat == geom.Transmission {
		p.Title, typ = "Transmission Line", "Transmission"
	}
	p.Identifiers = collect(f, lineIdentifiers)
	if cat == geom.Distribution {
		p.Identifiers = append(p.Identifiers, collect(f, distributionIdentifiers)...)
	}
	p.Details = append(p.Details, Row{"Type", typ})
	p.Details = appendProp(p.Details, f, "voltage", "Voltage", "")
	p.Details = appendProp(p.Details, f, "operator", "Operator", "")
	p.Details = appendProp(p.Details, f, "circuits", "Circuits", "")
	p.Details = appendProp(p.Details, f, "frequency", "Frequency", " Hz")
	if miles, ok := geom.PropNumber(f, "length_miles"); ok && miles > 0 {
		km := "N/A"
		if v, ok := geom.PropNumber(f, "length_km"); ok {
			km = fmt.Sprintf("%.2f km", v)
		}
		p.Details = append(p.Details, Row{"Length", fmt.Sprintf("%.2f miles (%s)", miles, km)})
	}
	return p
}

func TransformerPopup(f *geojson.Feature, at orb.Point) Popup {
	p := Popup{Title: "Transformer", Category: geom.Transformer, At: at, Feature: f, OSMID: osmID(f)}
	p.Identifiers = collect(f, transformerIdentifiers)
	p.Details = appendProp(p.Details, f, "transformer", "Type", "")
	p.Details = appendProp(p.Details, f, "operator", "Operator", "")
	p.Details = appendProp(p.Details, f, "voltage", "Voltage", "")
	p.Details = appendProp(p.Details, f, "power", "Power Type", "")
	p.Details = appendProp(p.Details, f, "location", "Location", "")
	p.Details = appendProp(p.Details, f, "rating", "Rating", "")
	return p
}

func collect(f *geojson.Feature, fields []field) []Row {
	var rows []Row
	for _, fd := range fields {
		if v := geom.PropString(f, fd.key); v != "" {
			rows = append(rows, Row{fd.label, v})
		}
	}
	return rows
}

func appendProp(rows []Row, f *geojson.Feature, key, label, suffix string) []Row {
	if v := geom.PropString(f, key); v != "" {
		rows = append(rows, Row{label, v + suffix})
	}
	return rows
}

func osmID(f *geojson.Feature) string {
	if v := geom.PropString(f, "osm_id"); v != "" {
		return v
	}
	if f.ID != nil {
		return fmt.Sprint(f.ID)
	}
	return "N/A"
}
