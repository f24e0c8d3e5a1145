package tui

import (
	"fmt"
	"sort"
	"strings"

	list "github.com/charmbracelet/bubbles/list"
	"github.com/paulmach/orb/geojson"

	"gridmap/internal/geom"
)

type featureItem struct {
	title, desc string
	category    geom.Category
	f           *geojson.Feature
}

func (f featureItem) Title() string       { return f.title }
func (f featureItem) Description() string { return f.desc }
func (f featureItem) FilterValue() string { return f.title + " " + f.desc }

func newFeatureItem(f *geojson.Feature) featureItem {
	cat := geom.CategoryOf(geom.Power(f))
	title := ""
	for _, key := range []string{"name", "ref", "line", "substation:name"} {
		if v := geom.PropString(f, key); v != "" {
			title = v
			break
		}
	}
	if title == "" {
		title = fmt.Sprintf("%s %s", cat, geom.PropString(f, "osm_id"))
	}
	desc := []string{cat.String()}
	if v := geom.PropString(f, "voltage"); v != "" {
		volts := geom.Voltages(v)
		if len(volts) > 0 {
			desc = append(desc, geom.FormatVoltage(volts[0]))
		}
	}
	if miles, ok := geom.PropNumber(f, "length_miles"); ok {
		desc = append(desc, fmt.Sprintf("%.2f mi", miles))
	}
	return featureItem{title: strings.TrimSpace(title), desc: strings.Join(desc, " · "), category: cat, f: f}
}

// refreshFeatures rebuilds the sidebar from the published power data.
func (m *Model) refreshFeatures() {
	features := m.session.Features()
	items := make([]list.Item, 0, len(features))
	for _, f := range features {
		if geom.CategoryOf(geom.Power(f)) == geom.Unknown {
			continue
		}
		items = append(items, newFeatureItem(f))
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].(featureItem), items[j].(featureItem)
		if a.category != b.category {
			return a.category < b.category
		}
		return a.title < b.title
	})
	m.listFeatures = len(features)
	m.l.SetItems(items)
	if len(items) == 0 {
		m.status = "no features loaded yet"
	}
}
