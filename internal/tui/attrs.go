package tui

import (
	"fmt"
	"sort"

	table "github.com/charmbracelet/bubbles/table"
	"github.com/paulmach/orb/geojson"

	"gridmap/internal/geom"
)

// attrColumns leads the table; other keys follow alphabetically.
var attrColumns = []string{"power", "name", "ref", "voltage", "operator", "length_miles", "osm_id"}

// refreshAttrsFromCurrent rebuilds the table columns/rows from the published features
func (m *Model) refreshAttrsFromCurrent() {
	cols, rows := buildAttributes(m.session.Features())
	// If there are no columns or rows, disable attributes view to avoid rendering panics
	if len(cols) == 0 || len(rows) == 0 {
		m.showAttrs = false
		m.status = "no attributes for current dataset"
		return
	}
	tcols := make([]table.Column, 0, len(cols)+1)
	tcols = append(tcols, table.Column{Title: "#", Width: 4})
	maxColW := 24
	for i, c := range cols {
		w := len(c) + 2
		for _, r := range rows {
			if v := r[i]; len(v) > w {
				w = len(v)
			}
		}
		if w > maxColW {
			w = maxColW
		}
		tcols = append(tcols, table.Column{Title: c, Width: w})
	}
	trows := make([]table.Row, 0, len(rows))
	for i, r := range rows {
		row := make([]string, 0, len(r)+1)
		row = append(row, fmt.Sprintf("%d", i+1))
		row = append(row, r...)
		trows = append(trows, table.Row(row))
	}
	// Avoid transient mismatch: clear rows, set columns, then set rows
	m.tbl.SetRows(nil)
	m.tbl.SetColumns(tcols)
	m.tbl.SetRows(trows)
	m.status = fmt.Sprintf("attributes: %d features", len(trows))
}

// buildAttributes unions the property keys of features and returns
// (columns, rows), one row per feature.
func buildAttributes(features []*geojson.Feature) ([]string, [][]string) {
	seen := map[string]bool{}
	var extra []string
	for _, f := range features {
		for k := range f.Properties {
			if !seen[k] {
				seen[k] = true
				extra = append(extra, k)
			}
		}
	}
	var order []string
	lead := map[string]bool{}
	for _, c := range attrColumns {
		lead[c] = true
		if seen[c] {
			order = append(order, c)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		if !lead[k] {
			order = append(order, k)
		}
	}
	rows := make([][]string, 0, len(features))
	for _, f := range features {
		vals := make([]string, len(order))
		for i, k := range order {
			vals[i] = geom.PropString(f, k)
		}
		rows = append(rows, vals)
	}
	return order, rows
}
