package geom

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb/geojson"
)

// PropString renders property key of f as text. Numbers and booleans are
// formatted, a missing key is "".
func PropString(f *geojson.Feature, key string) string {
	if f == nil {
		return ""
	}
	switch v := f.Properties[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// PropNumber returns property key of f when it is numeric.
func PropNumber(f *geojson.Feature, key string) (float64, bool) {
	if f == nil {
		return 0, false
	}
	switch v := f.Properties[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return n, err == nil
	}
	return 0, false
}
