package zipindex

import (
	"fmt"
	"math"
	"strings"

	"github.com/twpayne/go-geom"
)

// Record is one known ZIP code: its boundary geometry as received from
// the upstream source, the centroid derived from it at ingestion, and
// whatever extra attributes the source carried. Records handed out by
// the index are shared snapshots and must be treated as read-only.
type Record struct {
	Code       string         `json:"code"`
	Geometry   geom.T         `json:"-"`
	Centroid   LatLon         `json:"centroid"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// snapshot is one immutable generation of the index. Queries resolve
// against whichever snapshot was current when they started; Refresh
// publishes a fully built replacement in a single pointer store.
type snapshot struct {
	records map[string]*Record
	codes   []string // sorted, for deterministic iteration
}

var emptySnapshot = &snapshot{records: map[string]*Record{}}

// codeFields are the upstream attribute names a ZIP code may arrive
// under, in lookup order. The county GIS layer uses ZIPCODE; TIGER
// shapefiles use ZCTA5 variants.
var codeFields = []string{"ZIPCODE", "ZIP", "ZIP_CODE", "ZCTA5", "ZCTA5CE20", "ZCTA5CE10", "zipcode", "zip"}

// extractCode pulls the ZIP code out of a feature's attribute map.
// Numeric attribute values are zero-padded to five digits, since some
// layers store the code as a number and drop leading zeros.
func extractCode(attrs map[string]any) (string, bool) {
	for _, field := range codeFields {
		v, ok := attrs[field]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case string:
			s := strings.TrimSpace(t)
			if s != "" {
				return s, true
			}
		case float64:
			if t == math.Trunc(t) && t >= 0 {
				return fmt.Sprintf("%05d", int(t)), true
			}
		case int:
			if t >= 0 {
				return fmt.Sprintf("%05d", t), true
			}
		}
	}
	return "", false
}
