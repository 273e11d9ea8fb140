// Package facility fetches civic facility layers (schools, clinics,
// police and fire stations, parks, libraries, bus stops) from the
// county GIS service and filters them by straight-line distance from a
// point, using the same great-circle semantics as the ZIP index.
package facility

import (
	"sort"
	"strings"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/know-your-zip/explorer-cli/internal/arcgis"
	"github.com/know-your-zip/explorer-cli/internal/zipindex"
)

// Category identifies one facility layer.
type Category string

// Facility categories served by the county open-data portal.
const (
	CategoryPublicSchools  Category = "public_schools"
	CategoryCharterSchools Category = "charter_schools"
	CategoryPrivateSchools Category = "private_schools"
	CategoryClinics        Category = "clinics"
	CategoryMentalHealth   Category = "mental_health"
	CategoryPolice         Category = "police"
	CategoryFire           Category = "fire"
	CategoryParks          Category = "parks"
	CategoryLibraries      Category = "libraries"
	CategoryBusStops       Category = "bus_stops"
	CategorySchoolBusStops Category = "school_bus_stops"
)

var layerByCategory = map[Category]string{
	CategoryPublicSchools:  arcgis.LayerPublicSchools,
	CategoryCharterSchools: arcgis.LayerCharterSchools,
	CategoryPrivateSchools: arcgis.LayerPrivateSchools,
	CategoryClinics:        arcgis.LayerClinics,
	CategoryMentalHealth:   arcgis.LayerMentalHealth,
	CategoryPolice:         arcgis.LayerPoliceStations,
	CategoryFire:           arcgis.LayerFireStations,
	CategoryParks:          arcgis.LayerParks,
	CategoryLibraries:      arcgis.LayerLibraries,
	CategoryBusStops:       arcgis.LayerBusStops,
	CategorySchoolBusStops: arcgis.LayerSchoolBusStops,
}

// Categories returns every known category in sorted order.
func Categories() []Category {
	out := make([]Category, 0, len(layerByCategory))
	for c := range layerByCategory {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseCategory resolves a user-supplied category name.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	_, ok := layerByCategory[c]
	return c, ok
}

// Facility is one civic facility with its distance from the query point.
type Facility struct {
	Name          string          `json:"name"`
	Category      Category        `json:"category"`
	Address       string          `json:"address,omitempty"`
	Location      zipindex.LatLon `json:"location"`
	DistanceMiles float64         `json:"distance_miles"`
}

// nameFields and addressFields are the attribute names the various
// county layers use, in lookup order.
var (
	nameFields    = []string{"NAME", "FACNAME", "SCHLNAME", "PARKNAME", "LIBNAME", "STOPNAME", "LOCATION"}
	addressFields = []string{"ADDRESS", "ADDR", "LOCADDR"}
)

func stringAttr(attrs map[string]any, candidates []string) string {
	for _, field := range candidates {
		if v, ok := attrs[field].(string); ok {
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// fromFeature builds a Facility from a point feature. Non-point
// geometries are not facilities and yield ok=false.
func fromFeature(f *geojson.Feature, cat Category) (Facility, bool) {
	pt, ok := f.Geometry.(*geom.Point)
	if !ok {
		return Facility{}, false
	}
	c := pt.Coords()
	if len(c) < 2 {
		return Facility{}, false
	}
	return Facility{
		Name:     stringAttr(f.Properties, nameFields),
		Category: cat,
		Address:  stringAttr(f.Properties, addressFields),
		Location: zipindex.LatLon{Lat: c[1], Lon: c[0]},
	}, true
}
