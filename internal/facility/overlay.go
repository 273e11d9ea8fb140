package facility

import (
	"context"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/know-your-zip/explorer-cli/internal/arcgis"
	"github.com/know-your-zip/explorer-cli/internal/zipindex"
)

// Overlay identifies a non-point geographic layer rendered on top of
// the ZIP map rather than listed as facilities.
type Overlay string

// Overlays served by the county open-data portal.
const (
	OverlayFloodZones       Overlay = "flood_zones"
	OverlayEvacuationRoutes Overlay = "evacuation_routes"
)

var layerByOverlay = map[Overlay]string{
	OverlayFloodZones:       arcgis.LayerFloodZones,
	OverlayEvacuationRoutes: arcgis.LayerEvacuationRoutes,
}

// Overlays returns every known overlay in sorted order.
func Overlays() []Overlay {
	out := make([]Overlay, 0, len(layerByOverlay))
	for o := range layerByOverlay {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseOverlay normalizes a user-supplied overlay name.
func ParseOverlay(s string) (Overlay, bool) {
	o := Overlay(strings.ToLower(strings.TrimSpace(s)))
	_, ok := layerByOverlay[o]
	return o, ok
}

// OverlayFeatures fetches one overlay layer and keeps the features with
// at least one vertex within radiusMiles of origin. Flood zones and
// evacuation routes are polygons and polylines, so vertex proximity
// stands in for true geometric intersection with the search circle.
func (s *Service) OverlayFeatures(ctx context.Context, kind Overlay, origin zipindex.LatLon, radiusMiles float64) (*geojson.FeatureCollection, error) {
	layer, ok := layerByOverlay[kind]
	if !ok {
		return nil, eris.Errorf("facility: unknown overlay %q", kind)
	}

	fc, err := s.fetcher.Query(ctx, layer)
	if err != nil {
		return nil, eris.Wrapf(err, "facility: fetch overlay %s", kind)
	}

	out := &geojson.FeatureCollection{}
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		if anyVertexWithin(f.Geometry.FlatCoords(), f.Geometry.Stride(), origin, radiusMiles) {
			out.Features = append(out.Features, f)
		}
	}
	return out, nil
}

// anyVertexWithin scans flat (lon, lat, ...) coordinates for a vertex
// within radiusMiles of origin.
func anyVertexWithin(flat []float64, stride int, origin zipindex.LatLon, radiusMiles float64) bool {
	if stride < 2 {
		return false
	}
	for i := 0; i+1 < len(flat); i += stride {
		v := zipindex.LatLon{Lat: flat[i+1], Lon: flat[i]}
		if zipindex.DistanceMiles(origin, v) <= radiusMiles {
			return true
		}
	}
	return false
}
