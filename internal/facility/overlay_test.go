package facility

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/know-your-zip/explorer-cli/internal/arcgis"
)

// lineFeature builds a polyline whose vertices sit at the given
// latitude offsets (in miles) north of the origin.
func lineFeature(t *testing.T, name string, milesNorth ...float64) *geojson.Feature {
	t.Helper()
	flat := make([]float64, 0, 2*len(milesNorth))
	for _, m := range milesNorth {
		flat = append(flat, origin.Lon, origin.Lat+m*degPerMile)
	}
	return &geojson.Feature{
		Geometry:   geom.NewLineStringFlat(geom.XY, flat),
		Properties: map[string]any{"NAME": name},
	}
}

func TestOverlayFeatures_FiltersByVertexRadius(t *testing.T) {
	fetcher := &stubFetcher{layers: map[string]*geojson.FeatureCollection{
		arcgis.LayerEvacuationRoutes: {Features: []*geojson.Feature{
			lineFeature(t, "US-1 corridor", 1, 2),
			lineFeature(t, "far route", 30, 40),
			// One near vertex keeps the whole feature.
			lineFeature(t, "partial route", 4, 25),
		}},
	}}

	fc, err := NewService(fetcher).OverlayFeatures(context.Background(), OverlayEvacuationRoutes, origin, 5)
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)
	assert.Equal(t, "US-1 corridor", fc.Features[0].Properties["NAME"])
	assert.Equal(t, "partial route", fc.Features[1].Properties["NAME"])
}

func TestOverlayFeatures_SkipsNilGeometry(t *testing.T) {
	fetcher := &stubFetcher{layers: map[string]*geojson.FeatureCollection{
		arcgis.LayerFloodZones: {Features: []*geojson.Feature{
			{Properties: map[string]any{"ZONE": "AE"}},
			lineFeature(t, "coastal zone edge", 1),
		}},
	}}

	fc, err := NewService(fetcher).OverlayFeatures(context.Background(), OverlayFloodZones, origin, 5)
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
}

func TestOverlayFeatures_UnknownOverlay(t *testing.T) {
	_, err := NewService(&stubFetcher{}).OverlayFeatures(context.Background(), Overlay("traffic"), origin, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown overlay")
}

func TestOverlayFeatures_FetchError(t *testing.T) {
	fetcher := &stubFetcher{errs: map[string]error{
		arcgis.LayerFloodZones: assert.AnError,
	}}

	_, err := NewService(fetcher).OverlayFeatures(context.Background(), OverlayFloodZones, origin, 5)
	require.Error(t, err)
}

func TestParseOverlay(t *testing.T) {
	o, ok := ParseOverlay(" Flood_Zones ")
	assert.True(t, ok)
	assert.Equal(t, OverlayFloodZones, o)

	_, ok = ParseOverlay("traffic")
	assert.False(t, ok)
}

func TestOverlays_Sorted(t *testing.T) {
	assert.Equal(t, []Overlay{OverlayEvacuationRoutes, OverlayFloodZones}, Overlays())
}
