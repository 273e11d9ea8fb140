package zipindex

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/know-your-zip/explorer-cli/internal/source"
)

// degPerMile converts statute miles to degrees of latitude for fixture
// placement (valid along a meridian).
const degPerMile = 0.0144728

const (
	baseLat = 25.76
	baseLon = -80.19
)

// fixtureCollection builds three ZIP squares whose centroids sit at
// 0, 2, and 8 miles from the base point, plus one point-only feature.
func fixtureCollection(t *testing.T) *geojson.FeatureCollection {
	t.Helper()
	return &geojson.FeatureCollection{
		Features: []*geojson.Feature{
			{
				Geometry:   squarePolygon(t, baseLat, baseLon, 0.05),
				Properties: map[string]any{"ZIPCODE": "33101", "CITY": "Miami"},
			},
			{
				Geometry:   squarePolygon(t, baseLat+2*degPerMile, baseLon, 0.01),
				Properties: map[string]any{"ZIPCODE": "33102"},
			},
			{
				Geometry:   squarePolygon(t, baseLat+8*degPerMile, baseLon, 0.01),
				Properties: map[string]any{"ZIPCODE": "33103"},
			},
			{
				Geometry:   geom.NewPointFlat(geom.XY, []float64{-80.13, 25.77}),
				Properties: map[string]any{"ZIPCODE": "33109"},
			},
		},
	}
}

func fixtureIndex(t *testing.T) *Index {
	t.Helper()
	ix := New(&source.StaticSource{Collection: fixtureCollection(t)}, DefaultRegion())
	require.NoError(t, ix.Refresh(context.Background()))
	return ix
}

// ---------------------------------------------------------------------------
// ValidateFormat
// ---------------------------------------------------------------------------

func TestValidateFormat(t *testing.T) {
	valid := []string{"33101", "00501", "99999"}
	for _, c := range valid {
		assert.True(t, ValidateFormat(c), c)
	}

	invalid := []string{"", "1234", "123456", "abcde", "12a45", "abc12", " 33101", "33101 ", "3310１"}
	for _, c := range invalid {
		assert.False(t, ValidateFormat(c), c)
	}
}

// ---------------------------------------------------------------------------
// Refresh
// ---------------------------------------------------------------------------

func TestRefresh_BuildsIndex(t *testing.T) {
	ix := fixtureIndex(t)
	assert.Equal(t, 4, ix.Len())
	assert.Equal(t, []string{"33101", "33102", "33103", "33109"}, ix.AllCodes())
}

func TestRefresh_SkipsMalformedFeatures(t *testing.T) {
	fc := fixtureCollection(t)
	fc.Features = append(fc.Features,
		&geojson.Feature{Properties: map[string]any{"ZIPCODE": "ABCDE"}},
		&geojson.Feature{Properties: map[string]any{"NAME": "no code"}},
		&geojson.Feature{Properties: map[string]any{"ZIPCODE": "33199"}}, // nil geometry, no centroid
	)

	ix := New(&source.StaticSource{Collection: fc}, DefaultRegion())
	require.NoError(t, ix.Refresh(context.Background()))
	assert.Equal(t, 4, ix.Len())
	assert.Nil(t, ix.Info("33199"))
}

func TestRefresh_ZeroPadsNumericCodes(t *testing.T) {
	fc := &geojson.FeatureCollection{
		Features: []*geojson.Feature{
			{
				Geometry:   geom.NewPointFlat(geom.XY, []float64{baseLon, baseLat}),
				Properties: map[string]any{"ZIPCODE": float64(501)},
			},
		},
	}

	ix := New(&source.StaticSource{Collection: fc}, DefaultRegion())
	require.NoError(t, ix.Refresh(context.Background()))
	assert.NotNil(t, ix.Info("00501"))
}

func TestRefresh_EmptyUpstreamRetainsPreviousIndex(t *testing.T) {
	src := &source.StaticSource{Collection: fixtureCollection(t)}
	ix := New(src, DefaultRegion())
	require.NoError(t, ix.Refresh(context.Background()))
	before := ix.AllCodes()

	src.Collection = &geojson.FeatureCollection{}
	require.Error(t, ix.Refresh(context.Background()))
	assert.Equal(t, before, ix.AllCodes())
}

func TestRefresh_FetchFailureRetainsPreviousIndex(t *testing.T) {
	src := &source.StaticSource{Collection: fixtureCollection(t)}
	ix := New(src, DefaultRegion())
	require.NoError(t, ix.Refresh(context.Background()))

	src.Err = assert.AnError
	require.Error(t, ix.Refresh(context.Background()))
	assert.Equal(t, 4, ix.Len())
}

func TestRefresh_ErrorBeforeFirstBuildLeavesEmptyIndex(t *testing.T) {
	ix := New(&source.StaticSource{Err: assert.AnError}, DefaultRegion())
	require.Error(t, ix.Refresh(context.Background()))
	assert.Zero(t, ix.Len())
	assert.Empty(t, ix.AllCodes())
}

// ---------------------------------------------------------------------------
// Validate / Info / Coordinates
// ---------------------------------------------------------------------------

func TestValidate_InvalidFormat(t *testing.T) {
	ix := fixtureIndex(t)

	ok, msg, rec := ix.Validate("abc12")
	assert.False(t, ok)
	assert.Equal(t, MsgInvalidFormat, msg)
	assert.Nil(t, rec)
}

func TestValidate_NotInServiceArea(t *testing.T) {
	ix := fixtureIndex(t)

	ok, msg, rec := ix.Validate("99999")
	assert.False(t, ok)
	assert.Equal(t, MsgNotInServiceArea, msg)
	assert.Nil(t, rec)
}

func TestValidate_Known(t *testing.T) {
	ix := fixtureIndex(t)

	ok, msg, rec := ix.Validate("33101")
	assert.True(t, ok)
	assert.Equal(t, MsgValid, msg)
	require.NotNil(t, rec)
	assert.Equal(t, "33101", rec.Code)
	assert.Equal(t, "Miami", rec.Attributes["CITY"])
}

func TestInfo_AbsentForMalformedAndUnknown(t *testing.T) {
	ix := fixtureIndex(t)
	assert.Nil(t, ix.Info("3310"))
	assert.Nil(t, ix.Info("99999"))
	assert.NotNil(t, ix.Info("33101"))
}

func TestCoordinates_FiniteForAllCodes(t *testing.T) {
	ix := fixtureIndex(t)
	for _, code := range ix.AllCodes() {
		require.NotNil(t, ix.Info(code), code)
		c, ok := ix.Coordinates(code)
		require.True(t, ok, code)
		assert.False(t, math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0), code)
		assert.False(t, math.IsNaN(c.Lon) || math.IsInf(c.Lon, 0), code)
	}
}

func TestCoordinates_AbsentForUnknown(t *testing.T) {
	ix := fixtureIndex(t)
	_, ok := ix.Coordinates("99999")
	assert.False(t, ok)
}

// ---------------------------------------------------------------------------
// Area
// ---------------------------------------------------------------------------

func TestAreaEstimate_PolygonDerived(t *testing.T) {
	ix := fixtureIndex(t)

	// 0.1 x 0.1 degree square = 0.01 sq deg, scaled by 4000.
	a, ok := ix.AreaEstimate("33101")
	require.True(t, ok)
	assert.InDelta(t, 40.0, a, 1e-6)
}

func TestAreaEstimate_FailsForPointGeometry(t *testing.T) {
	ix := fixtureIndex(t)
	_, ok := ix.AreaEstimate("33109")
	assert.False(t, ok)
}

func TestArea_FallbackForUncomputable(t *testing.T) {
	ix := fixtureIndex(t)
	assert.Equal(t, FallbackAreaSqMi, ix.Area("33109"))
	assert.Equal(t, FallbackAreaSqMi, ix.Area("99999"))
	assert.InDelta(t, 40.0, ix.Area("33101"), 1e-6)
}

// ---------------------------------------------------------------------------
// Contains
// ---------------------------------------------------------------------------

func TestContains_OwnCentroid(t *testing.T) {
	ix := fixtureIndex(t)
	for _, code := range []string{"33101", "33102", "33103"} {
		c, ok := ix.Coordinates(code)
		require.True(t, ok)
		assert.True(t, ix.Contains(c.Lat, c.Lon, code), code)
	}
}

func TestContains_FalseForUnknownOrPointGeometry(t *testing.T) {
	ix := fixtureIndex(t)
	assert.False(t, ix.Contains(baseLat, baseLon, "99999"))
	assert.False(t, ix.Contains(25.77, -80.13, "33109"))
}

// ---------------------------------------------------------------------------
// Nearest
// ---------------------------------------------------------------------------

func TestNearest_ExactCentroidMatch(t *testing.T) {
	ix := fixtureIndex(t)

	c, ok := ix.Coordinates("33102")
	require.True(t, ok)

	code, ok := ix.Nearest(c.Lat, c.Lon)
	require.True(t, ok)
	assert.Equal(t, "33102", code)
}

func TestNearest_OutsideServiceBoundingBox(t *testing.T) {
	ix := fixtureIndex(t)
	_, ok := ix.Nearest(40.71, -74.00) // New York
	assert.False(t, ok)
}

func TestNearest_BeyondCutoff(t *testing.T) {
	ix := fixtureIndex(t)
	// Inside the service box but more than 10 miles from every centroid.
	_, ok := ix.Nearest(25.15, -80.85)
	assert.False(t, ok)
}

func TestNearest_DeterministicTieBreak(t *testing.T) {
	// Two centroids equidistant from the probe point: the smaller code wins.
	fc := &geojson.FeatureCollection{
		Features: []*geojson.Feature{
			{
				Geometry:   geom.NewPointFlat(geom.XY, []float64{baseLon - 0.05, baseLat}),
				Properties: map[string]any{"ZIPCODE": "33110"},
			},
			{
				Geometry:   geom.NewPointFlat(geom.XY, []float64{baseLon + 0.05, baseLat}),
				Properties: map[string]any{"ZIPCODE": "33105"},
			},
		},
	}
	ix := New(&source.StaticSource{Collection: fc}, DefaultRegion())
	require.NoError(t, ix.Refresh(context.Background()))

	code, ok := ix.Nearest(baseLat, baseLon)
	require.True(t, ok)
	assert.Equal(t, "33105", code)
}

// ---------------------------------------------------------------------------
// Neighbors
// ---------------------------------------------------------------------------

func TestNeighbors_ZeroRadiusIsEmpty(t *testing.T) {
	ix := fixtureIndex(t)
	assert.Empty(t, ix.Neighbors("33101", 0))
}

func TestNeighbors_RadiusFiltering(t *testing.T) {
	ix := fixtureIndex(t)

	// 33102 is ~2 miles away, 33103 ~8 miles; 33109 ~4.3 miles east.
	got := ix.Neighbors("33101", 5)
	assert.Contains(t, got, "33102")
	assert.NotContains(t, got, "33103")

	got = ix.Neighbors("33101", 9)
	assert.Contains(t, got, "33102")
	assert.Contains(t, got, "33103")
}

func TestNeighbors_MonotonicInRadius(t *testing.T) {
	ix := fixtureIndex(t)
	radii := []float64{0, 1, 2.5, 5, 9, 20}

	var prev []string
	for _, r := range radii {
		got := ix.Neighbors("33101", r)
		for _, code := range prev {
			assert.Contains(t, got, code, "radius %v lost %s", r, code)
		}
		prev = got
	}
}

func TestNeighbors_UnknownCodeEmpty(t *testing.T) {
	ix := fixtureIndex(t)
	assert.Empty(t, ix.Neighbors("99999", 50))
	assert.Empty(t, ix.Neighbors("bad", 50))
}

// ---------------------------------------------------------------------------
// BoundaryCollection
// ---------------------------------------------------------------------------

func TestBoundaryCollection_TagsEveryGeometry(t *testing.T) {
	ix := fixtureIndex(t)

	fc := ix.BoundaryCollection()
	require.Len(t, fc.Features, 4)
	for _, f := range fc.Features {
		assert.NotNil(t, f.Geometry)
		assert.Equal(t, f.ID, f.Properties["zip"])
	}
}
