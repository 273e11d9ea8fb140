// Package zipindex maintains the in-memory index of ZIP boundary
// polygons for the service area and answers the geometric queries the
// dashboards are built on: format validation, centroid lookup, area
// estimates, point containment, nearest-ZIP, and radius neighbors.
package zipindex

import (
	"context"
	"regexp"
	"sort"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/know-your-zip/explorer-cli/internal/source"
)

// Validation messages returned by Validate.
const (
	MsgInvalidFormat    = "invalid ZIP code format: must be 5 digits"
	MsgNotInServiceArea = "ZIP code not in service area"
	MsgValid            = "valid ZIP code"
)

// FallbackAreaSqMi is returned by Area when no estimate can be computed.
// Kept for compatibility with the dashboard consumers; AreaEstimate
// exposes the failure distinctly.
const FallbackAreaSqMi = 1.0

var zipPattern = regexp.MustCompile(`^\d{5}$`)

// ValidateFormat reports whether code is exactly five ASCII digits.
func ValidateFormat(code string) bool {
	return zipPattern.MatchString(code)
}

// RegionConfig calibrates the index for one service area. AreaScale
// converts squared degrees of planar polygon area into square miles and
// is only valid near the latitude band it was calibrated for; the
// default is tuned for Miami-Dade County at 25.76°N.
type RegionConfig struct {
	AreaScale          float64 `yaml:"area_scale" mapstructure:"area_scale"`
	Bounds             BBox    `yaml:"bounds" mapstructure:"bounds"`
	BoundsPaddingDeg   float64 `yaml:"bounds_padding_deg" mapstructure:"bounds_padding_deg"`
	NearestCutoffMiles float64 `yaml:"nearest_cutoff_miles" mapstructure:"nearest_cutoff_miles"`
}

// DefaultRegion returns the Miami-Dade County calibration.
func DefaultRegion() RegionConfig {
	return RegionConfig{
		AreaScale:          4000,
		Bounds:             BBox{MinLat: 25.1, MaxLat: 26.1, MinLon: -80.9, MaxLon: -80.0},
		BoundsPaddingDeg:   0.25,
		NearestCutoffMiles: 10,
	}
}

// Index holds ZIP boundary records and answers geometric queries over
// them. Queries are pure computations against an immutable snapshot and
// are safe to run concurrently with Refresh, which swaps in a fully
// built replacement snapshot in one atomic store.
type Index struct {
	src    source.BoundarySource
	region RegionConfig
	log    *zap.Logger
	snap   atomic.Pointer[snapshot]
}

// New creates an empty index over the given boundary source. Call
// Refresh to populate it.
func New(src source.BoundarySource, region RegionConfig) *Index {
	ix := &Index{
		src:    src,
		region: region,
		log:    zap.L().With(zap.String("component", "zipindex")),
	}
	ix.snap.Store(emptySnapshot)
	return ix
}

// Refresh pulls every boundary feature from the source and rebuilds the
// index. Features with a missing or malformed code, or whose geometry
// yields no computable centroid, are skipped with a warning. A fetch
// failure or an empty upstream response leaves the previous index in
// place and returns an error; a populated index is never replaced by an
// empty one.
func (ix *Index) Refresh(ctx context.Context) error {
	fc, err := ix.src.FetchBoundaries(ctx)
	if err != nil {
		return eris.Wrap(err, "zipindex: fetch boundaries")
	}
	if fc == nil || len(fc.Features) == 0 {
		return eris.New("zipindex: upstream returned no boundary features")
	}

	records := make(map[string]*Record, len(fc.Features))
	var skipped int
	for _, f := range fc.Features {
		code, ok := extractCode(f.Properties)
		if !ok || !ValidateFormat(code) {
			skipped++
			ix.log.Warn("skipping feature with missing or malformed ZIP code",
				zap.String("code", code))
			continue
		}
		centroid, ok := centroidOf(f.Geometry)
		if !ok {
			skipped++
			ix.log.Warn("skipping feature with no computable centroid",
				zap.String("code", code))
			continue
		}
		records[code] = &Record{
			Code:       code,
			Geometry:   f.Geometry,
			Centroid:   centroid,
			Attributes: f.Properties,
		}
	}
	if len(records) == 0 {
		return eris.New("zipindex: no usable boundary features in upstream response")
	}

	codes := make([]string, 0, len(records))
	for code := range records {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	ix.snap.Store(&snapshot{records: records, codes: codes})
	ix.log.Info("ZIP index refreshed",
		zap.Int("records", len(records)),
		zap.Int("skipped", skipped),
	)
	return nil
}

// Len returns the number of indexed ZIP codes.
func (ix *Index) Len() int {
	return len(ix.snap.Load().records)
}

// Info returns the record for code, or nil if the code is malformed or
// not in the service area. Absence is a normal outcome, not an error.
func (ix *Index) Info(code string) *Record {
	if !ValidateFormat(code) {
		return nil
	}
	return ix.snap.Load().records[code]
}

// Validate performs the comprehensive three-outcome check: malformed
// format, well-formed but unknown, or known.
func (ix *Index) Validate(code string) (bool, string, *Record) {
	if !ValidateFormat(code) {
		return false, MsgInvalidFormat, nil
	}
	rec := ix.snap.Load().records[code]
	if rec == nil {
		return false, MsgNotInServiceArea, nil
	}
	return true, MsgValid, rec
}

// Coordinates returns the centroid of the given ZIP code.
func (ix *Index) Coordinates(code string) (LatLon, bool) {
	rec := ix.Info(code)
	if rec == nil {
		return LatLon{}, false
	}
	return rec.Centroid, true
}

// AreaEstimate returns the approximate area of the ZIP in square miles,
// or ok=false when the code is unknown or its geometry yields no area.
// The estimate is planar shoelace area scaled by the regional
// calibration constant and is not a general-purpose projection.
func (ix *Index) AreaEstimate(code string) (float64, bool) {
	rec := ix.Info(code)
	if rec == nil || rec.Geometry == nil {
		return 0, false
	}
	a, ok := planarArea(rec.Geometry)
	if !ok {
		return 0, false
	}
	return a * ix.region.AreaScale, true
}

// Area returns the approximate area in square miles, falling back to
// FallbackAreaSqMi when no estimate can be computed. Callers ranking or
// visualizing by area should prefer AreaEstimate, which distinguishes
// the fallback from a measurement.
func (ix *Index) Area(code string) float64 {
	a, ok := ix.AreaEstimate(code)
	if !ok {
		return FallbackAreaSqMi
	}
	return a
}

// Contains reports whether the point lies inside the ZIP's boundary.
// Returns false, never an error, when the code is unknown or has no
// polygon geometry.
func (ix *Index) Contains(lat, lon float64, code string) bool {
	rec := ix.Info(code)
	if rec == nil || rec.Geometry == nil {
		return false
	}
	return geometryContains(LatLon{Lat: lat, Lon: lon}, rec.Geometry)
}

// Nearest returns the ZIP code whose centroid is closest to the point.
// Points outside the padded service bounding box resolve to no match,
// as does a best candidate farther than the configured cutoff. Ties are
// broken deterministically in favor of the lexicographically smallest
// code.
func (ix *Index) Nearest(lat, lon float64) (string, bool) {
	p := LatLon{Lat: lat, Lon: lon}
	if !ix.region.Bounds.Pad(ix.region.BoundsPaddingDeg).Contains(p) {
		return "", false
	}

	snap := ix.snap.Load()
	best := ""
	bestDist := ix.region.NearestCutoffMiles
	for _, code := range snap.codes {
		d := DistanceMiles(p, snap.records[code].Centroid)
		if d < bestDist || (best == "" && d == bestDist) {
			best = code
			bestDist = d
		}
	}
	if best == "" {
		return "", false
	}
	return best, true
}

// Neighbors returns every other ZIP code whose centroid lies within
// radiusMiles of the query code's centroid. An unknown query code
// yields an empty result.
func (ix *Index) Neighbors(code string, radiusMiles float64) []string {
	rec := ix.Info(code)
	if rec == nil {
		return nil
	}

	snap := ix.snap.Load()
	var out []string
	for _, other := range snap.codes {
		if other == code {
			continue
		}
		if DistanceMiles(rec.Centroid, snap.records[other].Centroid) <= radiusMiles {
			out = append(out, other)
		}
	}
	return out
}

// AllCodes returns every indexed ZIP code in sorted order.
func (ix *Index) AllCodes() []string {
	snap := ix.snap.Load()
	out := make([]string, len(snap.codes))
	copy(out, snap.codes)
	return out
}

// BoundaryCollection re-emits every record's geometry as a GeoJSON
// feature collection tagged with its ZIP code, for map rendering.
// Records without geometry are omitted.
func (ix *Index) BoundaryCollection() *geojson.FeatureCollection {
	snap := ix.snap.Load()
	fc := &geojson.FeatureCollection{}
	for _, code := range snap.codes {
		rec := snap.records[code]
		if rec.Geometry == nil {
			continue
		}
		props := map[string]any{"zip": rec.Code}
		for k, v := range rec.Attributes {
			props[k] = v
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         rec.Code,
			Geometry:   rec.Geometry,
			Properties: props,
		})
	}
	return fc
}
