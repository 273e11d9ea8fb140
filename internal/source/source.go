// Package source provides the boundary-feature sources the ZIP index
// pulls from: the county ArcGIS open-data layer, TIGER/Line ZCTA
// shapefiles, and an in-memory source for fixtures.
package source

import (
	"context"

	"github.com/twpayne/go-geom/encoding/geojson"
)

// BoundarySource yields the full set of ZIP boundary features for the
// service area. Implementations own their transport, retry, and
// fallback policy; the index only cares about the feature collection.
type BoundarySource interface {
	FetchBoundaries(ctx context.Context) (*geojson.FeatureCollection, error)
}

// StaticSource serves a fixed feature collection. Used in tests and for
// preloaded fixture data.
type StaticSource struct {
	Collection *geojson.FeatureCollection
	Err        error
}

// FetchBoundaries implements BoundarySource.
func (s *StaticSource) FetchBoundaries(_ context.Context) (*geojson.FeatureCollection, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Collection, nil
}
