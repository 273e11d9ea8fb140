package source

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/know-your-zip/explorer-cli/internal/arcgis"
	"github.com/know-your-zip/explorer-cli/internal/snapshot"
)

// ArcGISSource pulls ZIP boundaries from the county FeatureServer
// layer. When a snapshot store is attached, each successful fetch is
// persisted and an unreachable upstream falls back to the last good
// payload instead of failing the refresh.
type ArcGISSource struct {
	client *arcgis.Client
	layer  string
	cache  *snapshot.Store
	log    *zap.Logger
}

// NewArcGISSource creates a source over the given layer. cache may be
// nil to disable the fallback.
func NewArcGISSource(client *arcgis.Client, layer string, cache *snapshot.Store) *ArcGISSource {
	if layer == "" {
		layer = arcgis.LayerZipBoundaries
	}
	return &ArcGISSource{
		client: client,
		layer:  layer,
		cache:  cache,
		log:    zap.L().With(zap.String("component", "source.arcgis")),
	}
}

// FetchBoundaries implements BoundarySource.
func (s *ArcGISSource) FetchBoundaries(ctx context.Context) (*geojson.FeatureCollection, error) {
	raw, err := s.client.QueryRaw(ctx, s.layer)
	if err != nil {
		return s.fallback(ctx, err)
	}

	fc, err := arcgis.Decode(raw)
	if err != nil {
		return s.fallback(ctx, err)
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, s.layer, raw); err != nil {
			s.log.Warn("failed to persist boundary snapshot", zap.Error(err))
		}
	}
	return fc, nil
}

// fallback serves the cached payload when the live fetch failed.
func (s *ArcGISSource) fallback(ctx context.Context, cause error) (*geojson.FeatureCollection, error) {
	if s.cache == nil {
		return nil, eris.Wrap(cause, "source: fetch ZIP boundaries")
	}

	payload, fetchedAt, ok, err := s.cache.Get(ctx, s.layer)
	if err != nil || !ok {
		return nil, eris.Wrap(cause, "source: fetch ZIP boundaries (no cached snapshot)")
	}

	s.log.Warn("upstream unavailable, serving cached boundary snapshot",
		zap.Time("fetched_at", fetchedAt),
		zap.Error(cause),
	)
	return arcgis.Decode(payload)
}
