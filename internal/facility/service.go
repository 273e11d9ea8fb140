package facility

import (
	"context"
	"sort"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/know-your-zip/explorer-cli/internal/zipindex"
)

// LayerFetcher fetches one FeatureServer layer. Satisfied by
// *arcgis.Client.
type LayerFetcher interface {
	Query(ctx context.Context, layer string) (*geojson.FeatureCollection, error)
}

// Service answers facility-proximity queries over the county layers.
type Service struct {
	fetcher     LayerFetcher
	concurrency int
	log         *zap.Logger
}

// NewService creates a facility service over the given fetcher.
func NewService(fetcher LayerFetcher) *Service {
	return &Service{
		fetcher:     fetcher,
		concurrency: 4,
		log:         zap.L().With(zap.String("component", "facility")),
	}
}

// Nearby returns all facilities of the requested categories within
// radiusMiles of origin, sorted by distance. Categories that fail to
// fetch are skipped with a warning; the call fails only when every
// requested category fails.
func (s *Service) Nearby(ctx context.Context, origin zipindex.LatLon, radiusMiles float64, categories []Category) ([]Facility, error) {
	if len(categories) == 0 {
		categories = Categories()
	}

	var mu sync.Mutex
	var out []Facility
	var failed int

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.concurrency)

	for _, cat := range categories {
		cat := cat
		layer, ok := layerByCategory[cat]
		if !ok {
			return nil, eris.Errorf("facility: unknown category %q", cat)
		}

		eg.Go(func() error {
			fc, err := s.fetcher.Query(gCtx, layer)
			if err != nil {
				s.log.Warn("facility layer fetch failed",
					zap.String("category", string(cat)),
					zap.Error(err),
				)
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}

			var matched []Facility
			for _, f := range fc.Features {
				fac, ok := fromFeature(f, cat)
				if !ok {
					continue
				}
				fac.DistanceMiles = zipindex.DistanceMiles(origin, fac.Location)
				if fac.DistanceMiles <= radiusMiles {
					matched = append(matched, fac)
				}
			}

			mu.Lock()
			out = append(out, matched...)
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if failed == len(categories) {
		return nil, eris.New("facility: all requested layers failed to fetch")
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].DistanceMiles != out[j].DistanceMiles {
			return out[i].DistanceMiles < out[j].DistanceMiles
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// CountsByCategory summarizes how many facilities of each requested
// category lie within radiusMiles of origin.
func (s *Service) CountsByCategory(ctx context.Context, origin zipindex.LatLon, radiusMiles float64, categories []Category) (map[Category]int, error) {
	facilities, err := s.Nearby(ctx, origin, radiusMiles, categories)
	if err != nil {
		return nil, err
	}
	counts := make(map[Category]int)
	for _, f := range facilities {
		counts[f.Category]++
	}
	return counts, nil
}
