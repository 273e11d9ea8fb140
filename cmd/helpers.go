package main

import (
	"context"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/know-your-zip/explorer-cli/internal/arcgis"
	"github.com/know-your-zip/explorer-cli/internal/facility"
	"github.com/know-your-zip/explorer-cli/internal/resilience"
	"github.com/know-your-zip/explorer-cli/internal/snapshot"
	"github.com/know-your-zip/explorer-cli/internal/source"
	"github.com/know-your-zip/explorer-cli/internal/zipindex"
)

// env holds the wired services a command needs, plus their closers.
type env struct {
	index      *zipindex.Index
	facilities *facility.Service
	cache      *snapshot.Store
}

func (e *env) Close() {
	if e.cache != nil {
		_ = e.cache.Close()
	}
}

func parseLatLon(latArg, lonArg string) (float64, float64, error) {
	lat, err := strconv.ParseFloat(latArg, 64)
	if err != nil {
		return 0, 0, eris.Wrapf(err, "parse latitude %q", latArg)
	}
	lon, err := strconv.ParseFloat(lonArg, 64)
	if err != nil {
		return 0, 0, eris.Wrapf(err, "parse longitude %q", lonArg)
	}
	return lat, lon, nil
}

func arcgisClient() *arcgis.Client {
	return arcgis.NewClient(arcgis.Options{
		BaseURL:    cfg.Source.BaseURL,
		UserAgent:  cfg.Source.UserAgent,
		Timeout:    time.Duration(cfg.Source.TimeoutSecs) * time.Second,
		Retry:      resilience.RetryConfig{MaxAttempts: cfg.Source.MaxRetries},
		RatePerSec: cfg.Source.RatePerSec,
	})
}

// initEnv builds the boundary source from config, refreshes the index
// once, and wires the facility service.
func initEnv(ctx context.Context) (*env, error) {
	e := &env{}

	var src source.BoundarySource
	switch cfg.Source.Provider {
	case "shapefile":
		if cfg.Source.ShapefilePath == "" {
			return nil, eris.New("init: shapefile provider requires source.shapefile_path")
		}
		src = &source.ShapefileSource{
			Path:       cfg.Source.ShapefilePath,
			CodeField:  cfg.Source.CodeField,
			CodePrefix: cfg.Source.CodePrefix,
		}
	case "arcgis", "":
		client := arcgisClient()
		cache, err := snapshot.Open(cfg.Source.SnapshotPath)
		if err != nil {
			zap.L().Warn("snapshot cache unavailable", zap.Error(err))
		} else {
			e.cache = cache
		}
		src = source.NewArcGISSource(client, cfg.Source.Layer, e.cache)
		e.facilities = facility.NewService(client)
	default:
		return nil, eris.Errorf("init: unknown source provider %q", cfg.Source.Provider)
	}

	e.index = zipindex.New(src, cfg.Region)
	if err := e.index.Refresh(ctx); err != nil {
		e.Close()
		return nil, err
	}

	return e, nil
}
