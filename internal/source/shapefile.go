package source

import (
	"context"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
)

// zctaFieldCandidates are the attribute names TIGER/Line vintages use
// for the ZCTA code, newest first.
var zctaFieldCandidates = []string{"ZCTA5CE20", "ZCTA5CE10", "ZCTA5", "ZIPCODE", "ZIP"}

// ShapefileSource reads ZIP boundaries from a local TIGER/Line ZCTA
// shapefile, as an offline alternative to the county GIS layer. The
// national ZCTA file covers every state, so CodePrefix trims it to the
// service area (e.g. "33" for Miami-Dade codes).
type ShapefileSource struct {
	Path       string
	CodeField  string // auto-detected when empty
	CodePrefix string
}

// FetchBoundaries implements BoundarySource.
func (s *ShapefileSource) FetchBoundaries(_ context.Context) (*geojson.FeatureCollection, error) {
	reader, err := shp.Open(s.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open shapefile %s", s.Path)
	}
	defer reader.Close() //nolint:errcheck

	fields := reader.Fields()
	codeIdx := s.codeFieldIndex(fields)
	if codeIdx < 0 {
		return nil, eris.Errorf("source: no ZCTA code field found in %s", s.Path)
	}

	log := zap.L().With(zap.String("component", "source.shapefile"))
	fc := &geojson.FeatureCollection{}
	for reader.Next() {
		_, shape := reader.Shape()
		if shape == nil {
			continue
		}

		code := strings.TrimSpace(reader.Attribute(codeIdx))
		if code == "" || (s.CodePrefix != "" && !strings.HasPrefix(code, s.CodePrefix)) {
			continue
		}

		g := shapeToGeometry(shape)
		if g == nil {
			log.Warn("skipping record with unsupported shape", zap.String("code", code))
			continue
		}

		props := map[string]any{"ZIPCODE": code}
		for i, f := range fields {
			name := strings.TrimRight(f.String(), "\x00")
			if i != codeIdx && name != "" {
				props[name] = reader.Attribute(i)
			}
		}

		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         code,
			Geometry:   g,
			Properties: props,
		})
	}

	return fc, nil
}

// codeFieldIndex locates the ZCTA attribute column.
func (s *ShapefileSource) codeFieldIndex(fields []shp.Field) int {
	candidates := zctaFieldCandidates
	if s.CodeField != "" {
		candidates = []string{s.CodeField}
	}
	for _, want := range candidates {
		for i, f := range fields {
			if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), want) {
				return i
			}
		}
	}
	return -1
}

// shapeToGeometry converts a shapefile record to a geometry the index
// can ingest. Polygons become multi-polygons (one part per ring);
// points pass through.
func shapeToGeometry(s shp.Shape) geom.T {
	switch t := s.(type) {
	case *shp.Point:
		return geom.NewPointFlat(geom.XY, []float64{t.X, t.Y})
	case *shp.Polygon:
		return polygonToMultiPolygon(t)
	default:
		return nil
	}
}

// polygonToMultiPolygon expands a shapefile polygon's parts into a
// geom.MultiPolygon.
func polygonToMultiPolygon(p *shp.Polygon) geom.T {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY)
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(geom.NewLinearRingFlat(geom.XY, flat)); err != nil {
			continue
		}
		if err := mp.Push(poly); err != nil {
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}
