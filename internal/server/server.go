// Package server exposes the ZIP index and facility service as a JSON
// HTTP API for the dashboard frontends.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/know-your-zip/explorer-cli/internal/facility"
	"github.com/know-your-zip/explorer-cli/internal/zipindex"
)

// FacilityFinder is the slice of the facility service the API uses.
type FacilityFinder interface {
	Nearby(ctx context.Context, origin zipindex.LatLon, radiusMiles float64, categories []facility.Category) ([]facility.Facility, error)
	OverlayFeatures(ctx context.Context, kind facility.Overlay, origin zipindex.LatLon, radiusMiles float64) (*geojson.FeatureCollection, error)
}

// Server wires the index and facility service into an HTTP handler.
type Server struct {
	index      *zipindex.Index
	facilities FacilityFinder
	log        *zap.Logger
}

// New creates a Server. facilities may be nil when the deployment only
// serves ZIP geometry queries.
func New(index *zipindex.Index, facilities FacilityFinder) *Server {
	return &Server{
		index:      index,
		facilities: facilities,
		log:        zap.L().With(zap.String("component", "server")),
	}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/zips", s.handleListZips)
	r.Get("/zips/{code}", s.handleZipInfo)
	r.Get("/zips/{code}/neighbors", s.handleNeighbors)
	r.Get("/zips/{code}/area", s.handleArea)
	r.Get("/zips/{code}/contains", s.handleContains)
	r.Get("/nearest", s.handleNearest)
	r.Get("/boundaries", s.handleBoundaries)
	r.Post("/refresh", s.handleRefresh)
	if s.facilities != nil {
		r.Get("/facilities/nearby", s.handleFacilitiesNearby)
		r.Get("/overlays/{kind}", s.handleOverlay)
	}
	return r
}

// statusWriter captures the response status for request logging.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sw, r)

		s.log.Info("request",
			zap.String("request_id", reqID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// queryFloat parses a required float query parameter.
func queryFloat(r *http.Request, name string) (float64, bool) {
	v, err := strconv.ParseFloat(r.URL.Query().Get(name), 64)
	return v, err == nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"zip_codes": s.index.Len(),
	})
}

func (s *Server) handleListZips(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"codes": s.index.AllCodes()})
}

// lookupZip resolves the {code} path parameter, writing the error
// response itself when the code is malformed or unknown.
func (s *Server) lookupZip(w http.ResponseWriter, r *http.Request) (*zipindex.Record, bool) {
	code := chi.URLParam(r, "code")
	ok, msg, rec := s.index.Validate(code)
	if !ok {
		status := http.StatusNotFound
		if msg == zipindex.MsgInvalidFormat {
			status = http.StatusBadRequest
		}
		respondError(w, status, msg)
		return nil, false
	}
	return rec, true
}

func (s *Server) handleZipInfo(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookupZip(w, r)
	if !ok {
		return
	}

	body := map[string]any{
		"code":     rec.Code,
		"centroid": rec.Centroid,
	}
	if area, ok := s.index.AreaEstimate(rec.Code); ok {
		body["square_miles"] = area
	}
	if len(rec.Attributes) > 0 {
		body["attributes"] = rec.Attributes
	}
	respondJSON(w, http.StatusOK, body)
}

func (s *Server) handleNeighbors(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookupZip(w, r)
	if !ok {
		return
	}

	radius := 5.0
	if v, ok := queryFloat(r, "radius"); ok {
		radius = v
	}
	if radius < 0 {
		respondError(w, http.StatusBadRequest, "radius must be non-negative")
		return
	}

	neighbors := s.index.Neighbors(rec.Code, radius)
	if neighbors == nil {
		neighbors = []string{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"code":         rec.Code,
		"radius_miles": radius,
		"neighbors":    neighbors,
	})
}

func (s *Server) handleArea(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookupZip(w, r)
	if !ok {
		return
	}

	area, estimated := s.index.AreaEstimate(rec.Code)
	if !estimated {
		area = zipindex.FallbackAreaSqMi
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"code":         rec.Code,
		"square_miles": area,
		"estimated":    estimated,
	})
}

func (s *Server) handleContains(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookupZip(w, r)
	if !ok {
		return
	}

	lat, okLat := queryFloat(r, "lat")
	lon, okLon := queryFloat(r, "lon")
	if !okLat || !okLon {
		respondError(w, http.StatusBadRequest, "lat and lon are required")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"code":     rec.Code,
		"contains": s.index.Contains(lat, lon, rec.Code),
	})
}

func (s *Server) handleNearest(w http.ResponseWriter, r *http.Request) {
	lat, okLat := queryFloat(r, "lat")
	lon, okLon := queryFloat(r, "lon")
	if !okLat || !okLon {
		respondError(w, http.StatusBadRequest, "lat and lon are required")
		return
	}

	code, ok := s.index.Nearest(lat, lon)
	if !ok {
		respondError(w, http.StatusNotFound, "no ZIP code near the given point")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"code": code})
}

func (s *Server) handleBoundaries(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/geo+json")
	_ = json.NewEncoder(w).Encode(s.index.BoundaryCollection())
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.index.Refresh(r.Context()); err != nil {
		s.log.Error("refresh failed", zap.Error(err))
		respondError(w, http.StatusBadGateway, "boundary refresh failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "refreshed",
		"zip_codes": s.index.Len(),
	})
}

func (s *Server) handleFacilitiesNearby(w http.ResponseWriter, r *http.Request) {
	lat, okLat := queryFloat(r, "lat")
	lon, okLon := queryFloat(r, "lon")
	if !okLat || !okLon {
		respondError(w, http.StatusBadRequest, "lat and lon are required")
		return
	}

	radius := 5.0
	if v, ok := queryFloat(r, "radius"); ok {
		radius = v
	}

	var categories []facility.Category
	for _, raw := range r.URL.Query()["category"] {
		cat, ok := facility.ParseCategory(raw)
		if !ok {
			respondError(w, http.StatusBadRequest, "unknown category: "+raw)
			return
		}
		categories = append(categories, cat)
	}

	facilities, err := s.facilities.Nearby(r.Context(), zipindex.LatLon{Lat: lat, Lon: lon}, radius, categories)
	if err != nil {
		s.log.Error("facility lookup failed", zap.Error(err))
		respondError(w, http.StatusBadGateway, "facility lookup failed")
		return
	}
	if facilities == nil {
		facilities = []facility.Facility{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"radius_miles": radius,
		"facilities":   facilities,
	})
}

func (s *Server) handleOverlay(w http.ResponseWriter, r *http.Request) {
	kind, ok := facility.ParseOverlay(chi.URLParam(r, "kind"))
	if !ok {
		respondError(w, http.StatusNotFound, "unknown overlay: "+chi.URLParam(r, "kind"))
		return
	}

	lat, okLat := queryFloat(r, "lat")
	lon, okLon := queryFloat(r, "lon")
	if !okLat || !okLon {
		respondError(w, http.StatusBadRequest, "lat and lon are required")
		return
	}

	radius := 5.0
	if v, ok := queryFloat(r, "radius"); ok {
		radius = v
	}

	fc, err := s.facilities.OverlayFeatures(r.Context(), kind, zipindex.LatLon{Lat: lat, Lon: lon}, radius)
	if err != nil {
		s.log.Error("overlay lookup failed", zap.Error(err))
		respondError(w, http.StatusBadGateway, "overlay lookup failed")
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	_ = json.NewEncoder(w).Encode(fc)
}
