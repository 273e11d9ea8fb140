package arcgis

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/know-your-zip/explorer-cli/internal/resilience"
)

const zipGeoJSON = `{
	"type": "FeatureCollection",
	"features": [
		{
			"type": "Feature",
			"geometry": {
				"type": "Polygon",
				"coordinates": [[[-80.2, 25.7], [-80.1, 25.7], [-80.1, 25.8], [-80.2, 25.8], [-80.2, 25.7]]]
			},
			"properties": {"ZIPCODE": "33101"}
		}
	]
}`

func testClient(serverURL string) *Client {
	return NewClient(Options{
		BaseURL:    serverURL,
		RatePerSec: 1000,
		Burst:      1000,
		Retry: resilience.RetryConfig{
			MaxAttempts:    3,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     5 * time.Millisecond,
		},
	})
}

// ---------------------------------------------------------------------------
// Query
// ---------------------------------------------------------------------------

func TestQuery_DecodesFeatureCollection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ZipCode_gdb/FeatureServer/0/query", r.URL.Path)
		assert.Equal(t, "geojson", r.URL.Query().Get("f"))
		assert.Equal(t, "*", r.URL.Query().Get("outFields"))
		w.Write([]byte(zipGeoJSON)) //nolint:errcheck
	}))
	defer srv.Close()

	fc, err := testClient(srv.URL).Query(context.Background(), LayerZipBoundaries)
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "33101", fc.Features[0].Properties["ZIPCODE"])
	assert.IsType(t, &geom.Polygon{}, fc.Features[0].Geometry)
}

func TestQuery_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(zipGeoJSON)) //nolint:errcheck
	}))
	defer srv.Close()

	fc, err := testClient(srv.URL).Query(context.Background(), LayerZipBoundaries)
	require.NoError(t, err)
	assert.Len(t, fc.Features, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestQuery_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Query(context.Background(), "Nope/FeatureServer/0")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

// ---------------------------------------------------------------------------
// Decode
// ---------------------------------------------------------------------------

func TestDecode_EmbeddedServiceError(t *testing.T) {
	_, err := Decode([]byte(`{"error": {"code": 400, "message": "Invalid query"}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid query")
}

func TestDecode_MalformedPayload(t *testing.T) {
	_, err := Decode([]byte(`<html>not json</html>`))
	require.Error(t, err)
}

func TestDecode_EmptyCollection(t *testing.T) {
	fc, err := Decode([]byte(`{"type": "FeatureCollection", "features": []}`))
	require.NoError(t, err)
	assert.Empty(t, fc.Features)
}
