// Package arcgis is a minimal client for ArcGIS FeatureServer layers,
// fetching full feature collections as GeoJSON. It is the only
// network-facing piece of the system; everything downstream works on
// decoded feature collections.
package arcgis

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/know-your-zip/explorer-cli/internal/resilience"
)

// DefaultBaseURL is the Miami-Dade County open-data ArcGIS host.
const DefaultBaseURL = "https://services.arcgis.com/8Pc9XBTAsYuxx9Ny/arcgis/rest/services"

// Options configures the client.
type Options struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	Retry      resilience.RetryConfig
	RatePerSec float64
	Burst      int
	HTTPClient *http.Client
}

// Client queries FeatureServer layers with retry and rate limiting.
type Client struct {
	baseURL   string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
	retry     resilience.RetryConfig
	log       *zap.Logger
}

// NewClient creates a FeatureServer client.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "explorer-cli/1.0"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RatePerSec == 0 {
		opts.RatePerSec = 5
	}
	if opts.Burst == 0 {
		opts.Burst = 5
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return &Client{
		baseURL:   opts.BaseURL,
		userAgent: opts.UserAgent,
		client:    client,
		limiter:   rate.NewLimiter(rate.Limit(opts.RatePerSec), opts.Burst),
		retry:     opts.Retry,
		log:       zap.L().With(zap.String("component", "arcgis")),
	}
}

// Query fetches every feature of a layer as GeoJSON. The layer path is
// relative to the service base, e.g. "ZipCode_gdb/FeatureServer/0".
func (c *Client) Query(ctx context.Context, layer string) (*geojson.FeatureCollection, error) {
	raw, err := c.QueryRaw(ctx, layer)
	if err != nil {
		return nil, err
	}
	return Decode(raw)
}

// QueryRaw fetches the layer's GeoJSON payload without decoding it, so
// callers can persist the raw bytes.
func (c *Client) QueryRaw(ctx context.Context, layer string) ([]byte, error) {
	q := url.Values{}
	q.Set("outFields", "*")
	q.Set("where", "1=1")
	q.Set("f", "geojson")
	endpoint := c.baseURL + "/" + layer + "/query?" + q.Encode()

	return resilience.Do(ctx, c.retry, "arcgis query "+layer, func(ctx context.Context) ([]byte, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "arcgis: rate limiter wait")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, eris.Wrap(err, "arcgis: build request")
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, eris.Wrap(err, "arcgis: request")
		}
		defer resp.Body.Close() //nolint:errcheck

		if resp.StatusCode != http.StatusOK {
			err := eris.Errorf("arcgis: layer %s returned status %d", layer, resp.StatusCode)
			if resilience.IsTransientHTTPStatus(resp.StatusCode) {
				return nil, resilience.NewTransientError(err, resp.StatusCode)
			}
			return nil, err
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrap(err, "arcgis: read body")
		}

		c.log.Debug("layer fetched",
			zap.String("layer", layer),
			zap.Int("bytes", len(body)),
		)
		return body, nil
	})
}

// Decode parses a GeoJSON payload into a feature collection. ArcGIS
// reports query errors as a JSON error object with a 200 status, so an
// embedded error is surfaced here.
func Decode(raw []byte) (*geojson.FeatureCollection, error) {
	var apiErr struct {
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Error != nil {
		return nil, eris.Errorf("arcgis: service error %d: %s", apiErr.Error.Code, apiErr.Error.Message)
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(raw, &fc); err != nil {
		return nil, eris.Wrap(err, "arcgis: decode feature collection")
	}
	return &fc, nil
}
