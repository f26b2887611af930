package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/time/rate"

	"cargopipe/internal/config"
	"cargopipe/internal/constants"
	pkgerrors "cargopipe/pkg/errors"
	"cargopipe/pkg/models"
)

// Geocoder resolves one address to a coordinate pair. A nil coordinate
// with nil error means the address had no match; that is a valid
// outcome, not a failure.
type Geocoder interface {
	Resolve(ctx context.Context, address string) (*models.Coordinate, error)
	Close() error
}

// HTTPGeocoder calls the geocoding API. Calls are rate limited client
// side to stay inside the provider quota.
type HTTPGeocoder struct {
	cfg     config.GeocoderConfig
	client  *http.Client
	limiter *rate.Limiter
}

func NewHTTPGeocoder(cfg config.GeocoderConfig) *HTTPGeocoder {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultHTTPTimeout
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1)
	}

	return &HTTPGeocoder{
		cfg: cfg,
		client: &http.Client{
			Timeout: timeout,
		},
		limiter: limiter,
	}
}

type geocodeResponse struct {
	Found bool    `json:"found"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
}

func (g *HTTPGeocoder) Resolve(ctx context.Context, address string) (*models.Coordinate, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	params := url.Values{}
	params.Set("address", address)
	if g.cfg.APIKey != "" {
		params.Set("key", g.cfg.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cfg.URL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create geocode request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, pkgerrors.Wrap(fmt.Errorf("geocode request timed out: %w", err), pkgerrors.ErrTimeout)
		}
		return nil, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < constants.HTTPStatusOKMin || resp.StatusCode >= constants.HTTPStatusOKMax {
		return nil, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var result geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode geocode response: %w", err)
	}

	if !result.Found {
		return nil, nil
	}

	return &models.Coordinate{Lat: result.Lat, Lng: result.Lng}, nil
}

func (g *HTTPGeocoder) Close() error {
	g.client.CloseIdleConnections()
	return nil
}
