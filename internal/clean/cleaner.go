package clean

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"cargopipe/internal/config"
	"cargopipe/internal/constants"
	pkgerrors "cargopipe/pkg/errors"
)

// Cleaner rewrites one raw address into a form the geocoder can
// resolve, stripping company names and free-text warehouse notes. An
// error means the caller should geocode the raw address instead.
type Cleaner interface {
	Clean(ctx context.Context, address string) (string, error)
	Close() error
}

// ModelGatewayCleaner calls the AI model gateway. Decoding is pinned
// deterministic so the same raw address always cleans the same way,
// which keeps the geocode cache effective.
type ModelGatewayCleaner struct {
	cfg    config.CleanerConfig
	client *http.Client
}

func NewModelGatewayCleaner(cfg config.CleanerConfig) *ModelGatewayCleaner {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultCallTimeout
	}
	return &ModelGatewayCleaner{
		cfg: cfg,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type cleanRequest struct {
	Model       string  `json:"model,omitempty"`
	Temperature float64 `json:"temperature"`
	Address     string  `json:"address"`
}

type cleanResponse struct {
	Address string `json:"address"`
}

func (c *ModelGatewayCleaner) Clean(ctx context.Context, address string) (string, error) {
	reqBody := cleanRequest{
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		Address:     address,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal clean request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create clean request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("cleaner request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < constants.HTTPStatusOKMin || resp.StatusCode >= constants.HTTPStatusOKMax {
		return "", fmt.Errorf("cleaner returned status %d", resp.StatusCode)
	}

	var result cleanResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", pkgerrors.Wrap(fmt.Errorf("malformed cleaner response: %w", err), pkgerrors.ErrInvalidResponse)
	}

	if result.Address == "" {
		return "", pkgerrors.Wrap(fmt.Errorf("cleaner returned an empty address"), pkgerrors.ErrInvalidResponse)
	}

	return result.Address, nil
}

func (c *ModelGatewayCleaner) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
