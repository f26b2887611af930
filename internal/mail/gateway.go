package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"cargopipe/internal/config"
	"cargopipe/internal/constants"
	pkgerrors "cargopipe/pkg/errors"
)

// GatewayClient fetches messages from the HTTP mail gateway that fronts
// the actual mailbox. Any transport or decode failure is a FetchError:
// fatal to the run, watermark untouched.
type GatewayClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewGatewayClient(cfg config.MailboxConfig) *GatewayClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultHTTPTimeout
	}
	return &GatewayClient{
		baseURL: cfg.GatewayURL,
		apiKey:  cfg.APIKey,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *GatewayClient) Fetch(ctx context.Context, q Query) ([]RawMessage, error) {
	params := url.Values{}
	if !q.Since.IsZero() {
		params.Set("since", q.Since.Format(time.RFC3339Nano))
	}
	if q.Filter != "" {
		params.Set("q", q.Filter)
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	endpoint := c.baseURL + "/messages"
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrFetch)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrFetch)
	}
	defer resp.Body.Close()

	if resp.StatusCode < constants.HTTPStatusOKMin || resp.StatusCode >= constants.HTTPStatusOKMax {
		return nil, pkgerrors.Wrap(
			fmt.Errorf("mail gateway returned status %d", resp.StatusCode),
			pkgerrors.ErrFetch,
		)
	}

	var payload struct {
		Messages []RawMessage `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, pkgerrors.Wrap(fmt.Errorf("failed to decode gateway response: %w", err), pkgerrors.ErrFetch)
	}

	return payload.Messages, nil
}

func (c *GatewayClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
