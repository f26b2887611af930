package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"cargopipe/internal/config"
	"cargopipe/internal/constants"
	"cargopipe/internal/mail"
	pkgerrors "cargopipe/pkg/errors"
	"cargopipe/pkg/models"
)

// Classifier labels a message with exactly one value from the closed
// set. An InvalidResponse error means the collaborator broke its
// contract; the step decides whether to retry.
type Classifier interface {
	Classify(ctx context.Context, msg *mail.RawMessage) (models.Classification, error)
	Close() error
}

// ModelGatewayClassifier calls the AI model gateway. Decoding settings
// are pinned near-deterministic (low temperature, tiny output budget)
// so repeated runs on the same message stay stable.
type ModelGatewayClassifier struct {
	cfg    config.ClassifierConfig
	client *http.Client
}

func NewModelGatewayClassifier(cfg config.ClassifierConfig) *ModelGatewayClassifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultCallTimeout
	}
	return &ModelGatewayClassifier{
		cfg: cfg,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type classifyRequest struct {
	Model           string            `json:"model,omitempty"`
	Temperature     float64           `json:"temperature"`
	MaxOutputTokens int               `json:"max_output_tokens,omitempty"`
	Subject         string            `json:"subject"`
	Body            string            `json:"body"`
	Attachments     []mail.Attachment `json:"attachments,omitempty"`
}

type classifyResponse struct {
	Label string `json:"label"`
}

func (c *ModelGatewayClassifier) Classify(ctx context.Context, msg *mail.RawMessage) (models.Classification, error) {
	reqBody := classifyRequest{
		Model:           c.cfg.Model,
		Temperature:     c.cfg.Temperature,
		MaxOutputTokens: c.cfg.MaxOutputTokens,
		Subject:         msg.Subject,
		Body:            msg.Body,
		Attachments:     msg.Attachments,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("classifier request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < constants.HTTPStatusOKMin || resp.StatusCode >= constants.HTTPStatusOKMax {
		return "", fmt.Errorf("classifier returned status %d", resp.StatusCode)
	}

	var result classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", pkgerrors.Wrap(fmt.Errorf("malformed classifier response: %w", err), pkgerrors.ErrInvalidResponse)
	}

	label, err := models.ParseClassification(result.Label)
	if err != nil {
		return "", pkgerrors.Wrap(err, pkgerrors.ErrInvalidResponse)
	}

	return label, nil
}

func (c *ModelGatewayClassifier) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
