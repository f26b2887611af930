package extract

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

// Extractor pulls a structured logistics record out of an
// Order-classified message. Fields the model could not populate stay
// empty; only a totally unparseable response is an error.
type Extractor interface {
	Extract(ctx context.Context, msg *mail.RawMessage) (*models.LogisticsRecord, error)
	Close() error
}

type ModelGatewayExtractor struct {
	cfg    config.ExtractorConfig
	client *http.Client
}

func NewModelGatewayExtractor(cfg config.ExtractorConfig) *ModelGatewayExtractor {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultCallTimeout
	}
	return &ModelGatewayExtractor{
		cfg: cfg,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type extractRequest struct {
	Model       string            `json:"model,omitempty"`
	Temperature float64           `json:"temperature"`
	Subject     string            `json:"subject"`
	Body        string            `json:"body"`
	Attachments []mail.Attachment `json:"attachments,omitempty"`
}

// extractResponse mirrors the extraction schema the model gateway is
// instructed to fill. Pointers distinguish "absent" from "empty".
type extractResponse struct {
	LoadingAddress      *string  `json:"loading_address"`
	UnloadingAddress    *string  `json:"unloading_address"`
	LoadingDate         *string  `json:"loading_date"`
	UnloadingDate       *string  `json:"unloading_date"`
	LoadingLat          *float64 `json:"loading_lat"`
	LoadingLng          *float64 `json:"loading_lng"`
	UnloadingLat        *float64 `json:"unloading_lat"`
	UnloadingLng        *float64 `json:"unloading_lng"`
	CargoDescription    *string  `json:"cargo_description"`
	Weight              *string  `json:"weight"`
	VehicleType         *string  `json:"vehicle_type"`
	SpecialRequirements *string  `json:"special_requirements"`
}

func (e *ModelGatewayExtractor) Extract(ctx context.Context, msg *mail.RawMessage) (*models.LogisticsRecord, error) {
	reqBody := extractRequest{
		Model:       e.cfg.Model,
		Temperature: e.cfg.Temperature,
		Subject:     msg.Subject,
		Body:        msg.Body,
		Attachments: msg.Attachments,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal extract request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create extract request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extractor request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < constants.HTTPStatusOKMin || resp.StatusCode >= constants.HTTPStatusOKMax {
		return nil, fmt.Errorf("extractor returned status %d", resp.StatusCode)
	}

	var wire extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, pkgerrors.Wrap(fmt.Errorf("malformed extractor response: %w", err), pkgerrors.ErrInvalidResponse)
	}

	return buildRecord(wire, msg), nil
}

// buildRecord validates field by field. Out-of-range coordinates are
// dropped rather than stored; absent fields stay empty.
func buildRecord(wire extractResponse, msg *mail.RawMessage) *models.LogisticsRecord {
	record := &models.LogisticsRecord{
		LoadingAddress:      deref(wire.LoadingAddress),
		UnloadingAddress:    deref(wire.UnloadingAddress),
		LoadingDate:         deref(wire.LoadingDate),
		UnloadingDate:       deref(wire.UnloadingDate),
		CargoDescription:    deref(wire.CargoDescription),
		Weight:              deref(wire.Weight),
		VehicleType:         deref(wire.VehicleType),
		SpecialRequirements: deref(wire.SpecialRequirements),

		MessageID:      msg.ID,
		MessageSubject: msg.Subject,
		MessageSender:  msg.Sender,
		MessageDate:    msg.Timestamp,
	}

	record.LoadingCoordinates = coordinateFrom(wire.LoadingLat, wire.LoadingLng)
	record.UnloadingCoordinates = coordinateFrom(wire.UnloadingLat, wire.UnloadingLng)

	return record
}

func coordinateFrom(lat, lng *float64) *models.Coordinate {
	if lat == nil || lng == nil {
		return nil
	}
	if *lat < -90 || *lat > 90 || *lng < -180 || *lng > 180 {
		return nil
	}
	return &models.Coordinate{Lat: *lat, Lng: *lng}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (e *ModelGatewayExtractor) Close() error {
	e.client.CloseIdleConnections()
	return nil
}
