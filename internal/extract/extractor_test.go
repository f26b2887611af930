package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cargopipe/internal/config"
	"cargopipe/internal/mail"
	pkgerrors "cargopipe/pkg/errors"
)

func gatewayExtractor(t *testing.T, handler http.HandlerFunc) *ModelGatewayExtractor {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewModelGatewayExtractor(config.ExtractorConfig{
		URL:     server.URL,
		Timeout: 2 * time.Second,
	})
}

func TestExtractorBuildsRecord(t *testing.T) {
	extractor := gatewayExtractor(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"loading_address": "Hafenstr. 1, 20457 Hamburg",
			"unloading_address": "Industriepark 5, 80939 München",
			"loading_date": "2026-09-02",
			"loading_lat": 53.54,
			"loading_lng": 9.98,
			"cargo_description": "3 pallets machine parts",
			"weight": "1200 kg"
		}`))
	})

	msg := &mail.RawMessage{
		ID:        "m42",
		Subject:   "Transport Hamburg-München",
		Sender:    "dispo@spedition.example",
		Timestamp: time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC),
	}

	record, err := extractor.Extract(context.Background(), msg)
	require.NoError(t, err)

	assert.Equal(t, "Hafenstr. 1, 20457 Hamburg", record.LoadingAddress)
	assert.Equal(t, "Industriepark 5, 80939 München", record.UnloadingAddress)
	assert.Equal(t, "2026-09-02", record.LoadingDate)
	assert.Empty(t, record.UnloadingDate)
	assert.Equal(t, "1200 kg", record.Weight)

	require.NotNil(t, record.LoadingCoordinates)
	assert.InDelta(t, 53.54, record.LoadingCoordinates.Lat, 0.001)
	assert.Nil(t, record.UnloadingCoordinates)

	assert.Equal(t, "m42", record.MessageID)
	assert.Equal(t, "Transport Hamburg-München", record.MessageSubject)
	assert.Equal(t, msg.Timestamp, record.MessageDate)
}

func TestExtractorDropsInvalidCoordinates(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "latitude out of range",
			body: `{"loading_lat": 120.0, "loading_lng": 9.98}`,
		},
		{
			name: "longitude out of range",
			body: `{"loading_lat": 53.54, "loading_lng": 200.0}`,
		},
		{
			name: "half pair",
			body: `{"loading_lat": 53.54}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractor := gatewayExtractor(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})

			record, err := extractor.Extract(context.Background(), &mail.RawMessage{ID: "m1"})
			require.NoError(t, err)
			assert.Nil(t, record.LoadingCoordinates)
		})
	}
}

func TestExtractorRejectsMalformedResponse(t *testing.T) {
	extractor := gatewayExtractor(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	})

	_, err := extractor.Extract(context.Background(), &mail.RawMessage{ID: "m1"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsInvalidResponse(err))
}
