package mail

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cargopipe/internal/config"
	pkgerrors "cargopipe/pkg/errors"
)

func gatewayClient(t *testing.T, handler http.HandlerFunc) *GatewayClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewGatewayClient(config.MailboxConfig{
		GatewayURL: server.URL,
		APIKey:     "test-key",
		Timeout:    2 * time.Second,
	})
}

func TestGatewayFetchBuildsQuery(t *testing.T) {
	since := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	var got *http.Request
	client := gatewayClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.Write([]byte(`{"messages":[{"id":"m1","subject":"s","timestamp":"2026-08-30T10:05:00Z"}]}`))
	})

	messages, err := client.Fetch(context.Background(), Query{
		Since:  since,
		Filter: "from:dispo",
		Limit:  10,
	})
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "/messages", got.URL.Path)
	assert.Equal(t, since.Format(time.RFC3339Nano), got.URL.Query().Get("since"))
	assert.Equal(t, "from:dispo", got.URL.Query().Get("q"))
	assert.Equal(t, "10", got.URL.Query().Get("limit"))
	assert.Equal(t, "Bearer test-key", got.Header.Get("Authorization"))

	require.Len(t, messages, 1)
	assert.Equal(t, "m1", messages[0].ID)
}

func TestGatewayFetchOmitsZeroSince(t *testing.T) {
	var rawQuery string
	client := gatewayClient(t, func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		w.Write([]byte(`{"messages":[]}`))
	})

	_, err := client.Fetch(context.Background(), Query{})
	require.NoError(t, err)
	assert.Empty(t, rawQuery, "first run fetches unbounded history")
}

func TestGatewayFetchFailuresAreFetchErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "http error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`not json`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := gatewayClient(t, tt.handler)
			_, err := client.Fetch(context.Background(), Query{})
			require.Error(t, err)
			assert.True(t, pkgerrors.IsFetch(err))
		})
	}
}
