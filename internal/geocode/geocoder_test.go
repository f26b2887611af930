package geocode

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

func httpGeocoder(t *testing.T, timeout time.Duration, handler http.HandlerFunc) *HTTPGeocoder {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewHTTPGeocoder(config.GeocoderConfig{
		URL:     server.URL,
		Timeout: timeout,
	})
}

func TestHTTPGeocoderResolves(t *testing.T) {
	geocoder := httpGeocoder(t, 2*time.Second, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Hafenstr. 1, Hamburg", r.URL.Query().Get("address"))
		w.Write([]byte(`{"found":true,"lat":53.54,"lng":9.98}`))
	})

	coordinate, err := geocoder.Resolve(context.Background(), "Hafenstr. 1, Hamburg")
	require.NoError(t, err)
	require.NotNil(t, coordinate)
	assert.InDelta(t, 53.54, coordinate.Lat, 0.001)
}

func TestHTTPGeocoderNoMatchIsNotAnError(t *testing.T) {
	geocoder := httpGeocoder(t, 2*time.Second, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"found":false}`))
	})

	coordinate, err := geocoder.Resolve(context.Background(), "Nowhere 1")
	require.NoError(t, err)
	assert.Nil(t, coordinate)
}

func TestHTTPGeocoderReportsHTTPErrors(t *testing.T) {
	geocoder := httpGeocoder(t, 2*time.Second, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := geocoder.Resolve(context.Background(), "Hafenstr. 1, Hamburg")
	require.Error(t, err)
	assert.False(t, pkgerrors.IsTimeout(err))
}

func TestHTTPGeocoderReportsTimeouts(t *testing.T) {
	geocoder := httpGeocoder(t, 20*time.Millisecond, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"found":false}`))
	})

	_, err := geocoder.Resolve(context.Background(), "Hafenstr. 1, Hamburg")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsTimeout(err))
}
