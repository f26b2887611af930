package classify

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
	"cargopipe/pkg/models"
)

func gatewayClassifier(t *testing.T, handler http.HandlerFunc) *ModelGatewayClassifier {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewModelGatewayClassifier(config.ClassifierConfig{
		URL:     server.URL,
		Timeout: 2 * time.Second,
	})
}

func TestClassifierReturnsLabel(t *testing.T) {
	classifier := gatewayClassifier(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Write([]byte(`{"label":"Order"}`))
	})

	label, err := classifier.Classify(context.Background(), &mail.RawMessage{ID: "m1", Subject: "s"})
	require.NoError(t, err)
	assert.Equal(t, models.ClassificationOrder, label)
}

func TestClassifierRejectsLabelOutsideSet(t *testing.T) {
	classifier := gatewayClassifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"label":"Spam"}`))
	})

	_, err := classifier.Classify(context.Background(), &mail.RawMessage{ID: "m1"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsInvalidResponse(err))
}

func TestClassifierRejectsMalformedResponse(t *testing.T) {
	classifier := gatewayClassifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	})

	_, err := classifier.Classify(context.Background(), &mail.RawMessage{ID: "m1"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsInvalidResponse(err))
}

func TestClassifierReportsHTTPErrors(t *testing.T) {
	classifier := gatewayClassifier(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := classifier.Classify(context.Background(), &mail.RawMessage{ID: "m1"})
	require.Error(t, err)
	assert.False(t, pkgerrors.IsInvalidResponse(err), "transport errors are plain failures, not contract violations")
}
