package extract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cargopipe/internal/logger"
	"cargopipe/internal/mail"
	"cargopipe/internal/pipeline"
	pkgerrors "cargopipe/pkg/errors"
	"cargopipe/pkg/models"
)

type fakeExtractor struct {
	record *models.LogisticsRecord
	err    error
	calls  int
}

func (f *fakeExtractor) Extract(ctx context.Context, msg *mail.RawMessage) (*models.LogisticsRecord, error) {
	f.calls++
	return f.record, f.err
}

func (f *fakeExtractor) Close() error { return nil }

func orderContext(t *testing.T) *pipeline.Context {
	t.Helper()
	pctx := pipeline.NewContext(&mail.RawMessage{ID: "m1", Timestamp: time.Now()})
	require.NoError(t, pctx.SetClassification(models.ClassificationOrder))
	return pctx
}

func TestStepGuardRequiresOrderClassification(t *testing.T) {
	step := NewStep(&fakeExtractor{}, logger.NopLogger())

	pctx := pipeline.NewContext(&mail.RawMessage{ID: "m1"})
	assert.False(t, step.ShouldProcess(pctx), "unclassified message must not be extracted")

	require.NoError(t, pctx.SetClassification(models.ClassificationInvoice))
	assert.False(t, step.ShouldProcess(pctx), "non-order mail must not be extracted")

	assert.True(t, step.ShouldProcess(orderContext(t)))
}

func TestStepGuardSkipsWhenRecordPresent(t *testing.T) {
	step := NewStep(&fakeExtractor{}, logger.NopLogger())

	pctx := orderContext(t)
	require.NoError(t, pctx.SetLogisticsRecord(&models.LogisticsRecord{}))
	assert.False(t, step.ShouldProcess(pctx))
}

func TestStepStoresRecord(t *testing.T) {
	record := &models.LogisticsRecord{LoadingAddress: "Hafenstr. 1"}
	step := NewStep(&fakeExtractor{record: record}, logger.NopLogger())

	pctx := orderContext(t)
	require.NoError(t, step.Process(context.Background(), pctx))
	assert.Same(t, record, pctx.Record())
}

func TestStepWrapsExtractionFailure(t *testing.T) {
	step := NewStep(&fakeExtractor{err: errors.New("gateway down")}, logger.NopLogger())

	pctx := orderContext(t)
	err := step.Process(context.Background(), pctx)

	require.Error(t, err)
	assert.Equal(t, pkgerrors.SeverityRecoverable, pkgerrors.SeverityOf(err))
	assert.Nil(t, pctx.Record())
}
