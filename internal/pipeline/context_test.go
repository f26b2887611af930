package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cargopipe/pkg/models"
)

func TestContextClassificationSetOnce(t *testing.T) {
	pctx := NewContext(testMessage())

	_, set := pctx.Classification()
	assert.False(t, set)

	require.NoError(t, pctx.SetClassification(models.ClassificationOrder))

	got, set := pctx.Classification()
	assert.True(t, set)
	assert.Equal(t, models.ClassificationOrder, got)
	assert.True(t, pctx.IsOrder())

	err := pctx.SetClassification(models.ClassificationOther)
	assert.Error(t, err, "classification must not be overwritten")

	got, _ = pctx.Classification()
	assert.Equal(t, models.ClassificationOrder, got)
}

func TestContextLogisticsRecordSetOnce(t *testing.T) {
	pctx := NewContext(testMessage())
	assert.Nil(t, pctx.Record())

	record := &models.LogisticsRecord{LoadingAddress: "Hafenstr. 1, Hamburg"}
	require.NoError(t, pctx.SetLogisticsRecord(record))
	assert.Same(t, record, pctx.Record())

	err := pctx.SetLogisticsRecord(&models.LogisticsRecord{})
	assert.Error(t, err)
	assert.Same(t, record, pctx.Record())
}

func TestContextCustomData(t *testing.T) {
	pctx := NewContext(testMessage())

	_, ok := pctx.CustomData("persisted")
	assert.False(t, ok)

	pctx.MergeCustomData("persisted", true)
	got, ok := pctx.CustomData("persisted")
	assert.True(t, ok)
	assert.Equal(t, true, got)
}

func TestContextOutcomeLog(t *testing.T) {
	pctx := NewContext(testMessage())

	pctx.RecordStepOutcome(StepOutcome{Step: "classification", Success: true})
	pctx.RecordStepOutcome(StepOutcome{Step: "logistics_extraction", Skipped: true})
	pctx.RecordStepOutcome(StepOutcome{Step: "persistence", Err: errors.New("db down")})

	assert.Equal(t, []string{"classification", "persistence"}, pctx.ExecutedSteps())
	assert.Equal(t, []string{"persistence"}, pctx.FailedSteps())
	assert.Len(t, pctx.Outcomes(), 3)
}
