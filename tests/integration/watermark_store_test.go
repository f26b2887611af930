package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cargopipe/internal/watermark"
)

func TestPostgresWatermarkStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	infra := SetupTestInfraWithOptions(t, true, false)
	store := watermark.NewPostgresStore(infra.PostgresDB)
	ctx := context.Background()

	ts, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, ts.IsZero(), "fresh store starts at the zero time")

	first := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, first))

	ts, err = store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, ts.Equal(first))

	// A regressing save is dropped, a progressing one sticks.
	require.NoError(t, store.Save(ctx, first.Add(-time.Hour)))
	ts, err = store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, ts.Equal(first))

	second := first.Add(30 * time.Minute)
	require.NoError(t, store.Save(ctx, second))
	ts, err = store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, ts.Equal(second))
}
