package watermark

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreStartsAtZero(t *testing.T) {
	store := NewMemoryStore()

	ts, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, ts.IsZero())
}

func TestMemoryStoreNeverRegresses(t *testing.T) {
	store := NewMemoryStore()
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.Save(context.Background(), base))
	require.NoError(t, store.Save(context.Background(), base.Add(-time.Hour)))

	ts, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, base, ts)

	require.NoError(t, store.Save(context.Background(), base.Add(time.Hour)))
	ts, err = store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, base.Add(time.Hour), ts)
}
