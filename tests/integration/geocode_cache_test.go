package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cargopipe/internal/geocode"
	"cargopipe/pkg/models"
)

type countingGeocoder struct {
	coordinate *models.Coordinate
	calls      int
}

func (c *countingGeocoder) Resolve(ctx context.Context, address string) (*models.Coordinate, error) {
	c.calls++
	return c.coordinate, nil
}

func (c *countingGeocoder) Close() error { return nil }

func TestCachedGeocoderReadThrough(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	infra := SetupTestInfraWithOptions(t, false, true)
	inner := &countingGeocoder{coordinate: &models.Coordinate{Lat: 53.54, Lng: 9.98}}
	cached := geocode.NewCachedGeocoder(inner, infra.RedisClient, 300, createTestLogger())
	ctx := context.Background()

	first, err := cached.Resolve(ctx, "Hafenstr. 1, Hamburg")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, 1, inner.calls)

	second, err := cached.Resolve(ctx, "Hafenstr. 1, Hamburg")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, 1, inner.calls, "repeat lookup must come from the cache")
	assert.InDelta(t, first.Lat, second.Lat, 0.0001)
}

func TestCachedGeocoderCachesNoMatch(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	infra := SetupTestInfraWithOptions(t, false, true)
	inner := &countingGeocoder{coordinate: nil}
	cached := geocode.NewCachedGeocoder(inner, infra.RedisClient, 300, createTestLogger())
	ctx := context.Background()

	coordinate, err := cached.Resolve(ctx, "Nowhere 1")
	require.NoError(t, err)
	assert.Nil(t, coordinate)
	assert.Equal(t, 1, inner.calls)

	coordinate, err = cached.Resolve(ctx, "Nowhere 1")
	require.NoError(t, err)
	assert.Nil(t, coordinate)
	assert.Equal(t, 1, inner.calls, "negative results are cached too")
}
