package geocode

import (
	"context"

	"github.com/sony/gobreaker"

	"cargopipe/internal/config"
	"cargopipe/pkg/circuitbreaker"
	"cargopipe/pkg/models"
)

// BreakerGeocoder trips after sustained geocoder failures so a degraded
// provider fails fast instead of burning the per-call timeout on every
// address in the batch.
type BreakerGeocoder struct {
	inner   Geocoder
	wrapper *circuitbreaker.Wrapper
}

func WrapWithCircuitBreaker(inner Geocoder, cfg config.CircuitBreakerConfig) *BreakerGeocoder {
	cbConfig := circuitbreaker.DefaultConfig("geocoder")
	if cfg.MaxRequests > 0 {
		cbConfig.MaxRequests = cfg.MaxRequests
	}
	if cfg.Interval > 0 {
		cbConfig.Interval = cfg.Interval
	}
	if cfg.Timeout > 0 {
		cbConfig.Timeout = cfg.Timeout
	}
	if cfg.FailureRatio > 0 {
		minRequests := cfg.MinRequests
		if minRequests == 0 {
			minRequests = 3
		}
		cbConfig.ReadyToTrip = func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= minRequests && failureRatio >= cfg.FailureRatio
		}
	}

	return &BreakerGeocoder{
		inner:   inner,
		wrapper: circuitbreaker.NewWrapper(cbConfig),
	}
}

func (b *BreakerGeocoder) Resolve(ctx context.Context, address string) (*models.Coordinate, error) {
	result, err := b.wrapper.ExecuteWithContext(ctx, func() (interface{}, error) {
		return b.inner.Resolve(ctx, address)
	})
	b.wrapper.RecordRequest(err == nil)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}
	coordinate, ok := result.(*models.Coordinate)
	if !ok {
		return nil, nil
	}
	return coordinate, nil
}

func (b *BreakerGeocoder) Close() error {
	return b.inner.Close()
}
