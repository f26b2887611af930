package geocode

import (
	"context"

	"cargopipe/internal/constants"
	"cargopipe/internal/logger"
	"cargopipe/internal/pipeline"
	pkgerrors "cargopipe/pkg/errors"
	"cargopipe/pkg/metrics"
	"cargopipe/pkg/models"
)

// Step fills missing coordinates on the extracted record. Each address
// is resolved independently: a failure on one side still lets the other
// side get its coordinates, and the step itself never fails the
// message. Coordinates the extractor already produced are left alone.
type Step struct {
	geocoder Geocoder
	logger   logger.Logger
}

func NewStep(geocoder Geocoder, log logger.Logger) *Step {
	return &Step{
		geocoder: geocoder,
		logger:   log,
	}
}

func (s *Step) Name() string {
	return "geocoding"
}

func (s *Step) Order() int {
	return constants.OrderGeocoding
}

func (s *Step) Critical() bool {
	return false
}

func (s *Step) ShouldProcess(pctx *pipeline.Context) bool {
	record := pctx.Record()
	if record == nil {
		return false
	}
	return needsResolution(record.LoadingAddress, record.LoadingCoordinates) ||
		needsResolution(record.UnloadingAddress, record.UnloadingCoordinates)
}

func (s *Step) Process(ctx context.Context, pctx *pipeline.Context) error {
	record := pctx.Record()
	filled := 0

	if needsResolution(record.LoadingAddress, record.LoadingCoordinates) {
		address := cleanedOrRaw(pctx, constants.CustomDataCleanedLoadingAddress, record.LoadingAddress)
		if coordinate := s.resolve(ctx, "loading", address); coordinate != nil {
			record.LoadingCoordinates = coordinate
			filled++
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if needsResolution(record.UnloadingAddress, record.UnloadingCoordinates) {
		address := cleanedOrRaw(pctx, constants.CustomDataCleanedUnloadingAddress, record.UnloadingAddress)
		if coordinate := s.resolve(ctx, "unloading", address); coordinate != nil {
			record.UnloadingCoordinates = coordinate
			filled++
		}
	}

	pctx.MergeCustomData("coordinates_filled", filled)
	return ctx.Err()
}

// resolve returns nil on both error and no-match; the record keeps its
// nil coordinates and persistence stores NULLs.
func (s *Step) resolve(ctx context.Context, side, address string) *models.Coordinate {
	coordinate, err := s.geocoder.Resolve(ctx, address)
	if err != nil {
		metrics.GeocodeRequestsTotal.WithLabelValues("error").Inc()
		s.logger.WarnwCtx(ctx, "Geocoding failed",
			"side", side,
			"address", address,
			"error", pkgerrors.Wrap(err, pkgerrors.ErrGeocoding).WithDetail("address", address),
		)
		return nil
	}
	if coordinate == nil {
		metrics.GeocodeRequestsTotal.WithLabelValues("no_match").Inc()
		s.logger.InfowCtx(ctx, "Address had no geocoding match",
			"side", side,
			"address", address,
		)
		return nil
	}

	metrics.GeocodeRequestsTotal.WithLabelValues("success").Inc()
	return coordinate
}

// cleanedOrRaw prefers the rewritten address the cleaning step left in
// the custom data bag, falling back to the extracted one.
func cleanedOrRaw(pctx *pipeline.Context, key, raw string) string {
	if v, ok := pctx.CustomData(key); ok {
		if cleaned, ok := v.(string); ok && cleaned != "" {
			return cleaned
		}
	}
	return raw
}

func needsResolution(address string, coordinate *models.Coordinate) bool {
	return address != "" && coordinate == nil
}
