package clean

import (
	"context"

	"cargopipe/internal/constants"
	"cargopipe/internal/logger"
	"cargopipe/internal/pipeline"
	"cargopipe/pkg/metrics"
	"cargopipe/pkg/models"
)

// Step rewrites raw addresses before geocoding. Cleaned values go into
// the context custom data bag; the record keeps the addresses the
// extractor produced. A cleaning failure on one side is isolated and
// that side falls back to its raw address downstream.
type Step struct {
	cleaner Cleaner
	logger  logger.Logger
}

func NewStep(cleaner Cleaner, log logger.Logger) *Step {
	return &Step{
		cleaner: cleaner,
		logger:  log,
	}
}

func (s *Step) Name() string {
	return "address_cleaning"
}

func (s *Step) Order() int {
	return constants.OrderAddressCleaning
}

func (s *Step) Critical() bool {
	return false
}

func (s *Step) ShouldProcess(pctx *pipeline.Context) bool {
	if s.cleaner == nil {
		return false
	}
	record := pctx.Record()
	if record == nil {
		return false
	}
	return needsCleaning(record.LoadingAddress, record.LoadingCoordinates) ||
		needsCleaning(record.UnloadingAddress, record.UnloadingCoordinates)
}

func (s *Step) Process(ctx context.Context, pctx *pipeline.Context) error {
	record := pctx.Record()
	cleaned := 0

	if needsCleaning(record.LoadingAddress, record.LoadingCoordinates) {
		if address := s.clean(ctx, "loading", record.LoadingAddress); address != "" {
			pctx.MergeCustomData(constants.CustomDataCleanedLoadingAddress, address)
			pctx.MergeCustomData(constants.CustomDataOriginalLoadingAddress, record.LoadingAddress)
			cleaned++
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if needsCleaning(record.UnloadingAddress, record.UnloadingCoordinates) {
		if address := s.clean(ctx, "unloading", record.UnloadingAddress); address != "" {
			pctx.MergeCustomData(constants.CustomDataCleanedUnloadingAddress, address)
			pctx.MergeCustomData(constants.CustomDataOriginalUnloadingAddress, record.UnloadingAddress)
			cleaned++
		}
	}

	pctx.MergeCustomData("addresses_cleaned", cleaned)
	return ctx.Err()
}

// clean returns "" on failure; the geocoder then uses the raw address.
func (s *Step) clean(ctx context.Context, side, address string) string {
	result, err := s.cleaner.Clean(ctx, address)
	if err != nil {
		metrics.AddressCleanRequestsTotal.WithLabelValues("error").Inc()
		s.logger.WarnwCtx(ctx, "Address cleaning failed, keeping raw address",
			"side", side,
			"address", address,
			"error", err,
		)
		return ""
	}

	metrics.AddressCleanRequestsTotal.WithLabelValues("cleaned").Inc()
	s.logger.InfowCtx(ctx, "Cleaned address",
		"side", side,
		"raw", address,
		"cleaned", result,
	)
	return result
}

// Cleaning only pays off for a side the geocoder will actually resolve.
func needsCleaning(address string, coordinate *models.Coordinate) bool {
	return address != "" && coordinate == nil
}
