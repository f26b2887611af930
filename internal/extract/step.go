package extract

import (
	"context"

	"cargopipe/internal/constants"
	"cargopipe/internal/logger"
	"cargopipe/internal/pipeline"
	pkgerrors "cargopipe/pkg/errors"
)

// Step extracts the logistics record from Order-classified messages.
// Non-critical: a failed extraction leaves the record nil and every
// downstream guard that depends on it self-skips.
type Step struct {
	extractor Extractor
	logger    logger.Logger
}

func NewStep(extractor Extractor, log logger.Logger) *Step {
	return &Step{
		extractor: extractor,
		logger:    log,
	}
}

func (s *Step) Name() string {
	return "logistics_extraction"
}

func (s *Step) Order() int {
	return constants.OrderExtraction
}

func (s *Step) Critical() bool {
	return false
}

func (s *Step) ShouldProcess(pctx *pipeline.Context) bool {
	return pctx.IsOrder() && pctx.Record() == nil
}

func (s *Step) Process(ctx context.Context, pctx *pipeline.Context) error {
	msg := pctx.Message()

	record, err := s.extractor.Extract(ctx, msg)
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.ErrExtraction).
			WithDetail("message_id", msg.ID)
	}
	if record == nil {
		return pkgerrors.ErrExtraction.WithDetail("message_id", msg.ID)
	}

	if err := pctx.SetLogisticsRecord(record); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.ErrExtraction)
	}

	s.logger.InfowCtx(ctx, "Logistics record extracted",
		"loading_address", record.LoadingAddress,
		"unloading_address", record.UnloadingAddress,
		"has_loading_coordinates", record.LoadingCoordinates != nil,
		"has_unloading_coordinates", record.UnloadingCoordinates != nil,
	)
	return nil
}
