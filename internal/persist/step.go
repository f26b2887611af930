package persist

import (
	"context"
	"sync"

	"cargopipe/internal/constants"
	"cargopipe/internal/logger"
	"cargopipe/internal/pipeline"
	pkgerrors "cargopipe/pkg/errors"
	"cargopipe/pkg/metrics"
)

// Step writes the extracted record to PostgreSQL. Duplicate message IDs
// are checked immediately before the write so reprocessed batches do
// not produce duplicate rows. A skipped duplicate still counts as a
// successful step.
type Step struct {
	repo   Repository
	logger logger.Logger

	mu          sync.Mutex
	schemaReady bool
}

func NewStep(repo Repository, log logger.Logger) *Step {
	return &Step{
		repo:   repo,
		logger: log,
	}
}

func (s *Step) Name() string {
	return "persistence"
}

func (s *Step) Order() int {
	return constants.OrderPersistence
}

func (s *Step) Critical() bool {
	return false
}

func (s *Step) ShouldProcess(pctx *pipeline.Context) bool {
	return s.repo != nil && pctx.Record() != nil
}

func (s *Step) Process(ctx context.Context, pctx *pipeline.Context) error {
	record := pctx.Record()

	if err := s.ensureSchema(ctx); err != nil {
		metrics.PersistedOrdersTotal.WithLabelValues("error").Inc()
		return pkgerrors.Wrap(err, pkgerrors.ErrPersistence)
	}

	exists, err := s.repo.Exists(ctx, record.MessageID)
	if err != nil {
		metrics.PersistedOrdersTotal.WithLabelValues("error").Inc()
		return pkgerrors.Wrap(err, pkgerrors.ErrPersistence).
			WithDetail("message_id", record.MessageID)
	}
	if exists {
		metrics.PersistedOrdersTotal.WithLabelValues("duplicate").Inc()
		s.logger.InfowCtx(ctx, "Order already persisted, skipping write",
			"message_id", record.MessageID,
		)
		return nil
	}

	if err := s.repo.Write(ctx, record); err != nil {
		metrics.PersistedOrdersTotal.WithLabelValues("error").Inc()
		return pkgerrors.Wrap(err, pkgerrors.ErrPersistence).
			WithDetail("message_id", record.MessageID)
	}

	metrics.PersistedOrdersTotal.WithLabelValues("persisted").Inc()
	pctx.MergeCustomData("persisted", true)

	s.logger.InfowCtx(ctx, "Order persisted",
		"message_id", record.MessageID,
		"loading_address", record.LoadingAddress,
		"unloading_address", record.UnloadingAddress,
	)
	return nil
}

// ensureSchema runs the create-if-absent DDL once per step lifetime,
// retrying on later messages if the first attempt failed.
func (s *Step) ensureSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schemaReady {
		return nil
	}
	if err := s.repo.EnsureSchema(ctx); err != nil {
		return err
	}
	s.schemaReady = true
	return nil
}
