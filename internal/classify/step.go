package classify

import (
	"context"

	"cargopipe/internal/constants"
	"cargopipe/internal/logger"
	"cargopipe/internal/pipeline"
	pkgerrors "cargopipe/pkg/errors"
	"cargopipe/pkg/metrics"
	"cargopipe/pkg/models"
	"cargopipe/pkg/retry"
)

// Step classifies the message. It is the only critical step by default:
// without a label nothing downstream carries business meaning.
type Step struct {
	classifier Classifier
	policy     retry.Policy
	critical   bool
	logger     logger.Logger
}

func NewStep(classifier Classifier, policy retry.Policy, log logger.Logger) *Step {
	return &Step{
		classifier: classifier,
		policy:     policy,
		critical:   true,
		logger:     log,
	}
}

func (s *Step) Name() string {
	return "classification"
}

func (s *Step) Order() int {
	return constants.OrderClassification
}

func (s *Step) Critical() bool {
	return s.critical
}

// SetCritical overrides the default criticality. Kept configurable; the
// default stays true.
func (s *Step) SetCritical(critical bool) {
	s.critical = critical
}

func (s *Step) ShouldProcess(pctx *pipeline.Context) bool {
	_, set := pctx.Classification()
	return !set
}

func (s *Step) Process(ctx context.Context, pctx *pipeline.Context) error {
	msg := pctx.Message()

	var label models.Classification
	attempt := 0
	err := retry.Retry(ctx, s.policy, func() error {
		attempt++
		if attempt > 1 {
			metrics.ClassifierRetriesTotal.Inc()
			s.logger.WarnwCtx(ctx, "Retrying classification",
				"attempt", attempt,
			)
		}

		classification, callErr := s.classifier.Classify(ctx, msg)
		if callErr != nil {
			return callErr
		}
		label = classification
		return nil
	})
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.ErrClassification).
			WithDetail("message_id", msg.ID).
			WithDetail("attempts", attempt)
	}

	if err := pctx.SetClassification(label); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.ErrClassification)
	}

	metrics.ClassificationsTotal.WithLabelValues(label.String()).Inc()
	s.logger.InfowCtx(ctx, "Message classified",
		"classification", label.String(),
		"subject", truncate(msg.Subject, constants.DefaultTruncateLen),
	)
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
