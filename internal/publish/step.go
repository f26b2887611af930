package publish

import (
	"context"
	"time"

	"cargopipe/internal/broker"
	"cargopipe/internal/constants"
	"cargopipe/internal/logger"
	"cargopipe/internal/pipeline"
	"cargopipe/pkg/logging"
	"cargopipe/pkg/metrics"
	"cargopipe/pkg/models"
)

// Step announces freshly persisted orders on the broker so downstream
// services pick them up without polling the database. Runs only after
// persistence actually wrote a row; deduplicated messages publish
// nothing.
type Step struct {
	producer broker.Producer
	topic    string
	logger   logger.Logger
}

func NewStep(producer broker.Producer, topic string, log logger.Logger) *Step {
	if topic == "" {
		topic = constants.DefaultOrderEventsTopic
	}
	return &Step{
		producer: producer,
		topic:    topic,
		logger:   log,
	}
}

func (s *Step) Name() string {
	return "event_publishing"
}

func (s *Step) Order() int {
	return constants.OrderPublish
}

func (s *Step) Critical() bool {
	return false
}

func (s *Step) ShouldProcess(pctx *pipeline.Context) bool {
	if s.producer == nil || pctx.Record() == nil {
		return false
	}
	persisted, ok := pctx.CustomData("persisted")
	return ok && persisted == true
}

func (s *Step) Process(ctx context.Context, pctx *pipeline.Context) error {
	record := pctx.Record()

	event := models.OrderEvent{
		MessageID:   record.MessageID,
		Subject:     record.MessageSubject,
		Sender:      record.MessageSender,
		PersistedAt: time.Now().UTC(),
		RunID:       logging.GetRunID(ctx),
	}

	if err := s.producer.Publish(ctx, s.topic, event); err != nil {
		metrics.PublishedEventsTotal.WithLabelValues("error").Inc()
		return err
	}

	metrics.PublishedEventsTotal.WithLabelValues("published").Inc()
	s.logger.InfowCtx(ctx, "Order event published",
		"message_id", record.MessageID,
		"topic", s.topic,
	)
	return nil
}
