package runner

import (
	"context"
	"time"

	"github.com/google/uuid"

	"cargopipe/internal/logger"
	"cargopipe/internal/mail"
	"cargopipe/internal/pipeline"
	"cargopipe/internal/watermark"
	pkgerrors "cargopipe/pkg/errors"
	"cargopipe/pkg/logging"
	"cargopipe/pkg/metrics"
)

// RunReport summarizes one ingestion run.
type RunReport struct {
	RunID     string
	Fetched   int
	Processed int
	Completed int
	Aborted   int
	Filtered  int
	Watermark time.Time
}

// Runner drives one ingestion run end to end: load the watermark, fetch
// the batch, execute the pipeline per message, advance the watermark.
//
// The watermark moves to the newest fetched timestamp once the fetch
// itself succeeded, regardless of how individual messages fared. An
// aborted message is logged and counted, never refetched; operators
// re-feed it through the filter expression if it should run again.
type Runner struct {
	source    mail.Source
	filter    *mail.Filter
	executor  *pipeline.Executor
	watermark watermark.Store

	query  string
	limit  int
	logger logger.Logger
}

type Option func(*Runner)

// WithFilter narrows the fetched batch with a local CEL predicate.
func WithFilter(f *mail.Filter) Option {
	return func(r *Runner) {
		r.filter = f
	}
}

// WithQuery forwards a source-side query string with every fetch.
func WithQuery(q string) Option {
	return func(r *Runner) {
		r.query = q
	}
}

func WithBatchLimit(limit int) Option {
	return func(r *Runner) {
		r.limit = limit
	}
}

func NewRunner(source mail.Source, executor *pipeline.Executor, store watermark.Store, log logger.Logger, opts ...Option) *Runner {
	r := &Runner{
		source:    source,
		executor:  executor,
		watermark: store,
		logger:    log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one ingestion run. A fetch failure is fatal for the run:
// no messages are processed and the watermark stays where it was, so
// the next run retries the same window.
func (r *Runner) Run(ctx context.Context) (RunReport, error) {
	runID := uuid.New().String()
	ctx = logging.WithRunID(ctx, runID)
	start := time.Now()

	report := RunReport{RunID: runID}

	since, err := r.watermark.Load(ctx)
	if err != nil {
		metrics.ObserveRunDuration(time.Since(start), "error")
		return report, pkgerrors.Wrap(err, pkgerrors.ErrFetch)
	}
	report.Watermark = since

	r.logger.InfowCtx(ctx, "Starting ingestion run",
		"since", since,
		"query", r.query,
	)

	messages, err := r.source.Fetch(ctx, mail.Query{
		Since:  since,
		Filter: r.query,
		Limit:  r.limit,
	})
	if err != nil {
		metrics.ObserveRunDuration(time.Since(start), "error")
		r.logger.ErrorwCtx(ctx, "Fetch failed, aborting run",
			"error", err,
		)
		return report, err
	}

	report.Fetched = len(messages)
	metrics.BatchSize.Observe(float64(len(messages)))

	// Latest fetched timestamp becomes the new watermark even when
	// individual messages fail or are filtered out below: they were
	// fetched, and the cursor must not re-deliver them.
	newWatermark := since

	for i := range messages {
		msg := &messages[i]
		if msg.Timestamp.After(newWatermark) {
			newWatermark = msg.Timestamp
		}

		if r.filter != nil {
			match, err := r.filter.Match(ctx, *msg)
			if err != nil {
				r.logger.WarnwCtx(ctx, "Filter evaluation failed, skipping message",
					"message_id", msg.ID,
					"error", err,
				)
				report.Filtered++
				continue
			}
			if !match {
				report.Filtered++
				continue
			}
		}

		if err := ctx.Err(); err != nil {
			metrics.ObserveRunDuration(time.Since(start), "canceled")
			return report, err
		}

		r.processMessage(ctx, msg, &report)
	}

	if newWatermark.After(since) {
		if err := r.watermark.Save(ctx, newWatermark); err != nil {
			metrics.ObserveRunDuration(time.Since(start), "error")
			r.logger.ErrorwCtx(ctx, "Failed to save watermark",
				"watermark", newWatermark,
				"error", err,
			)
			return report, err
		}
		report.Watermark = newWatermark
		metrics.SetWatermark(newWatermark)
	}

	metrics.ObserveRunDuration(time.Since(start), "success")
	r.logger.InfowCtx(ctx, "Ingestion run finished",
		"fetched", report.Fetched,
		"processed", report.Processed,
		"completed", report.Completed,
		"aborted", report.Aborted,
		"filtered", report.Filtered,
		"watermark", report.Watermark,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return report, nil
}

func (r *Runner) processMessage(ctx context.Context, msg *mail.RawMessage, report *RunReport) {
	msgCtx := logging.WithMessageID(ctx, msg.ID)
	report.Processed++

	result := r.executor.Execute(msgCtx, pipeline.NewContext(msg))
	switch result.Status {
	case pipeline.StatusAborted:
		report.Aborted++
		r.logger.ErrorwCtx(msgCtx, "Message aborted",
			"subject", msg.Subject,
			"error", result.Err,
		)
	default:
		report.Completed++
	}
}
