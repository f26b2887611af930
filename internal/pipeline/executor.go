package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cargopipe/internal/logger"
	pkgerrors "cargopipe/pkg/errors"
	"cargopipe/pkg/metrics"
)

// Status is the terminal outcome of one message's pipeline execution.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusAborted   Status = "aborted"
)

// Result is what the executor reports per message. Err is set only for
// aborted executions; non-critical failures live in the Context's
// outcome log.
type Result struct {
	Status Status
	Err    error
}

// Executor runs registered steps in ascending order against one Context
// at a time. It never retries a step; bounded retry is a concern of the
// step's collaborator call.
type Executor struct {
	steps  []Step
	logger logger.Logger
}

func NewExecutor(log logger.Logger, steps ...Step) (*Executor, error) {
	sorted := make([]Step, len(steps))
	copy(sorted, steps)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Order() < sorted[j].Order()
	})

	seen := make(map[int]string, len(sorted))
	for _, step := range sorted {
		if other, ok := seen[step.Order()]; ok {
			return nil, fmt.Errorf("steps %q and %q share order %d", other, step.Name(), step.Order())
		}
		seen[step.Order()] = step.Name()
	}

	return &Executor{steps: sorted, logger: log}, nil
}

// Execute drives all steps for one message. A critical step failure
// aborts the remaining steps for this Context only; the caller's batch
// continues.
func (e *Executor) Execute(ctx context.Context, pctx *Context) Result {
	for _, step := range e.steps {
		if err := ctx.Err(); err != nil {
			return Result{Status: StatusAborted, Err: err}
		}

		if !step.ShouldProcess(pctx) {
			e.logger.DebugwCtx(ctx, "Skipping step, guard returned false",
				"step", step.Name(),
			)
			pctx.RecordStepOutcome(StepOutcome{Step: step.Name(), Skipped: true})
			metrics.PipelineStepExecutionsTotal.WithLabelValues(step.Name(), "skipped").Inc()
			continue
		}

		start := time.Now()
		err := e.runStep(ctx, step, pctx)
		duration := time.Since(start)

		if err == nil {
			pctx.RecordStepOutcome(StepOutcome{Step: step.Name(), Success: true, Duration: duration})
			metrics.ObserveStepDuration(step.Name(), duration, "success")
			e.logger.DebugwCtx(ctx, "Step completed",
				"step", step.Name(),
				"duration_ms", duration.Milliseconds(),
			)
			continue
		}

		pctx.RecordStepOutcome(StepOutcome{Step: step.Name(), Err: err, Duration: duration})
		metrics.ObserveStepDuration(step.Name(), duration, "error")

		if step.Critical() {
			e.logger.ErrorwCtx(ctx, "Critical step failed, aborting message",
				"step", step.Name(),
				"error", err,
			)
			metrics.PipelineMessagesTotal.WithLabelValues(string(StatusAborted)).Inc()
			return Result{Status: StatusAborted, Err: err}
		}

		e.logger.WarnwCtx(ctx, "Step failed, continuing with partial context",
			"step", step.Name(),
			"error", err,
		)
	}

	metrics.PipelineMessagesTotal.WithLabelValues(string(StatusCompleted)).Inc()
	return Result{Status: StatusCompleted}
}

// runStep contains a panicking step so one bad message cannot take down
// the batch.
func (e *Executor) runStep(ctx context.Context, step Step, pctx *Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = pkgerrors.RecoverPanic(r)
		}
	}()
	return step.Process(ctx, pctx)
}

// Steps returns the registered steps in execution order.
func (e *Executor) Steps() []Step {
	steps := make([]Step, len(e.steps))
	copy(steps, e.steps)
	return steps
}
