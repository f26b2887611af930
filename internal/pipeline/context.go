package pipeline

import (
	"fmt"
	"time"

	"cargopipe/internal/mail"
	"cargopipe/pkg/models"
)

// StepOutcome is one entry of the context's diagnostics log, appended in
// execution order.
type StepOutcome struct {
	Step     string
	Success  bool
	Skipped  bool
	Err      error
	Duration time.Duration
}

// Context is the per-message blackboard passed through all steps. It is
// created fresh for each message, mutated in place, and discarded when
// the pipeline finishes. Steps never construct a replacement Context.
type Context struct {
	message *mail.RawMessage

	classification    models.Classification
	classificationSet bool
	record            *models.LogisticsRecord
	recordSet         bool

	custom   map[string]interface{}
	outcomes []StepOutcome

	startTime time.Time
}

func NewContext(msg *mail.RawMessage) *Context {
	return &Context{
		message:   msg,
		custom:    make(map[string]interface{}),
		startTime: time.Now(),
	}
}

// Message returns the fetched message. Callers must treat it as
// read-only.
func (c *Context) Message() *mail.RawMessage {
	return c.message
}

func (c *Context) StartTime() time.Time {
	return c.startTime
}

// SetClassification stores the label exactly once. A second call is a
// step-ordering bug, not a data condition.
func (c *Context) SetClassification(value models.Classification) error {
	if c.classificationSet {
		return fmt.Errorf("classification already set to %q", c.classification)
	}
	c.classification = value
	c.classificationSet = true
	return nil
}

func (c *Context) Classification() (models.Classification, bool) {
	return c.classification, c.classificationSet
}

func (c *Context) IsOrder() bool {
	return c.classificationSet && c.classification.IsOrder()
}

// SetLogisticsRecord stores the extracted record exactly once.
func (c *Context) SetLogisticsRecord(record *models.LogisticsRecord) error {
	if c.recordSet {
		return fmt.Errorf("logistics record already set")
	}
	c.record = record
	c.recordSet = true
	return nil
}

// Record returns the extracted record, nil until extraction succeeds.
func (c *Context) Record() *models.LogisticsRecord {
	return c.record
}

// MergeCustomData adds a side-channel value without clobbering the
// rest of the bag.
func (c *Context) MergeCustomData(key string, value interface{}) {
	c.custom[key] = value
}

func (c *Context) CustomData(key string) (interface{}, bool) {
	value, ok := c.custom[key]
	return value, ok
}

func (c *Context) RecordStepOutcome(outcome StepOutcome) {
	c.outcomes = append(c.outcomes, outcome)
}

// Outcomes returns the accumulated step log in execution order.
func (c *Context) Outcomes() []StepOutcome {
	outcomes := make([]StepOutcome, len(c.outcomes))
	copy(outcomes, c.outcomes)
	return outcomes
}

// ExecutedSteps lists the steps that ran (skipped guards excluded).
func (c *Context) ExecutedSteps() []string {
	names := make([]string, 0, len(c.outcomes))
	for _, o := range c.outcomes {
		if !o.Skipped {
			names = append(names, o.Step)
		}
	}
	return names
}

func (c *Context) FailedSteps() []string {
	var names []string
	for _, o := range c.outcomes {
		if !o.Skipped && !o.Success {
			names = append(names, o.Step)
		}
	}
	return names
}
