package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cargopipe/internal/logger"
	"cargopipe/internal/mail"
	"cargopipe/internal/pipeline"
	"cargopipe/internal/watermark"
)

type fakeSource struct {
	messages []mail.RawMessage
	err      error
	queries  []mail.Query
}

func (f *fakeSource) Fetch(ctx context.Context, q mail.Query) ([]mail.RawMessage, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	return f.messages, nil
}

func (f *fakeSource) Close() error { return nil }

type scriptedStep struct {
	failFor map[string]error
}

func (s *scriptedStep) Name() string                            { return "scripted" }
func (s *scriptedStep) Order() int                              { return 1 }
func (s *scriptedStep) Critical() bool                          { return true }
func (s *scriptedStep) ShouldProcess(pctx *pipeline.Context) bool { return true }

func (s *scriptedStep) Process(ctx context.Context, pctx *pipeline.Context) error {
	if err, ok := s.failFor[pctx.Message().ID]; ok {
		return err
	}
	return nil
}

func message(id string, ts time.Time) mail.RawMessage {
	return mail.RawMessage{ID: id, Subject: "subject " + id, Timestamp: ts}
}

func newTestRunner(t *testing.T, source mail.Source, store watermark.Store, failFor map[string]error, opts ...Option) *Runner {
	t.Helper()
	exec, err := pipeline.NewExecutor(logger.NopLogger(), &scriptedStep{failFor: failFor})
	require.NoError(t, err)
	return NewRunner(source, exec, store, logger.NopLogger(), opts...)
}

func TestRunAdvancesWatermarkToNewestTimestamp(t *testing.T) {
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	source := &fakeSource{messages: []mail.RawMessage{
		message("m1", base.Add(2*time.Minute)),
		message("m2", base.Add(5*time.Minute)),
		message("m3", base.Add(1*time.Minute)),
	}}
	store := watermark.NewMemoryStore()

	r := newTestRunner(t, source, store, nil)
	report, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, report.Fetched)
	assert.Equal(t, 3, report.Completed)
	assert.Equal(t, base.Add(5*time.Minute), report.Watermark)

	saved, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, base.Add(5*time.Minute), saved)
}

func TestRunAdvancesWatermarkDespiteAbortedMessages(t *testing.T) {
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	source := &fakeSource{messages: []mail.RawMessage{
		message("m1", base.Add(time.Minute)),
		message("m2", base.Add(2*time.Minute)),
	}}
	store := watermark.NewMemoryStore()

	r := newTestRunner(t, source, store, map[string]error{
		"m2": errors.New("classification exhausted"),
	})

	report, err := r.Run(context.Background())
	require.NoError(t, err, "per-message failures must not fail the run")

	assert.Equal(t, 1, report.Completed)
	assert.Equal(t, 1, report.Aborted)

	saved, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, base.Add(2*time.Minute), saved, "aborted messages were fetched and must not be re-delivered")
}

func TestRunFetchFailureLeavesWatermarkUntouched(t *testing.T) {
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	store := watermark.NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), base))

	source := &fakeSource{err: errors.New("mailbox unreachable")}
	r := newTestRunner(t, source, store, nil)

	report, err := r.Run(context.Background())
	require.Error(t, err)
	assert.Zero(t, report.Processed)

	saved, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, base, saved)
}

func TestRunPassesWatermarkAsFetchSince(t *testing.T) {
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	store := watermark.NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), base))

	source := &fakeSource{}
	r := newTestRunner(t, source, store, nil, WithQuery("from:dispo"), WithBatchLimit(25))

	_, err := r.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, source.queries, 1)
	assert.Equal(t, base, source.queries[0].Since)
	assert.Equal(t, "from:dispo", source.queries[0].Filter)
	assert.Equal(t, 25, source.queries[0].Limit)
}

func TestRunEmptyBatchKeepsWatermark(t *testing.T) {
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	store := watermark.NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), base))

	r := newTestRunner(t, &fakeSource{}, store, nil)

	report, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Fetched)
	assert.Equal(t, base, report.Watermark)
}

func TestRunFilterNarrowsBatchButWatermarkStillAdvances(t *testing.T) {
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	source := &fakeSource{messages: []mail.RawMessage{
		message("keep-1", base.Add(time.Minute)),
		message("drop-2", base.Add(2*time.Minute)),
	}}
	store := watermark.NewMemoryStore()

	filter, err := mail.NewFilter(`id.startsWith("keep")`)
	require.NoError(t, err)

	r := newTestRunner(t, source, store, nil, WithFilter(filter))

	report, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 1, report.Filtered)

	saved, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, base.Add(2*time.Minute), saved, "filtered messages were fetched and must not be re-delivered")
}

func TestRunAssignsRunID(t *testing.T) {
	r := newTestRunner(t, &fakeSource{}, watermark.NewMemoryStore(), nil)

	first, err := r.Run(context.Background())
	require.NoError(t, err)
	second, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, first.RunID)
	assert.NotEqual(t, first.RunID, second.RunID)
}
