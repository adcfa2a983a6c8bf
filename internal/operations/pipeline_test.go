package operations

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	apperrors "concretelab/internal/errors"
	"concretelab/internal/shared/testutil"
)

type fakeStep struct {
	BaseStage
	err   error
	calls int
}

func newFakeStep(id string, err error) *fakeStep {
	return &fakeStep{BaseStage: NewBaseStage(id, "fake "+id), err: err}
}

func (s *fakeStep) Execute(_ context.Context, _ *SpecimenState) error {
	s.calls++
	return s.err
}

func TestNewPipeline_RejectsDuplicates(t *testing.T) {
	_, err := NewPipeline(nil, newFakeStep("a", nil), newFakeStep("a", nil))
	assert.Error(t, err)

	_, err = NewPipeline(nil, newFakeStep("a", nil), nil)
	assert.Error(t, err)
}

func TestPipeline_RunSuccess(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	a, b := newFakeStep("a", nil), newFakeStep("b", nil)
	p, err := NewPipeline(logger, a, b)
	require.NoError(t, err)
	p.WithTracer(tp.Tracer("test"))

	state := NewSpecimenState("in.csv", testutil.CompressionConfig("S1"))
	require.NoError(t, p.Run(context.Background(), state))

	assert.Equal(t, SpecimenStatusCompleted, state.Status)
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
	assert.Equal(t, StepStatusCompleted, state.GetStep("a").GetStatus())
	assert.Equal(t, StepStatusCompleted, state.GetStep("b").GetStatus())
	assert.NotNil(t, state.EndTime)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "stage.a", spans[0].Name())
	assert.Equal(t, "stage.b", spans[1].Name())
}

func TestPipeline_StopsAtFirstFailure(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	failure := apperrors.NewEmptyValidRangeError(10, 0.5)
	a, b, c := newFakeStep("a", nil), newFakeStep("b", failure), newFakeStep("c", nil)
	p, err := NewPipeline(logger, a, b, c)
	require.NoError(t, err)
	p.WithTracer(tp.Tracer("test"))

	state := NewSpecimenState("in.csv", testutil.CompressionConfig("S2"))
	err = p.Run(context.Background(), state)
	require.Error(t, err)

	assert.True(t, errors.Is(err, apperrors.ErrEmptyValidRange))
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "S2", appErr.Context[apperrors.ContextSpecimen])
	assert.Equal(t, "b", appErr.Context[apperrors.ContextStage])

	assert.Equal(t, 0, c.calls)
	assert.Equal(t, SpecimenStatusFailed, state.Status)
	assert.Equal(t, StepStatusFailed, state.GetStep("b").GetStatus())
	assert.Equal(t, StepStatusSkipped, state.GetStep("c").GetStatus())

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Error, spans[1].Status().Code)

	testutil.AssertLogAttr(t, handler, "stage", "b")
}

func TestPipeline_ForeignErrorIsAnnotated(t *testing.T) {
	p, err := NewPipeline(nil, newFakeStep("a", errors.New("disk gone")))
	require.NoError(t, err)

	err = p.Run(context.Background(), NewSpecimenState("x.csv", testutil.CompressionConfig("S3")))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeStorage))
	assert.Contains(t, err.Error(), "disk gone")
	assert.Contains(t, err.Error(), "S3")
}

func TestPipeline_CancelledContext(t *testing.T) {
	a := newFakeStep("a", nil)
	p, err := NewPipeline(nil, a)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = p.Run(ctx, NewSpecimenState("x.csv", testutil.CompressionConfig("S4")))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, a.calls)
}

func TestStepState_Lifecycle(t *testing.T) {
	s := NewStepState("load", "Load samples")
	assert.Equal(t, StepStatusPending, s.GetStatus())
	assert.Zero(t, s.Duration())

	s.Start()
	assert.Equal(t, StepStatusActive, s.GetStatus())

	s.Fail(errors.New("boom"))
	assert.Equal(t, StepStatusFailed, s.GetStatus())
	assert.Equal(t, "boom", s.Message)
	assert.GreaterOrEqual(t, s.Duration().Nanoseconds(), int64(0))
}
