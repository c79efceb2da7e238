package orchestrator_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/floodwatch/opsconsole/internal/domain"
	"github.com/floodwatch/opsconsole/internal/observability"
	"github.com/floodwatch/opsconsole/internal/orchestrator"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	analyze        func(ctx context.Context, p domain.AnalysisParams) (domain.AnalysisOutcome, error)
	buildings      func(ctx context.Context, bbox domain.BoundingBox) (domain.BuildingCensus, error)
	predict        func(ctx context.Context, p domain.PredictionParams) (domain.PredictionOutcome, error)
	demoAnalysis   func(ctx context.Context) (domain.AnalysisOutcome, error)
	demoPrediction func(ctx context.Context) (domain.PredictionOutcome, error)
}

func (b *fakeBackend) Analyze(ctx context.Context, p domain.AnalysisParams) (domain.AnalysisOutcome, error) {
	if b.analyze == nil {
		return referenceAnalysis(), nil
	}
	return b.analyze(ctx, p)
}

func (b *fakeBackend) Buildings(ctx context.Context, bbox domain.BoundingBox) (domain.BuildingCensus, error) {
	if b.buildings == nil {
		return domain.BuildingCensus{Buildings: []domain.BuildingRecord{
			{OSMID: 101, Category: "residential", Flooded: true},
		}}, nil
	}
	return b.buildings(ctx, bbox)
}

func (b *fakeBackend) Predict(ctx context.Context, p domain.PredictionParams) (domain.PredictionOutcome, error) {
	if b.predict == nil {
		return referencePrediction(), nil
	}
	return b.predict(ctx, p)
}

func (b *fakeBackend) DemoAnalysis(ctx context.Context) (domain.AnalysisOutcome, error) {
	if b.demoAnalysis == nil {
		return referenceAnalysis(), nil
	}
	return b.demoAnalysis(ctx)
}

func (b *fakeBackend) DemoPrediction(ctx context.Context) (domain.PredictionOutcome, error) {
	if b.demoPrediction == nil {
		return referencePrediction(), nil
	}
	return b.demoPrediction(ctx)
}

type recordingSink struct {
	mu     sync.Mutex
	events []domain.OperationEvent
	err    error
}

func (s *recordingSink) PublishOperation(_ context.Context, ev domain.OperationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, ev)
	return nil
}

func (s *recordingSink) all() []domain.OperationEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.OperationEvent(nil), s.events...)
}

func referenceAnalysis() domain.AnalysisOutcome {
	return domain.AnalysisOutcome{
		Stats: domain.FloodStatistics{
			TotalPixels:    500_000,
			FloodedPixels:  75_000,
			AreaKm2:        50,
			FloodedAreaKm2: 7.5,
		},
		BuildingsAffected: 1247,
		ProcessingTime:    2300 * time.Millisecond,
	}
}

func referencePrediction() domain.PredictionOutcome {
	return domain.PredictionOutcome{
		HorizonHours:     6,
		FloodProbability: 0.42,
		RiskLevel:        domain.RiskModerate,
		Confidence:       0.85,
		ProcessingTime:   1200 * time.Millisecond,
	}
}

func validAnalysisParams() domain.AnalysisParams {
	return domain.AnalysisParams{
		BBox:       domain.NewBoundingBox(16.8, 51.0, 17.2, 51.2),
		DateBefore: time.Date(1997, 7, 1, 0, 0, 0, 0, time.UTC),
		DateAfter:  time.Date(1997, 7, 15, 0, 0, 0, 0, time.UTC),
	}
}

func validPredictionParams() domain.PredictionParams {
	return domain.PredictionParams{
		BBox:         domain.NewBoundingBox(16.8, 51.0, 17.2, 51.2),
		HorizonHours: 6,
	}
}

type fixture struct {
	orch    *orchestrator.Orchestrator
	backend *fakeBackend
	sink    *recordingSink
	metrics *observability.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := &fakeBackend{}
	sink := &recordingSink{}
	metrics := observability.NewMetricsForTesting()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	orch := orchestrator.New(backend, sink, clockwork.NewFakeClock(), logger, metrics, time.Minute)
	return &fixture{orch: orch, backend: backend, sink: sink, metrics: metrics}
}

func waitForPhase(t *testing.T, o *orchestrator.Orchestrator, want orchestrator.Phase) orchestrator.Status {
	t.Helper()
	require.Eventually(t, func() bool { return o.Snapshot().Phase == want },
		time.Second, time.Millisecond, "expected phase %s", want)
	return o.Snapshot()
}

func TestOrchestrator_AnalysisSucceedsWithEnrichment(t *testing.T) {
	f := newFixture(t)

	id, err := f.orch.StartAnalysis(context.Background(), validAnalysisParams())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	st := waitForPhase(t, f.orch, orchestrator.PhaseSucceeded)
	require.NotNil(t, st.Result)
	require.NotNil(t, st.Result.Analysis)
	assert.Equal(t, domain.ModeAnalysis, st.Result.Mode)
	assert.Equal(t, 1247, st.Result.Analysis.BuildingsAffected)
	assert.Len(t, st.Result.Analysis.Buildings, 1)
	assert.Equal(t, id, st.OperationID)
	assert.Empty(t, st.Failure)
}

func TestOrchestrator_DefaultPolarizationApplied(t *testing.T) {
	f := newFixture(t)

	var got string
	f.backend.analyze = func(_ context.Context, p domain.AnalysisParams) (domain.AnalysisOutcome, error) {
		got = p.Polarization
		return referenceAnalysis(), nil
	}

	_, err := f.orch.StartAnalysis(context.Background(), validAnalysisParams())
	require.NoError(t, err)
	waitForPhase(t, f.orch, orchestrator.PhaseSucceeded)
	assert.Equal(t, domain.PolarizationVV, got)
}

func TestOrchestrator_ValidationNeverReachesPending(t *testing.T) {
	f := newFixture(t)
	f.backend.analyze = func(context.Context, domain.AnalysisParams) (domain.AnalysisOutcome, error) {
		t.Error("backend must not be called for invalid parameters")
		return domain.AnalysisOutcome{}, nil
	}

	p := validAnalysisParams()
	p.BBox = domain.NewBoundingBox(17.0, 51.0, 17.0, 51.2) // zero width
	_, err := f.orch.StartAnalysis(context.Background(), p)
	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))
	assert.Equal(t, orchestrator.PhaseIdle, f.orch.Snapshot().Phase)
}

func TestOrchestrator_HorizonBounds(t *testing.T) {
	for _, horizon := range []int{0, -1, 25} {
		f := newFixture(t)
		p := validPredictionParams()
		p.HorizonHours = horizon
		_, err := f.orch.StartPrediction(context.Background(), p)
		require.Error(t, err, "horizon %d", horizon)
		assert.True(t, domain.IsValidationError(err))
		assert.Equal(t, orchestrator.PhaseIdle, f.orch.Snapshot().Phase)
	}

	for _, horizon := range []int{1, 24} {
		f := newFixture(t)
		p := validPredictionParams()
		p.HorizonHours = horizon
		_, err := f.orch.StartPrediction(context.Background(), p)
		require.NoError(t, err, "horizon %d", horizon)
		waitForPhase(t, f.orch, orchestrator.PhaseSucceeded)
	}
}

func TestOrchestrator_BackendFailureSetsFailed(t *testing.T) {
	f := newFixture(t)
	f.backend.analyze = func(context.Context, domain.AnalysisParams) (domain.AnalysisOutcome, error) {
		return domain.AnalysisOutcome{}, errors.New("inference failed: no imagery for range")
	}

	_, err := f.orch.StartAnalysis(context.Background(), validAnalysisParams())
	require.NoError(t, err)

	st := waitForPhase(t, f.orch, orchestrator.PhaseFailed)
	assert.Nil(t, st.Result)
	assert.Contains(t, st.Failure, "no imagery for range")
}

func TestOrchestrator_BuildingFetchFailureDegradesGracefully(t *testing.T) {
	f := newFixture(t)
	f.backend.buildings = func(context.Context, domain.BoundingBox) (domain.BuildingCensus, error) {
		return domain.BuildingCensus{}, errors.New("overpass timeout")
	}

	_, err := f.orch.StartAnalysis(context.Background(), validAnalysisParams())
	require.NoError(t, err)

	st := waitForPhase(t, f.orch, orchestrator.PhaseSucceeded)
	require.NotNil(t, st.Result.Analysis)
	assert.Empty(t, st.Result.Analysis.Buildings)
	assert.Equal(t, 1247, st.Result.Analysis.BuildingsAffected, "primary statistics survive the secondary failure")
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PartialDegradation))
}

func TestOrchestrator_StaleResponseNeverApplied(t *testing.T) {
	f := newFixture(t)

	release := make(chan struct{})
	f.backend.analyze = func(ctx context.Context, _ domain.AnalysisParams) (domain.AnalysisOutcome, error) {
		select {
		case <-release:
		case <-ctx.Done():
			return domain.AnalysisOutcome{}, ctx.Err()
		}
		out := referenceAnalysis()
		out.Message = "slow first operation"
		return out, nil
	}

	// Operation A stalls inside the backend.
	_, err := f.orch.StartAnalysis(context.Background(), validAnalysisParams())
	require.NoError(t, err)
	assert.True(t, f.orch.Busy())

	// Operation B supersedes it and completes.
	idB, err := f.orch.StartPredictionDemo(context.Background())
	require.NoError(t, err)
	st := waitForPhase(t, f.orch, orchestrator.PhaseSucceeded)
	require.Equal(t, idB, st.OperationID)

	// A's response arrives late and must be dropped on the floor.
	close(release)
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(f.metrics.StaleResponses) >= 1
	}, time.Second, time.Millisecond)

	st = f.orch.Snapshot()
	assert.Equal(t, orchestrator.PhaseSucceeded, st.Phase)
	assert.Equal(t, idB, st.OperationID)
	require.NotNil(t, st.Result)
	assert.Equal(t, domain.ModePrediction, st.Result.Mode)
	assert.Nil(t, st.Result.Analysis, "superseded analysis payload leaked into state")
}

func TestOrchestrator_ModesAreMutuallyExclusive(t *testing.T) {
	f := newFixture(t)

	_, err := f.orch.StartAnalysisDemo(context.Background())
	require.NoError(t, err)
	st := waitForPhase(t, f.orch, orchestrator.PhaseSucceeded)
	require.NotNil(t, st.Result.Analysis)

	idP, err := f.orch.StartPrediction(context.Background(), validPredictionParams())
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		s := f.orch.Snapshot()
		return s.Phase == orchestrator.PhaseSucceeded && s.OperationID == idP
	}, time.Second, time.Millisecond)

	st = f.orch.Snapshot()
	require.NotNil(t, st.Result)
	assert.Nil(t, st.Result.Analysis, "starting prediction must discard the analysis result")
	assert.NotNil(t, st.Result.Prediction)
}

func TestOrchestrator_StartingDiscardsPreviousResultImmediately(t *testing.T) {
	f := newFixture(t)

	release := make(chan struct{})
	defer close(release)

	_, err := f.orch.StartAnalysisDemo(context.Background())
	require.NoError(t, err)
	waitForPhase(t, f.orch, orchestrator.PhaseSucceeded)

	f.backend.predict = func(ctx context.Context, _ domain.PredictionParams) (domain.PredictionOutcome, error) {
		<-release
		return referencePrediction(), nil
	}
	_, err = f.orch.StartPrediction(context.Background(), validPredictionParams())
	require.NoError(t, err)

	st := f.orch.Snapshot()
	assert.Equal(t, orchestrator.PhasePending, st.Phase)
	assert.Nil(t, st.Result, "previous result visible while the new operation is pending")
}

func TestOrchestrator_Clear(t *testing.T) {
	f := newFixture(t)

	_, err := f.orch.StartAnalysisDemo(context.Background())
	require.NoError(t, err)
	waitForPhase(t, f.orch, orchestrator.PhaseSucceeded)

	f.orch.Clear()
	st := f.orch.Snapshot()
	assert.Equal(t, orchestrator.PhaseIdle, st.Phase)
	assert.Nil(t, st.Result)
	assert.Empty(t, st.OperationID)

	// Clearing while already idle is a no-op; the generation must not move.
	gen := st.Generation
	f.orch.Clear()
	assert.Equal(t, gen, f.orch.Snapshot().Generation)
}

func TestOrchestrator_ClearDiscardsInFlightResponse(t *testing.T) {
	f := newFixture(t)

	release := make(chan struct{})
	f.backend.demoAnalysis = func(ctx context.Context) (domain.AnalysisOutcome, error) {
		<-release
		return referenceAnalysis(), nil
	}

	_, err := f.orch.StartAnalysisDemo(context.Background())
	require.NoError(t, err)
	f.orch.Clear()

	close(release)
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(f.metrics.StaleResponses) >= 1
	}, time.Second, time.Millisecond)

	st := f.orch.Snapshot()
	assert.Equal(t, orchestrator.PhaseIdle, st.Phase)
	assert.Nil(t, st.Result)
}

func TestOrchestrator_PublishesTerminalEvents(t *testing.T) {
	f := newFixture(t)

	id, err := f.orch.StartAnalysisDemo(context.Background())
	require.NoError(t, err)
	waitForPhase(t, f.orch, orchestrator.PhaseSucceeded)

	require.Eventually(t, func() bool { return len(f.sink.all()) == 1 },
		time.Second, time.Millisecond)
	ev := f.sink.all()[0]
	assert.Equal(t, id, ev.ID)
	assert.Equal(t, domain.ModeAnalysis, ev.Mode)
	assert.Equal(t, domain.OutcomeSucceeded, ev.Outcome)
	assert.Equal(t, 7.5, ev.FloodedAreaKm2)
	assert.Equal(t, 1247, ev.BuildingsAffected)
}

func TestOrchestrator_EventPublishFailureDoesNotAffectOperation(t *testing.T) {
	f := newFixture(t)
	f.sink.err = errors.New("broker unreachable")

	_, err := f.orch.StartAnalysisDemo(context.Background())
	require.NoError(t, err)
	st := waitForPhase(t, f.orch, orchestrator.PhaseSucceeded)
	require.NotNil(t, st.Result)
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(f.metrics.EventPublishErrors) == 1
	}, time.Second, time.Millisecond)
}

func TestOrchestrator_NilSinkPublishesNothing(t *testing.T) {
	backend := &fakeBackend{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	orch := orchestrator.New(backend, nil, clockwork.NewFakeClock(), logger,
		observability.NewMetricsForTesting(), time.Minute)

	_, err := orch.StartPredictionDemo(context.Background())
	require.NoError(t, err)
	waitForPhase(t, orch, orchestrator.PhaseSucceeded)
}
