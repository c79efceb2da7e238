// Package orchestrator drives the console's two mutually exclusive operation
// modes. Each submission is tagged with a monotonically increasing generation
// counter; a response is applied to state only if its generation is still
// current, so a superseded request can complete on the wire without its
// payload ever becoming visible.
package orchestrator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/floodwatch/opsconsole/internal/domain"
	"github.com/floodwatch/opsconsole/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Backend is the inference service contract the orchestrator consumes.
type Backend interface {
	Analyze(ctx context.Context, p domain.AnalysisParams) (domain.AnalysisOutcome, error)
	Buildings(ctx context.Context, bbox domain.BoundingBox) (domain.BuildingCensus, error)
	Predict(ctx context.Context, p domain.PredictionParams) (domain.PredictionOutcome, error)
	DemoAnalysis(ctx context.Context) (domain.AnalysisOutcome, error)
	DemoPrediction(ctx context.Context) (domain.PredictionOutcome, error)
}

// EventSink receives terminal operation events. Publishing is best-effort;
// errors are logged and never surfaced to the operation.
type EventSink interface {
	PublishOperation(ctx context.Context, ev domain.OperationEvent) error
}

// Phase is the per-mode operation lifecycle.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhasePending   Phase = "pending"
	PhaseSucceeded Phase = "succeeded"
	PhaseFailed    Phase = "failed"
)

// Status is a copy of the orchestrator state for presentation.
type Status struct {
	Mode        domain.Mode
	Phase       Phase
	Generation  uint64
	OperationID string
	StartedAt   time.Time
	CompletedAt time.Time
	Failure     string
	Result      *domain.OperationResult
}

// Orchestrator owns the generation counter, the mode, and the live result.
// All mutation happens through its own transitions; consumers read snapshots.
type Orchestrator struct {
	backend Backend
	events  EventSink
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
	timeout time.Duration

	mu          sync.Mutex
	generation  uint64
	mode        domain.Mode
	phase       Phase
	result      *domain.OperationResult
	failure     string
	operationID string
	startedAt   time.Time
	completedAt time.Time
}

// New creates an idle Orchestrator. Pass a nil events sink to disable
// operation event publishing. The timeout bounds each operation end to end;
// SAR-class analysis can take minutes, so it should be generous.
func New(backend Backend, events EventSink, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics, timeout time.Duration) *Orchestrator {
	return &Orchestrator{
		backend: backend,
		events:  events,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
		timeout: timeout,
		phase:   PhaseIdle,
	}
}

// StartAnalysis validates the parameters, supersedes any live operation, and
// issues the analysis request. Validation failures are returned synchronously
// and never reach Pending. Returns the operation ID.
func (o *Orchestrator) StartAnalysis(ctx context.Context, p domain.AnalysisParams) (string, error) {
	p = p.WithDefaults()
	if err := p.Validate(); err != nil {
		return "", err
	}

	gen, id := o.begin(domain.ModeAnalysis)
	opCtx, cancel := o.operationContext(ctx)
	go o.runAnalysis(opCtx, cancel, gen, id, p)
	return id, nil
}

// StartPrediction validates the parameters, supersedes any live operation,
// and issues the prediction request.
func (o *Orchestrator) StartPrediction(ctx context.Context, p domain.PredictionParams) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}

	gen, id := o.begin(domain.ModePrediction)
	opCtx, cancel := o.operationContext(ctx)
	go func() {
		defer cancel()
		outcome, err := o.backend.Predict(opCtx, p)
		if err != nil {
			o.fail(gen, err)
			return
		}
		o.succeed(gen, &domain.OperationResult{Mode: domain.ModePrediction, Prediction: &outcome})
	}()
	return id, nil
}

// StartAnalysisDemo runs the analysis state-machine path against the
// fixed-example endpoint; no spatial selection is required.
func (o *Orchestrator) StartAnalysisDemo(ctx context.Context) (string, error) {
	gen, id := o.begin(domain.ModeAnalysis)
	opCtx, cancel := o.operationContext(ctx)
	go func() {
		defer cancel()
		outcome, err := o.backend.DemoAnalysis(opCtx)
		if err != nil {
			o.fail(gen, err)
			return
		}
		o.succeed(gen, &domain.OperationResult{Mode: domain.ModeAnalysis, Analysis: &outcome})
	}()
	return id, nil
}

// StartPredictionDemo runs the prediction state-machine path against the
// fixed-example endpoint.
func (o *Orchestrator) StartPredictionDemo(ctx context.Context) (string, error) {
	gen, id := o.begin(domain.ModePrediction)
	opCtx, cancel := o.operationContext(ctx)
	go func() {
		defer cancel()
		outcome, err := o.backend.DemoPrediction(opCtx)
		if err != nil {
			o.fail(gen, err)
			return
		}
		o.succeed(gen, &domain.OperationResult{Mode: domain.ModePrediction, Prediction: &outcome})
	}()
	return id, nil
}

// Clear forces Idle and discards the live result. A no-op when already Idle;
// otherwise the generation advances so any in-flight response is discarded.
func (o *Orchestrator) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.phase == PhaseIdle {
		return
	}

	o.generation++
	o.mode = ""
	o.phase = PhaseIdle
	o.result = nil
	o.failure = ""
	o.operationID = ""
	o.startedAt = time.Time{}
	o.completedAt = time.Time{}
	o.metrics.OperationPending.Set(0)
	o.logger.Info("operation state cleared")
}

// Snapshot returns a copy of the current state for presentation.
func (o *Orchestrator) Snapshot() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Status{
		Mode:        o.mode,
		Phase:       o.phase,
		Generation:  o.generation,
		OperationID: o.operationID,
		StartedAt:   o.startedAt,
		CompletedAt: o.completedAt,
		Failure:     o.failure,
		Result:      o.result,
	}
}

// Busy reports whether an operation is pending. Read-only; the connectivity
// monitor and presentation may poll it freely.
func (o *Orchestrator) Busy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase == PhasePending
}

// runAnalysis performs the primary analysis request and, on success, the
// dependent buildings request with the same bbox. A secondary failure
// degrades the outcome (empty building list) instead of failing it: the
// primary statistics remain valid without enrichment.
func (o *Orchestrator) runAnalysis(ctx context.Context, cancel context.CancelFunc, gen uint64, id string, p domain.AnalysisParams) {
	defer cancel()

	outcome, err := o.backend.Analyze(ctx, p)
	if err != nil {
		o.fail(gen, err)
		return
	}

	// Skip the secondary fetch when the operation has already been superseded.
	if !o.current(gen) {
		o.discard(gen)
		return
	}

	census, err := o.backend.Buildings(ctx, p.BBox)
	if err != nil {
		o.logger.Warn("building enrichment failed, continuing without it",
			"operation_id", id, "error", err)
		o.metrics.PartialDegradation.Inc()
	} else {
		outcome.Buildings = census.Buildings
	}

	o.succeed(gen, &domain.OperationResult{Mode: domain.ModeAnalysis, Analysis: &outcome})
}

// begin supersedes any live operation: it advances the generation, discards
// the previous result (mutual exclusivity across modes), and enters Pending.
func (o *Orchestrator) begin(mode domain.Mode) (uint64, string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.generation++
	o.mode = mode
	o.phase = PhasePending
	o.result = nil
	o.failure = ""
	o.operationID = uuid.NewString()
	o.startedAt = o.clock.Now()
	o.completedAt = time.Time{}

	o.metrics.OperationsStarted.WithLabelValues(string(mode)).Inc()
	o.metrics.OperationPending.Set(1)
	o.logger.Info("operation started", "mode", mode, "operation_id", o.operationID, "generation", o.generation)
	return o.generation, o.operationID
}

// operationContext detaches the operation from the caller's request context
// so an HTTP disconnect does not cancel it, while still bounding it with the
// operation timeout.
func (o *Orchestrator) operationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), o.timeout)
}

func (o *Orchestrator) current(gen uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return gen == o.generation
}

func (o *Orchestrator) succeed(gen uint64, result *domain.OperationResult) {
	o.mu.Lock()
	if gen != o.generation {
		o.mu.Unlock()
		o.discard(gen)
		return
	}

	o.phase = PhaseSucceeded
	o.result = result
	o.completedAt = o.clock.Now()
	mode := o.mode
	id := o.operationID
	duration := o.completedAt.Sub(o.startedAt)
	o.metrics.OperationPending.Set(0)
	o.mu.Unlock()

	o.metrics.OperationsFinished.WithLabelValues(string(mode), domain.OutcomeSucceeded).Inc()
	o.metrics.OperationDuration.WithLabelValues(string(mode)).Observe(duration.Seconds())
	o.logger.Info("operation succeeded", "mode", mode, "operation_id", id, "duration", duration)
	o.publish(buildEvent(id, mode, domain.OutcomeSucceeded, "", result, o.clock.Now()))
}

func (o *Orchestrator) fail(gen uint64, err error) {
	o.mu.Lock()
	if gen != o.generation {
		o.mu.Unlock()
		o.discard(gen)
		return
	}

	o.phase = PhaseFailed
	o.result = nil
	o.failure = err.Error()
	o.completedAt = o.clock.Now()
	mode := o.mode
	id := o.operationID
	duration := o.completedAt.Sub(o.startedAt)
	o.metrics.OperationPending.Set(0)
	o.mu.Unlock()

	o.metrics.OperationsFinished.WithLabelValues(string(mode), domain.OutcomeFailed).Inc()
	o.metrics.OperationDuration.WithLabelValues(string(mode)).Observe(duration.Seconds())
	o.logger.Error("operation failed", "mode", mode, "operation_id", id, "error", err)
	o.publish(buildEvent(id, mode, domain.OutcomeFailed, err.Error(), nil, o.clock.Now()))
}

// discard drops a response whose generation has been superseded.
func (o *Orchestrator) discard(gen uint64) {
	o.metrics.StaleResponses.Inc()
	o.logger.Debug("stale response discarded", "generation", gen)
}

func (o *Orchestrator) publish(ev domain.OperationEvent) {
	if o.events == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := o.events.PublishOperation(ctx, ev); err != nil {
		o.metrics.EventPublishErrors.Inc()
		o.logger.Warn("operation event publish failed", "operation_id", ev.ID, "error", err)
		return
	}
	o.metrics.EventsPublished.Inc()
}

func buildEvent(id string, mode domain.Mode, outcome, message string, result *domain.OperationResult, at time.Time) domain.OperationEvent {
	ev := domain.OperationEvent{
		ID:         id,
		Mode:       mode,
		Outcome:    outcome,
		Message:    message,
		OccurredAt: at,
	}
	if result != nil && result.Analysis != nil {
		ev.FloodedAreaKm2 = result.Analysis.Stats.FloodedAreaKm2
		ev.BuildingsAffected = result.Analysis.BuildingsAffected
		ev.ProcessingTimeSeconds = result.Analysis.ProcessingTime.Seconds()
	}
	if result != nil && result.Prediction != nil {
		ev.ProcessingTimeSeconds = result.Prediction.ProcessingTime.Seconds()
	}
	return ev
}
