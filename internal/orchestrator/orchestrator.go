package orchestrator

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/probaah/probaah/config"
	"github.com/probaah/probaah/internal/telemetry"
	"github.com/probaah/probaah/internal/tools"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var orchestratorTracer trace.Tracer = otel.Tracer("probaah/internal/orchestrator")

// Orchestrator wires the understanding pipeline into a single
// ProcessRequest call and retains a bounded in-memory history.
type Orchestrator struct {
	config    *config.Config
	logger    *log.Logger
	telemetry *telemetry.Telemetry
	registry  *tools.Registry

	planner  *Planner
	executor *Executor

	// History is owned exclusively by this instance; the mutex
	// serializes concurrent callers sharing one orchestrator.
	mu      sync.Mutex
	history []WorkflowResult

	progress ProgressFunc
}

// NewOrchestrator creates an orchestrator around the given collaborators.
func NewOrchestrator(cfg *config.Config, logger *log.Logger, tele *telemetry.Telemetry, registry *tools.Registry, toolset Toolset) (*Orchestrator, error) {
	if logger == nil {
		logger = log.New(log.Writer(), "[ORCH] ", log.LstdFlags)
	}

	resolver := NewResolver(cfg.Workflow, cfg.Tools.Analysis.OutputDir)

	return &Orchestrator{
		config:    cfg,
		logger:    logger,
		telemetry: tele,
		registry:  registry,
		planner:   NewPlanner(resolver),
		executor:  NewExecutor(toolset, logger, tele),
	}, nil
}

// SetProgressObserver installs an observer for step progress reporting.
// Purely presentational; nil disables reporting.
func (o *Orchestrator) SetProgressObserver(fn ProgressFunc) {
	o.progress = fn
}

// ProcessRequest processes a natural-language request end to end:
// extract entities, classify intent, build a plan, execute it and
// synthesize the report. It never returns an error; every failure path
// ends in a WorkflowResult with Success=false and a readable cause.
func (o *Orchestrator) ProcessRequest(ctx context.Context, text string, reqContext map[string]string) WorkflowResult {
	startTime := time.Now()
	ctx, span := orchestratorTracer.Start(ctx, "workflow.process_request",
		trace.WithAttributes(attribute.String("request.text", text)))
	defer span.End()

	request := Request{
		ID:        uuid.New().String(),
		Text:      text,
		Context:   reqContext,
		CreatedAt: startTime,
	}
	span.SetAttributes(attribute.String("request.id", request.ID))
	o.logger.Printf("processing request %s: %q", request.ID, text)

	// Phase 1: understand and plan
	_, planSpan := orchestratorTracer.Start(ctx, "workflow.plan")
	entities := ExtractEntities(text)
	intent := ClassifyIntent(text, entities)
	plan := o.planner.Plan(text, intent)
	planSpan.SetAttributes(
		attribute.String("intent.primary", string(intent.Primary)),
		attribute.String("intent.complexity", string(intent.Complexity)),
		attribute.Int("plan.step_count", len(plan.Steps)),
	)
	planSpan.End()
	o.logger.Printf("request %s: intent=%s complexity=%s steps=%d",
		request.ID, intent.Primary, intent.Complexity, len(plan.Steps))

	// Phase 2: execute
	execCtx, execSpan := orchestratorTracer.Start(ctx, "workflow.execute")
	stepResults := o.executor.Execute(execCtx, plan, o.progress)
	execSpan.SetAttributes(attribute.Int("steps.executed", len(stepResults)))
	execSpan.End()

	// Phase 3: synthesize
	_, synthSpan := orchestratorTracer.Start(ctx, "workflow.synthesize")
	response := Synthesize(intent, stepResults)
	synthSpan.End()

	success := len(stepResults) == len(plan.Steps)
	var firstError string
	for _, r := range stepResults {
		if !r.Success {
			success = false
			if firstError == "" {
				firstError = r.Error
			}
		}
	}

	result := WorkflowResult{
		Request:         request,
		Intent:          intent,
		Plan:            plan,
		Steps:           stepResults,
		Success:         success,
		Summary:         response.Summary,
		Recommendations: response.Recommendations,
		NextSteps:       response.NextSteps,
		Error:           firstError,
		TotalDuration:   time.Since(startTime),
	}

	if !success {
		span.SetStatus(codes.Error, firstError)
	}
	span.SetAttributes(attribute.Bool("workflow.success", success))

	if o.telemetry != nil {
		o.telemetry.RecordWorkflowEvent(ctx, telemetry.WorkflowEvent{
			ID:             request.ID,
			RequestText:    text,
			Intent:         string(intent.Primary),
			StartTime:      startTime,
			EndTime:        time.Now(),
			ProcessingTime: result.TotalDuration,
			Success:        success,
			StepsPlanned:   len(plan.Steps),
			StepsExecuted:  len(stepResults),
			Error:          firstError,
		})
	}

	o.appendHistory(result)
	return result
}

func (o *Orchestrator) appendHistory(result WorkflowResult) {
	maxHistory := o.config.General.MaxHistory
	if maxHistory <= 0 {
		maxHistory = 100
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.history = append(o.history, result)
	if len(o.history) > maxHistory {
		o.history = o.history[len(o.history)-maxHistory:]
	}
}

// GetHistory returns a copy of the processed-request history, oldest
// first.
func (o *Orchestrator) GetHistory() []WorkflowResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]WorkflowResult, len(o.history))
	copy(out, o.history)
	return out
}

// ClearHistory empties the history. History is never reset implicitly.
func (o *Orchestrator) ClearHistory() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.history = nil
}

// ToolStatus reports availability of every registered collaborator.
func (o *Orchestrator) ToolStatus() []tools.Status {
	if o.registry == nil {
		return nil
	}
	return o.registry.Statuses()
}
