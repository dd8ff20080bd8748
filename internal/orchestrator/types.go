// Package orchestrator is the request-understanding and workflow engine:
// it turns free-form computational-chemistry requests into typed plans,
// executes them against external collaborator tools and aggregates the
// outcomes into a single report.
package orchestrator

import (
	"time"
)

// Request is one natural-language request plus optional caller context.
// Immutable once created; it lives for the duration of one ProcessRequest
// call plus its archived copy in history.
type Request struct {
	ID        string            `json:"id"`
	Text      string            `json:"text"`
	Context   map[string]string `json:"context,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// EntityBag holds the structured tokens extracted from a request, grouped
// by category. Insertion order mirrors position in the source text because
// downstream resolution uses first-match heuristics. Duplicates across
// patterns are kept; consumers deduplicate if they care.
type EntityBag struct {
	Files      []string `json:"files"`
	Molecules  []string `json:"molecules"`
	Numbers    []int    `json:"numbers"`
	Tools      []string `json:"tools"`
	Properties []string `json:"properties"`
}

// IntentKind is one label from the fixed intent taxonomy.
type IntentKind string

const (
	IntentSubstitution  IntentKind = "substitution"
	IntentAnalysis      IntentKind = "analysis"
	IntentValidation    IntentKind = "validation"
	IntentPresentation  IntentKind = "presentation"
	IntentVisualization IntentKind = "visualization"
	IntentInformation   IntentKind = "information"
	IntentWorkflow      IntentKind = "workflow"
	IntentGeneral       IntentKind = "general"
)

// Complexity is the coarse effort tier assigned to a request.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// Intent is the classification outcome for one request. Computed once,
// read-only afterward.
type Intent struct {
	Primary    IntentKind         `json:"primary_intent"`
	Scores     map[IntentKind]int `json:"intent_scores"`
	Complexity Complexity         `json:"complexity"`
	Entities   EntityBag          `json:"entities"`
}

// Action is the kind of work one plan step performs.
type Action string

const (
	ActionSubstitute   Action = "substitute"
	ActionAnalyze      Action = "analyze"
	ActionValidate     Action = "validate"
	ActionPresentation Action = "presentation"
	ActionVisualize    Action = "visualize"
	ActionUnknown      Action = "unknown"
)

// StepParams is the resolved parameter set for one plan step. Only the
// fields relevant to the step's action are populated; the rest keep their
// zero values.
type StepParams struct {
	InputFile     string  `json:"input_file,omitempty"`
	RemoveSpecies string  `json:"remove_species,omitempty"`
	AddSpecies    string  `json:"add_species,omitempty"`
	Count         int     `json:"count,omitempty"`
	Density       float64 `json:"density,omitempty"`

	Bonds  bool `json:"bonds,omitempty"`
	RDF    bool `json:"rdf,omitempty"`
	Energy bool `json:"energy,omitempty"`
	Plots  bool `json:"plots,omitempty"`

	Interactive bool   `json:"interactive,omitempty"`
	AnalysisDir string `json:"analysis_dir,omitempty"`
	Title       string `json:"title,omitempty"`
}

// PlanStep is one typed unit of work. Priority determines execution order
// (lower runs first, ties break by list position). EstimatedSeconds is a
// static display-only lookup, never real scheduling input.
type PlanStep struct {
	Action           Action     `json:"action"`
	Description      string     `json:"description"`
	Params           StepParams `json:"parameters"`
	Priority         int        `json:"priority"`
	EstimatedSeconds int        `json:"estimated_seconds"`
}

// Plan is the ordered decomposition of a request. Never empty: planning
// falls back to a single unknown step rather than producing nothing.
type Plan struct {
	Steps []PlanStep `json:"steps"`
}

// StepResult records the outcome of executing one plan step.
type StepResult struct {
	Step      PlanStep      `json:"step"`
	Success   bool          `json:"success"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Output    any           `json:"output,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// WorkflowResult is the aggregated outcome of one processed request.
// Success is true only when every planned step executed and succeeded;
// execution halts at the first failure, so failed runs carry fewer
// StepResults than plan steps.
type WorkflowResult struct {
	Request         Request       `json:"request"`
	Intent          Intent        `json:"intent"`
	Plan            Plan          `json:"plan"`
	Steps           []StepResult  `json:"steps"`
	Success         bool          `json:"success"`
	Summary         string        `json:"summary"`
	Recommendations []string      `json:"recommendations,omitempty"`
	NextSteps       []string      `json:"next_steps,omitempty"`
	Error           string        `json:"error,omitempty"`
	TotalDuration   time.Duration `json:"total_duration"`
}

// ProgressFunc observes step execution progress. step is 1-based, percent
// advances monotonically at fixed checkpoints. Purely informational; no
// control flow may depend on it.
type ProgressFunc func(step, totalSteps, percent int, message string)
