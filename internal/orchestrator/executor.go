package orchestrator

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/probaah/probaah/internal/telemetry"
	"github.com/probaah/probaah/internal/tools"
)

// Collaborator interfaces. The executor depends on these rather than the
// concrete wrappers so tests can substitute stubs.

// StructurePacker places gas molecules into a structure.
type StructurePacker interface {
	IsAvailable() bool
	GasSubstitution(ctx context.Context, req tools.SubstitutionRequest) (tools.SubstitutionResult, error)
}

// StructureValidator approves or flags a molecular structure.
type StructureValidator interface {
	IsAvailable() bool
	ValidateStructure(ctx context.Context, structureFile string) (tools.ValidationResult, error)
}

// TrajectoryAnalyzer computes statistics from a trajectory file.
type TrajectoryAnalyzer interface {
	IsAvailable() bool
	Analyze(ctx context.Context, trajectoryFile, outputDir string, opts tools.AnalysisOptions) (tools.AnalysisResult, error)
}

// PresentationGenerator renders analysis output into a slide deck.
type PresentationGenerator interface {
	IsAvailable() bool
	Generate(ctx context.Context, analysisDir, title string) (tools.SlidesResult, error)
}

// Toolset bundles the collaborators the executor can drive.
type Toolset struct {
	Packer    StructurePacker
	Validator StructureValidator
	Analyzer  TrajectoryAnalyzer
	Presenter PresentationGenerator
}

// Executor runs plan steps against collaborators in priority order,
// halting at the first failure.
type Executor struct {
	toolset   Toolset
	logger    *log.Logger
	telemetry *telemetry.Telemetry
}

// NewExecutor builds a step executor.
func NewExecutor(toolset Toolset, logger *log.Logger, tele *telemetry.Telemetry) *Executor {
	if logger == nil {
		logger = log.New(log.Writer(), "[EXEC] ", log.LstdFlags)
	}
	return &Executor{toolset: toolset, logger: logger, telemetry: tele}
}

// Execute runs the plan. Steps are stably sorted by priority first, so
// equal priorities keep their plan order. The returned results contain
// exactly the steps that were attempted: on the first failure the rest of
// the plan is abandoned. progress may be nil.
func (e *Executor) Execute(ctx context.Context, plan Plan, progress ProgressFunc) []StepResult {
	steps := make([]PlanStep, len(plan.Steps))
	copy(steps, plan.Steps)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Priority < steps[j].Priority })

	if progress == nil {
		progress = func(int, int, int, string) {}
	}

	var results []StepResult
	for i, step := range steps {
		stepNum := i + 1
		progress(stepNum, len(steps), 25, fmt.Sprintf("Preparing %s...", step.Action))

		result := e.executeStep(ctx, step, func(percent int, message string) {
			progress(stepNum, len(steps), percent, message)
		})
		results = append(results, result)
		e.recordStep(ctx, result)

		progress(stepNum, len(steps), 100, fmt.Sprintf("%s finished", step.Action))

		if !result.Success {
			e.logger.Printf("step %d (%s) failed: %s", stepNum, step.Action, result.Error)
			break
		}
	}
	return results
}

func (e *Executor) executeStep(ctx context.Context, step PlanStep, report func(int, string)) StepResult {
	result := StepResult{Step: step, StartTime: time.Now()}

	var output any
	var err error
	switch step.Action {
	case ActionSubstitute:
		report(50, "Running PACKMOL...")
		output, err = e.runSubstitute(ctx, step.Params)
	case ActionAnalyze:
		report(50, "Running trajectory analysis...")
		output, err = e.runAnalyze(ctx, step.Params)
	case ActionValidate:
		report(50, "Running validation...")
		output, err = e.runValidate(ctx, step.Params)
	case ActionPresentation:
		report(50, "Creating presentation...")
		output, err = e.runPresentation(ctx, step.Params)
	case ActionVisualize:
		report(75, "Rendering...")
		output, err = e.runVisualize(step.Params)
	default:
		err = fmt.Errorf("unknown action: %s", step.Action)
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Success = true
	result.Output = output
	return result
}

func (e *Executor) runSubstitute(ctx context.Context, params StepParams) (any, error) {
	if e.toolset.Packer == nil {
		return nil, fmt.Errorf("structure packer not configured")
	}
	if params.InputFile == "" {
		return nil, fmt.Errorf("no input file specified")
	}
	return e.toolset.Packer.GasSubstitution(ctx, tools.SubstitutionRequest{
		InputStructure: params.InputFile,
		RemoveSpecies:  params.RemoveSpecies,
		AddSpecies:     params.AddSpecies,
		Count:          params.Count,
		Density:        params.Density,
	})
}

func (e *Executor) runAnalyze(ctx context.Context, params StepParams) (any, error) {
	if e.toolset.Analyzer == nil {
		return nil, fmt.Errorf("trajectory analyzer not configured")
	}
	if params.InputFile == "" {
		return nil, fmt.Errorf("no trajectory file specified")
	}
	return e.toolset.Analyzer.Analyze(ctx, params.InputFile, "", tools.AnalysisOptions{
		Bonds:  params.Bonds,
		RDF:    params.RDF,
		Energy: params.Energy,
		Plots:  params.Plots,
	})
}

func (e *Executor) runValidate(ctx context.Context, params StepParams) (any, error) {
	if e.toolset.Validator == nil {
		return nil, fmt.Errorf("structure validator not configured")
	}
	if params.InputFile == "" {
		return nil, fmt.Errorf("no structure file specified")
	}
	if params.Interactive {
		// Best effort: open the structure for visual inspection when the
		// validator supports it. The numeric check below is authoritative.
		if launcher, ok := e.toolset.Validator.(interface {
			Launch(context.Context, string) error
		}); ok && e.toolset.Validator.IsAvailable() {
			if err := launcher.Launch(ctx, params.InputFile); err != nil {
				e.logger.Printf("interactive launch failed: %v", err)
			}
		}
	}
	return e.toolset.Validator.ValidateStructure(ctx, params.InputFile)
}

func (e *Executor) runPresentation(ctx context.Context, params StepParams) (any, error) {
	if e.toolset.Presenter == nil {
		return nil, fmt.Errorf("presentation generator not configured")
	}
	return e.toolset.Presenter.Generate(ctx, params.AnalysisDir, params.Title)
}

// runVisualize is a light placeholder: it confirms the target file exists.
// Real rendering happens in VIAMD via the validation path.
func (e *Executor) runVisualize(params StepParams) (any, error) {
	if params.InputFile != "" {
		if _, err := os.Stat(params.InputFile); err != nil {
			return nil, fmt.Errorf("structure file not found: %s", params.InputFile)
		}
	}
	return map[string]string{"status": "visualization step completed"}, nil
}

func (e *Executor) recordStep(ctx context.Context, result StepResult) {
	if e.telemetry == nil {
		return
	}
	e.telemetry.RecordStepEvent(ctx, telemetry.StepEvent{
		Action:   string(result.Step.Action),
		Success:  result.Success,
		Error:    result.Error,
		Duration: result.Duration,
	})
}
