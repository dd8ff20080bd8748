package orchestrator

import "testing"

func newTestPlanner() *Planner {
	return NewPlanner(newTestResolver())
}

func planFor(t *testing.T, text string) Plan {
	t.Helper()
	intent := ClassifyIntent(text, ExtractEntities(text))
	return newTestPlanner().Plan(text, intent)
}

func TestPlanSingleStep(t *testing.T) {
	plan := planFor(t, "validate structure.xyz")
	if len(plan.Steps) != 1 {
		t.Fatalf("expected 1 step, got %d", len(plan.Steps))
	}
	step := plan.Steps[0]
	if step.Action != ActionValidate {
		t.Fatalf("expected validate action, got %s", step.Action)
	}
	if step.Priority != 1 {
		t.Fatalf("expected priority 1, got %d", step.Priority)
	}
	if step.EstimatedSeconds != 45 {
		t.Fatalf("expected 45s estimate, got %d", step.EstimatedSeconds)
	}
	if step.Params.InputFile != "structure.xyz" {
		t.Fatalf("expected input structure.xyz, got %q", step.Params.InputFile)
	}
}

func TestPlanUnrecognizedRequestFallsBackToUnknown(t *testing.T) {
	plan := planFor(t, "tell me a joke")
	if len(plan.Steps) != 1 {
		t.Fatalf("expected 1 fallback step, got %d", len(plan.Steps))
	}
	if plan.Steps[0].Action != ActionUnknown {
		t.Fatalf("expected unknown action, got %s", plan.Steps[0].Action)
	}
	if plan.Steps[0].EstimatedSeconds != 10 {
		t.Fatalf("expected 10s estimate, got %d", plan.Steps[0].EstimatedSeconds)
	}
}

func TestPlanConjunctionSplit(t *testing.T) {
	plan := planFor(t, "analyze traj.xyz then create a presentation titled Results")
	if len(plan.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(plan.Steps))
	}
	if plan.Steps[0].Action != ActionAnalyze || plan.Steps[1].Action != ActionPresentation {
		t.Fatalf("expected [analyze presentation], got [%s %s]",
			plan.Steps[0].Action, plan.Steps[1].Action)
	}
	if plan.Steps[0].Params.InputFile != "traj.xyz" {
		t.Fatalf("expected trajectory traj.xyz, got %q", plan.Steps[0].Params.InputFile)
	}
	if plan.Steps[1].Params.Title != "Results" {
		t.Fatalf("expected title Results, got %q", plan.Steps[1].Params.Title)
	}
	if plan.Steps[0].Priority != 1 || plan.Steps[1].Priority != 2 {
		t.Fatalf("expected priorities 1,2, got %d,%d",
			plan.Steps[0].Priority, plan.Steps[1].Priority)
	}
}

func TestPlanCommaSplitsWithoutSpaces(t *testing.T) {
	plan := planFor(t, "validate packed.xyz,analyze traj.xyz")
	if len(plan.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(plan.Steps))
	}
	if plan.Steps[0].Action != ActionValidate || plan.Steps[1].Action != ActionAnalyze {
		t.Fatalf("expected [validate analyze], got [%s %s]",
			plan.Steps[0].Action, plan.Steps[1].Action)
	}
}

// The workflow intent ignores clause order: steps come out in the fixed
// substitute, validate, analyze, presentation precedence even when the
// request lists them differently. The conjunction path keeps text order.
// Both behaviors are intentional and must stay distinct.
func TestPlanWorkflowUsesFixedScanOrder(t *testing.T) {
	text := "complete pipeline for sample.xyz: analyze the result then substitute O2 then validate"
	plan := planFor(t, text)

	want := []Action{ActionSubstitute, ActionValidate, ActionAnalyze}
	if len(plan.Steps) != len(want) {
		t.Fatalf("expected %d steps, got %d", len(want), len(plan.Steps))
	}
	for i, action := range want {
		if plan.Steps[i].Action != action {
			t.Fatalf("step %d: expected %s, got %s", i, action, plan.Steps[i].Action)
		}
	}

	// Same clauses without the workflow markers go through the
	// conjunction path and keep text order.
	split := planFor(t, "analyze the result.xyz then substitute O2 then validate it")
	if split.Steps[0].Action != ActionAnalyze || split.Steps[1].Action != ActionSubstitute {
		t.Fatalf("expected text-order steps, got [%s %s %s]",
			split.Steps[0].Action, split.Steps[1].Action, split.Steps[2].Action)
	}
}

func TestPlanWorkflowWithoutActionKeywordsIsNeverEmpty(t *testing.T) {
	plan := planFor(t, "run the complete workflow")
	if len(plan.Steps) != 1 {
		t.Fatalf("expected fallback step, got %d steps", len(plan.Steps))
	}
	if plan.Steps[0].Action != ActionUnknown {
		t.Fatalf("expected unknown fallback, got %s", plan.Steps[0].Action)
	}
}

func TestIdentifyAction(t *testing.T) {
	cases := []struct {
		fragment string
		want     Action
	}{
		{"swap the oxygen out", ActionSubstitute},
		{"examine the bonds", ActionAnalyze},
		{"check the packing", ActionValidate},
		{"make powerpoint slides", ActionPresentation},
		{"render the cell", ActionVisualize},
		{"make coffee", ActionUnknown},
	}
	for _, tc := range cases {
		if got := identifyAction(tc.fragment); got != tc.want {
			t.Errorf("%q: expected %s, got %s", tc.fragment, tc.want, got)
		}
	}
}
