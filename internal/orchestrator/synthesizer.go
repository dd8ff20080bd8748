package orchestrator

import "fmt"

// Response is the synthesized report over a set of step outcomes.
type Response struct {
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations,omitempty"`
	NextSteps       []string `json:"next_steps,omitempty"`
}

// remediationHints maps a failing action to the fix the user can apply.
var remediationHints = map[Action]string{
	ActionSubstitute:   "Install PACKMOL: conda install -c conda-forge packmol",
	ActionValidate:     "Install VIAMD for visual validation",
	ActionAnalyze:      "Verify the trajectory file is a readable multi-frame XYZ file",
	ActionPresentation: "Check that the analysis output directory exists",
}

// nextStepSuggestions is keyed purely off the primary intent, independent
// of whether any step succeeded.
var nextStepSuggestions = map[IntentKind][]string{
	IntentSubstitution: {
		"Run visual validation on substituted structure",
		"Perform trajectory analysis",
		"Create presentation with results",
	},
	IntentAnalysis: {
		"Create presentation from analysis results",
		"Export data for further processing",
		"Consider parameter sensitivity analysis",
	},
}

// Synthesize aggregates step outcomes into a summary line, remediation
// recommendations for failed steps and intent-keyed next steps. Total:
// it always produces a response, even when every step failed.
func Synthesize(intent Intent, results []StepResult) Response {
	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}

	var summary string
	if succeeded == len(results) {
		summary = fmt.Sprintf("Successfully completed %s request using %d tools.", intent.Primary, len(results))
	} else {
		summary = fmt.Sprintf("Partially completed %s request: %d/%d tools succeeded.", intent.Primary, succeeded, len(results))
	}

	var recommendations []string
	seen := make(map[Action]bool)
	for _, r := range results {
		if r.Success || seen[r.Step.Action] {
			continue
		}
		seen[r.Step.Action] = true
		if hint, ok := remediationHints[r.Step.Action]; ok {
			recommendations = append(recommendations, hint)
		}
	}
	if intent.Primary == IntentSubstitution {
		recommendations = append(recommendations,
			"Consider visual validation after substitution",
			"Run trajectory analysis on substituted structure")
	}

	return Response{
		Summary:         summary,
		Recommendations: recommendations,
		NextSteps:       nextStepSuggestions[intent.Primary],
	}
}
