package orchestrator

import (
	"regexp"
	"strings"
)

// conjunctionPattern splits multi-clause requests. "then" and "and" need
// surrounding whitespace so they only match as words; a comma separates
// regardless of spacing.
var conjunctionPattern = regexp.MustCompile(`(?i)(?:\s+(?:then|and)\s+|\s*,\s*)`)

// fragmentActions maps action keywords onto step actions for the
// per-fragment classification. Lighter than full intent classification:
// first pattern that matches wins, no scoring.
var fragmentActions = []struct {
	Action  Action
	Pattern *regexp.Regexp
}{
	{ActionSubstitute, regexp.MustCompile(`(?i)substitute|replace|swap`)},
	{ActionAnalyze, regexp.MustCompile(`(?i)analyze|analysis|examine`)},
	{ActionValidate, regexp.MustCompile(`(?i)validate|verify|check`)},
	{ActionPresentation, regexp.MustCompile(`(?i)presentation|slides|powerpoint`)},
	{ActionVisualize, regexp.MustCompile(`(?i)visualize|render|display`)},
}

// durationEstimates are static display-only step time estimates in seconds.
var durationEstimates = map[Action]int{
	ActionSubstitute:   60,
	ActionAnalyze:      30,
	ActionValidate:     45,
	ActionPresentation: 20,
	ActionVisualize:    15,
	ActionUnknown:      10,
}

// workflowScanOrder is the fixed precedence used when the primary intent
// is the generic workflow category: the whole request is scanned once per
// keyword, appending a step per hit in this order regardless of where the
// keyword sits in the text. This deliberately orders steps differently
// than the conjunction-split path; both behaviors are kept distinct for
// compatibility with existing requests.
var workflowScanOrder = []struct {
	Keyword string
	Action  Action
}{
	{"substitute", ActionSubstitute},
	{"validate", ActionValidate},
	{"analyze", ActionAnalyze},
	{"presentation", ActionPresentation},
}

// Planner converts a classified request into an ordered plan.
type Planner struct {
	resolver *Resolver
}

// NewPlanner builds a planner around the given parameter resolver.
func NewPlanner(resolver *Resolver) *Planner {
	return &Planner{resolver: resolver}
}

// Plan decomposes the request into steps. Three paths:
// workflow-intent fixed scan, conjunction split, or a single step from
// the primary intent. The result is never empty; an unidentifiable
// request yields one unknown step.
func (p *Planner) Plan(text string, intent Intent) Plan {
	var steps []PlanStep

	switch {
	case intent.Primary == IntentWorkflow:
		steps = p.planWorkflow(text, intent)
	case conjunctionPattern.MatchString(text):
		steps = p.planFragments(text, intent)
	default:
		action := actionForIntent(intent.Primary)
		steps = []PlanStep{p.newStep(action, text, text, intent, 1)}
	}

	if len(steps) == 0 {
		steps = []PlanStep{p.newStep(ActionUnknown, text, text, intent, 1)}
	}
	return Plan{Steps: steps}
}

// planWorkflow scans the whole request once per keyword in fixed
// precedence order.
func (p *Planner) planWorkflow(text string, intent Intent) []PlanStep {
	lower := strings.ToLower(text)
	var steps []PlanStep
	for _, entry := range workflowScanOrder {
		if strings.Contains(lower, entry.Keyword) {
			steps = append(steps, p.newStep(entry.Action, text, text, intent, len(steps)+1))
		}
	}
	return steps
}

// planFragments splits on conjunction markers and classifies each
// fragment independently, preserving left-to-right order.
func (p *Planner) planFragments(text string, intent Intent) []PlanStep {
	var steps []PlanStep
	for _, fragment := range conjunctionPattern.Split(text, -1) {
		fragment = strings.TrimSpace(fragment)
		if fragment == "" {
			continue
		}
		action := identifyAction(fragment)
		steps = append(steps, p.newStep(action, fragment, fragment, intent, len(steps)+1))
	}
	return steps
}

func (p *Planner) newStep(action Action, description, paramText string, intent Intent, priority int) PlanStep {
	estimate, ok := durationEstimates[action]
	if !ok {
		estimate = durationEstimates[ActionUnknown]
	}
	return PlanStep{
		Action:           action,
		Description:      description,
		Params:           p.resolver.Resolve(action, paramText, intent.Entities),
		Priority:         priority,
		EstimatedSeconds: estimate,
	}
}

// identifyAction classifies a request fragment by the first matching
// action pattern. Fragments with no action keyword are unknown.
func identifyAction(fragment string) Action {
	for _, entry := range fragmentActions {
		if entry.Pattern.MatchString(fragment) {
			return entry.Action
		}
	}
	return ActionUnknown
}

// actionForIntent maps a primary intent onto the single-step action.
// Information and general requests have no executable action.
func actionForIntent(intent IntentKind) Action {
	switch intent {
	case IntentSubstitution:
		return ActionSubstitute
	case IntentAnalysis:
		return ActionAnalyze
	case IntentValidation:
		return ActionValidate
	case IntentPresentation:
		return ActionPresentation
	case IntentVisualization:
		return ActionVisualize
	default:
		return ActionUnknown
	}
}
