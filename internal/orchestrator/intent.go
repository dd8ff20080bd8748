package orchestrator

import "strings"

// intentKeywords maps each intent to its keyword evidence set. Declared
// as an ordered slice so the tie-break (first highest-scoring entry wins)
// is explicit and testable rather than hidden in map iteration.
var intentKeywords = []struct {
	Kind     IntentKind
	Keywords []string
}{
	{IntentSubstitution, []string{"substitute", "replace", "swap", "remove", "add"}},
	{IntentAnalysis, []string{"analyze", "analysis", "examine", "study", "investigate"}},
	{IntentValidation, []string{"validate", "verify", "check", "inspect", "review"}},
	{IntentPresentation, []string{"presentation", "slides", "powerpoint", "report"}},
	{IntentVisualization, []string{"visualize", "render", "display", "show", "plot"}},
	{IntentInformation, []string{"what", "how", "why", "explain", "describe"}},
	{IntentWorkflow, []string{"workflow", "pipeline", "process", "complete", "end-to-end"}},
}

// complexityTiers are checked in declaration order; the first tier with
// any matching indicator wins, default is simple.
var complexityTiers = []struct {
	Tier       Complexity
	Indicators []string
}{
	{ComplexitySimple, []string{"show", "display", "what", "how"}},
	{ComplexityModerate, []string{"analyze", "calculate", "validate", "substitute"}},
	{ComplexityComplex, []string{"workflow", "pipeline", "complete", "end-to-end", "then", "and"}},
}

// ClassifyIntent scores every intent against keyword evidence in the text
// and returns the winning intent, the per-intent scores, the complexity
// tier and the extracted entities. Pure and total: unmatched text yields
// the general intent, never an error.
func ClassifyIntent(text string, entities EntityBag) Intent {
	lower := strings.ToLower(text)

	scores := make(map[IntentKind]int)
	primary := IntentGeneral
	best := 0
	for _, entry := range intentKeywords {
		score := 0
		for _, kw := range entry.Keywords {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		if score > 0 {
			scores[entry.Kind] = score
			if score > best {
				best = score
				primary = entry.Kind
			}
		}
	}

	return Intent{
		Primary:    primary,
		Scores:     scores,
		Complexity: assessComplexity(lower),
		Entities:   entities,
	}
}

func assessComplexity(lower string) Complexity {
	for _, tier := range complexityTiers {
		for _, indicator := range tier.Indicators {
			if strings.Contains(lower, indicator) {
				return tier.Tier
			}
		}
	}
	return ComplexitySimple
}
