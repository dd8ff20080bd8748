package orchestrator

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/probaah/probaah/config"
)

var (
	removePattern  = regexp.MustCompile(`(?i)remove\s+(\w+)`)
	addPattern     = regexp.MustCompile(`(?i)add\s+(\w+)`)
	densityPattern = regexp.MustCompile(`(?i)density\s+(\d+(?:\.\d+)?)`)
	titlePattern   = regexp.MustCompile(`(?i)\btitled?\b[:\s]+([^,\n]+)`)
)

// Resolver turns raw text, an action and extracted entities into the
// concrete parameter set for a plan step. Missing parameters silently fall
// back to the configured defaults; resolution never fails.
type Resolver struct {
	cfg                config.WorkflowConfig
	defaultAnalysisDir string
}

// NewResolver builds a resolver with the given workflow defaults.
func NewResolver(cfg config.WorkflowConfig, analysisDir string) *Resolver {
	if cfg.DefaultRemoveSpecies == "" {
		cfg.DefaultRemoveSpecies = "O2"
	}
	if cfg.DefaultAddSpecies == "" {
		cfg.DefaultAddSpecies = "O"
	}
	if cfg.DefaultCount <= 0 {
		cfg.DefaultCount = 100
	}
	if cfg.DefaultDensity <= 0 {
		cfg.DefaultDensity = 0.18
	}
	if analysisDir == "" {
		analysisDir = "analysis"
	}
	return &Resolver{cfg: cfg, defaultAnalysisDir: analysisDir}
}

// Resolve computes the parameter set for one action. text is the request
// fragment the step came from; fallback supplies whole-request entities
// for fragments that name no file of their own.
func (r *Resolver) Resolve(action Action, text string, fallback EntityBag) StepParams {
	entities := ExtractEntities(text)
	if len(entities.Files) == 0 {
		entities.Files = fallback.Files
	}
	if len(entities.Numbers) == 0 {
		entities.Numbers = fallback.Numbers
	}

	switch action {
	case ActionSubstitute:
		return r.resolveSubstitution(text, entities)
	case ActionAnalyze:
		return r.resolveAnalysis(text, entities)
	case ActionValidate:
		return r.resolveValidation(text, entities)
	case ActionPresentation:
		return r.resolvePresentation(text)
	case ActionVisualize:
		return StepParams{InputFile: firstFile(entities)}
	default:
		return StepParams{}
	}
}

func (r *Resolver) resolveSubstitution(text string, entities EntityBag) StepParams {
	params := StepParams{
		InputFile:     firstFile(entities),
		RemoveSpecies: r.cfg.DefaultRemoveSpecies,
		AddSpecies:    r.cfg.DefaultAddSpecies,
		Count:         r.cfg.DefaultCount,
		Density:       r.cfg.DefaultDensity,
	}
	if m := removePattern.FindStringSubmatch(text); m != nil {
		params.RemoveSpecies = m[1]
	}
	if m := addPattern.FindStringSubmatch(text); m != nil {
		params.AddSpecies = m[1]
	}
	if len(entities.Numbers) > 0 {
		params.Count = entities.Numbers[0]
	}
	if m := densityPattern.FindStringSubmatch(text); m != nil {
		if d, ok := parseFloat(m[1]); ok {
			params.Density = d
		}
	}
	return params
}

// resolveAnalysis toggles sub-analyses from keywords in the text. A
// request that names none of them gets the full set.
func (r *Resolver) resolveAnalysis(text string, entities EntityBag) StepParams {
	lower := strings.ToLower(text)
	params := StepParams{
		InputFile: firstFile(entities),
		Bonds:     strings.Contains(lower, "bond"),
		RDF:       strings.Contains(lower, "rdf"),
		Energy:    strings.Contains(lower, "energy"),
		Plots:     strings.Contains(lower, "plot"),
	}
	if !params.Bonds && !params.RDF && !params.Energy && !params.Plots {
		params.Bonds, params.RDF, params.Energy, params.Plots = true, true, true, true
	}
	return params
}

func (r *Resolver) resolveValidation(text string, entities EntityBag) StepParams {
	lower := strings.ToLower(text)
	return StepParams{
		InputFile:   firstFile(entities),
		Interactive: strings.Contains(lower, "visual") || strings.Contains(lower, "interactive"),
	}
}

func (r *Resolver) resolvePresentation(text string) StepParams {
	params := StepParams{
		AnalysisDir: r.defaultAnalysisDir,
		Title:       "Research Results",
	}
	if m := titlePattern.FindStringSubmatch(text); m != nil {
		params.Title = strings.TrimSpace(m[1])
	}
	return params
}

func firstFile(entities EntityBag) string {
	if len(entities.Files) > 0 {
		return entities.Files[0]
	}
	return ""
}

func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}
