package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/probaah/probaah/config"
)

// SlidesResult reports a generated presentation.
type SlidesResult struct {
	DeckFile   string `json:"deck_file"`
	Title      string `json:"title"`
	SlideCount int    `json:"slide_count"`
}

// SlideGenerator renders analysis output into a markdown slide deck.
// Each slide is a level-one heading separated by horizontal rules, the
// layout most slide renderers (marp, pandoc, reveal) accept.
type SlideGenerator struct {
	cfg    config.SlidesConfig
	logger *log.Logger
}

// NewSlideGenerator returns a presentation generator.
func NewSlideGenerator(cfg config.SlidesConfig, logger *log.Logger) *SlideGenerator {
	if logger == nil {
		logger = log.New(log.Writer(), "[SLIDES] ", log.LstdFlags)
	}
	return &SlideGenerator{cfg: cfg, logger: logger}
}

func (s *SlideGenerator) Name() string        { return "slides" }
func (s *SlideGenerator) Description() string { return "Generates presentation decks from analysis output" }
func (s *SlideGenerator) IsAvailable() bool   { return true }

var unsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Generate builds a deck from the analysis directory. A missing or empty
// analysis directory still yields a deck with a title and methods slide.
func (s *SlideGenerator) Generate(ctx context.Context, analysisDir, title string) (SlidesResult, error) {
	if err := ctx.Err(); err != nil {
		return SlidesResult{}, err
	}
	if title == "" {
		title = "Research Results"
	}

	outputDir := s.cfg.OutputDir
	if outputDir == "" {
		outputDir = "slides"
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return SlidesResult{}, fmt.Errorf("creating slides dir: %w", err)
	}

	var b strings.Builder
	slides := 0
	writeSlide := func(body string) {
		if slides > 0 {
			b.WriteString("\n---\n\n")
		}
		b.WriteString(body)
		slides++
	}

	writeSlide(fmt.Sprintf("# %s\n\nGenerated by Probaah\n%s\n", title, time.Now().Format("January 2, 2006")))

	if analysis := s.analysisSlide(analysisDir); analysis != "" {
		writeSlide(analysis)
	}
	for _, plot := range s.plotSlides(analysisDir) {
		writeSlide(plot)
	}

	writeSlide("# Methodology\n\n- Structure packing with PACKMOL\n- Visual validation with VIAMD\n- Trajectory analysis (bonds, RDF, energy)\n")

	name := unsafeFilename.ReplaceAllString(strings.ToLower(title), "_") + ".md"
	deckFile := filepath.Join(outputDir, name)
	if err := os.WriteFile(deckFile, []byte(b.String()), 0644); err != nil {
		return SlidesResult{}, fmt.Errorf("writing deck: %w", err)
	}

	s.logger.Printf("generated deck %s with %d slides", deckFile, slides)
	return SlidesResult{DeckFile: deckFile, Title: title, SlideCount: slides}, nil
}

// analysisSlide summarizes analysis_results.json when present.
func (s *SlideGenerator) analysisSlide(analysisDir string) string {
	data, err := os.ReadFile(filepath.Join(analysisDir, "analysis_results.json"))
	if err != nil {
		return ""
	}
	var result AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		return ""
	}

	var b strings.Builder
	b.WriteString("# Analysis Results\n\n")
	fmt.Fprintf(&b, "- Trajectory: %s\n", filepath.Base(result.TrajectoryFile))
	fmt.Fprintf(&b, "- Frames: %d, Atoms: %d\n", result.Frames, result.Atoms)
	if result.Bonds != nil {
		fmt.Fprintf(&b, "- Average bond count: %.1f (length %.3f Å)\n",
			result.Bonds.AverageCount, result.Bonds.AverageLength)
	}
	if result.RDF != nil {
		fmt.Fprintf(&b, "- RDF first peak: %.3f Å (g=%.3f)\n",
			result.RDF.FirstPeakR, result.RDF.FirstPeakG)
	}
	if result.Energy != nil {
		fmt.Fprintf(&b, "- Mean energy: %.3f eV (σ=%.3f)\n", result.Energy.Mean, result.Energy.Std)
	}
	return b.String()
}

// plotSlides creates one slide per plot-data CSV in the analysis dir.
func (s *SlideGenerator) plotSlides(analysisDir string) []string {
	matches, _ := filepath.Glob(filepath.Join(analysisDir, "*.csv"))
	var slides []string
	for _, m := range matches {
		base := filepath.Base(m)
		name := strings.TrimSuffix(base, ".csv")
		words := strings.Split(name, "_")
		for i, w := range words {
			if w != "" {
				words[i] = strings.ToUpper(w[:1]) + w[1:]
			}
		}
		slides = append(slides, fmt.Sprintf("# %s\n\nData: `%s`\n", strings.Join(words, " "), base))
	}
	return slides
}
