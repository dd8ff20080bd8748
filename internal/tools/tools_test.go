package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/probaah/probaah/config"
)

type stubTool struct {
	name      string
	available bool
}

func (s stubTool) Name() string        { return s.name }
func (s stubTool) Description() string { return "stub" }
func (s stubTool) IsAvailable() bool   { return s.available }

func TestRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(stubTool{name: "a"}, stubTool{name: "a"})
	if err == nil {
		t.Fatal("expected duplicate registration error")
	}
}

func TestRegistryStatuses(t *testing.T) {
	reg, err := NewRegistry(stubTool{name: "b", available: true}, stubTool{name: "a"})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	statuses := reg.Statuses()
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	if statuses[0].Name != "a" || statuses[1].Name != "b" {
		t.Fatalf("statuses not sorted: %+v", statuses)
	}
	if !reg.Available("b") || reg.Available("a") {
		t.Fatal("availability mismatch")
	}
}

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestViamdValidateOverlappingAtoms(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "overlap.xyz", `2
atoms on top of each other
O 0.0 0.0 0.0
O 0.0 0.0 0.1
`)
	v := NewViamd(config.ViamdConfig{Executable: "definitely-not-installed"}, nil)
	res, err := v.ValidateStructure(context.Background(), path)
	if err != nil {
		t.Fatalf("ValidateStructure: %v", err)
	}
	if res.Approved {
		t.Fatal("expected validation to fail for overlapping atoms")
	}
	found := false
	for _, rec := range res.Recommendations {
		if rec == "Increase PACKMOL tolerance" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected tolerance recommendation, got %v", res.Recommendations)
	}
}

func TestViamdValidateGoodStructure(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir, "ok.xyz", `2
well separated
O 0.0 0.0 0.0
O 0.0 0.0 3.0
`)
	v := NewViamd(config.ViamdConfig{}, nil)
	res, err := v.ValidateStructure(context.Background(), path)
	if err != nil {
		t.Fatalf("ValidateStructure: %v", err)
	}
	if !res.Approved {
		t.Fatalf("expected approval, got issues %v", res.Issues)
	}
	if res.AtomCount != 2 {
		t.Fatalf("atom count = %d", res.AtomCount)
	}
}

func TestViamdBatchValidate(t *testing.T) {
	dir := t.TempDir()
	good := writeFixture(t, dir, "good.xyz", "1\nok\nO 0 0 0\n")
	bad := writeFixture(t, dir, "bad.xyz", "2\noverlap\nO 0 0 0\nO 0 0 0.1\n")
	v := NewViamd(config.ViamdConfig{}, nil)
	batch, err := v.BatchValidate(context.Background(), []string{good, bad, filepath.Join(dir, "missing.xyz")})
	if err != nil {
		t.Fatalf("BatchValidate: %v", err)
	}
	if batch.Total != 3 {
		t.Fatalf("total = %d", batch.Total)
	}
	if batch.Approved != 1 {
		t.Fatalf("approved = %d, results %+v", batch.Approved, batch.Results)
	}
}

func TestAnalyzerFullRun(t *testing.T) {
	dir := t.TempDir()
	traj := writeFixture(t, dir, "traj.xyz", `2
frame 0 energy=-10.0
O 0.0 0.0 0.0
O 0.0 0.0 1.2
2
frame 1 energy=-12.0
O 0.0 0.0 0.0
O 0.0 0.0 1.3
`)
	outDir := filepath.Join(dir, "analysis")
	a := NewAnalyzer(config.AnalysisConfig{}, nil)
	res, err := a.Analyze(context.Background(), traj, outDir, DefaultAnalysisOptions())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Frames != 2 || res.Atoms != 2 {
		t.Fatalf("frames=%d atoms=%d", res.Frames, res.Atoms)
	}
	if res.Bonds == nil || res.Bonds.Counts[0] != 1 {
		t.Fatalf("expected one bond in frame 0, got %+v", res.Bonds)
	}
	if res.Energy == nil || res.Energy.Mean != -11.0 {
		t.Fatalf("energy stats wrong: %+v", res.Energy)
	}
	if res.Energy.Min != -12.0 || res.Energy.Max != -10.0 {
		t.Fatalf("energy range wrong: %+v", res.Energy)
	}
	for _, f := range []string{res.ResultsFile, res.SummaryFile} {
		if _, err := os.Stat(f); err != nil {
			t.Fatalf("expected artifact %s: %v", f, err)
		}
	}
	if len(res.PlotDataFiles) == 0 {
		t.Fatal("expected plot data files")
	}
	summary, err := os.ReadFile(res.SummaryFile)
	if err != nil {
		t.Fatalf("reading summary: %v", err)
	}
	if !strings.Contains(string(summary), "BOND ANALYSIS") {
		t.Fatal("summary missing bond section")
	}
}

func TestAnalyzerNoEnergyData(t *testing.T) {
	dir := t.TempDir()
	traj := writeFixture(t, dir, "traj.xyz", "1\nno energy here\nO 0 0 0\n")
	a := NewAnalyzer(config.AnalysisConfig{}, nil)
	res, err := a.Analyze(context.Background(), traj, filepath.Join(dir, "out"), AnalysisOptions{Energy: true})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Energy != nil {
		t.Fatalf("expected nil energy stats, got %+v", res.Energy)
	}
}

func TestSlideGeneratorWithAnalysis(t *testing.T) {
	dir := t.TempDir()
	analysisDir := filepath.Join(dir, "analysis")
	outDir := filepath.Join(dir, "slides")
	traj := writeFixture(t, dir, "traj.xyz", `2
frame energy=-5.0
O 0.0 0.0 0.0
O 0.0 0.0 1.2
`)
	a := NewAnalyzer(config.AnalysisConfig{}, nil)
	if _, err := a.Analyze(context.Background(), traj, analysisDir, DefaultAnalysisOptions()); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	s := NewSlideGenerator(config.SlidesConfig{OutputDir: outDir}, nil)
	res, err := s.Generate(context.Background(), analysisDir, "Oxygen Study")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.SlideCount < 3 {
		t.Fatalf("expected at least 3 slides, got %d", res.SlideCount)
	}
	deck, err := os.ReadFile(res.DeckFile)
	if err != nil {
		t.Fatalf("reading deck: %v", err)
	}
	if !strings.Contains(string(deck), "# Oxygen Study") {
		t.Fatal("deck missing title slide")
	}
	if !strings.Contains(string(deck), "# Analysis Results") {
		t.Fatal("deck missing analysis slide")
	}
}

func TestSlideGeneratorDefaults(t *testing.T) {
	dir := t.TempDir()
	s := NewSlideGenerator(config.SlidesConfig{OutputDir: filepath.Join(dir, "slides")}, nil)
	res, err := s.Generate(context.Background(), filepath.Join(dir, "nope"), "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Title != "Research Results" {
		t.Fatalf("expected default title, got %q", res.Title)
	}
	if filepath.Base(res.DeckFile) != "research_results.md" {
		t.Fatalf("unexpected deck name: %s", res.DeckFile)
	}
}

func TestPackmolUnavailable(t *testing.T) {
	p := NewPackmol(config.PackmolConfig{Executable: filepath.Join(t.TempDir(), "nope"), WorkDir: t.TempDir()}, nil)
	if p.IsAvailable() {
		t.Skip("a packmol binary is on PATH; skipping unavailability test")
	}
	_, err := p.GasSubstitution(context.Background(), SubstitutionRequest{
		InputStructure: "in.xyz",
		RemoveSpecies:  "O2",
		AddSpecies:     "O",
		Count:          10,
	})
	if err == nil {
		t.Fatal("expected error when packmol is missing")
	}
	if !strings.Contains(err.Error(), "conda install") {
		t.Fatalf("expected install hint in error, got %v", err)
	}
}

func TestPackmolInputGeneration(t *testing.T) {
	dir := t.TempDir()
	p := NewPackmol(config.PackmolConfig{WorkDir: dir}, nil)

	gasFile, err := p.writeGasMolecule("CO2", dir)
	if err != nil {
		t.Fatalf("writeGasMolecule: %v", err)
	}
	gas, err := os.ReadFile(gasFile)
	if err != nil {
		t.Fatalf("reading gas file: %v", err)
	}
	if !strings.HasPrefix(string(gas), "3\n") {
		t.Fatalf("CO2 should have 3 atoms: %q", string(gas))
	}

	inputFile, err := p.writeInput("cleaned.xyz", gasFile, "out.xyz", 42, dir)
	if err != nil {
		t.Fatalf("writeInput: %v", err)
	}
	input, err := os.ReadFile(inputFile)
	if err != nil {
		t.Fatalf("reading input: %v", err)
	}
	text := string(input)
	if !strings.Contains(text, "tolerance 2.0") {
		t.Fatal("input missing tolerance")
	}
	if !strings.Contains(text, "number 42") {
		t.Fatal("input missing gas count")
	}
	if !strings.Contains(text, "inside box 23 23 23 24 140 80") {
		t.Fatalf("input missing placement box: %s", text)
	}
}

// writePackmolScript installs a stand-in packmol binary so the full
// GasSubstitution flow can run without the real tool.
func writePackmolScript(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "packmol")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755); err != nil {
		t.Fatalf("writing packmol script: %v", err)
	}
	return path
}

func TestGasSubstitutionRemovesWorkDirOnSuccess(t *testing.T) {
	dir := t.TempDir()
	workParent := t.TempDir()
	script := writePackmolScript(t, dir,
		"out=$(awk '/^output/ {print $2}')\n"+
			"printf '1\\npacked\\nO 0.000000 0.000000 0.000000\\n' > \"$out\"\n")
	input := writeFixture(t, dir, "slab.xyz", "2\nslab\nC 0 0 0\nC 0 0 1.5\n")
	outFile := filepath.Join(dir, "out.xyz")

	p := NewPackmol(config.PackmolConfig{Executable: script, WorkDir: workParent}, nil)
	res, err := p.GasSubstitution(context.Background(), SubstitutionRequest{
		InputStructure: input,
		RemoveSpecies:  "O2",
		AddSpecies:     "O",
		Count:          5,
		OutputFile:     outFile,
	})
	if err != nil {
		t.Fatalf("GasSubstitution: %v", err)
	}
	if res.OutputStructure != outFile {
		t.Fatalf("expected output %s, got %s", outFile, res.OutputStructure)
	}
	if _, err := os.Stat(outFile); err != nil {
		t.Fatalf("expected packed output: %v", err)
	}
	if res.WorkDir != "" {
		t.Fatalf("expected no preserved work dir, got %s", res.WorkDir)
	}
	entries, err := os.ReadDir(workParent)
	if err != nil {
		t.Fatalf("reading work parent: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("work dir not cleaned up: %v", entries)
	}
}

func TestGasSubstitutionPreservesWorkDirOnFailure(t *testing.T) {
	dir := t.TempDir()
	workParent := t.TempDir()
	script := writePackmolScript(t, dir, "exit 1\n")
	input := writeFixture(t, dir, "slab.xyz", "1\nslab\nC 0 0 0\n")

	p := NewPackmol(config.PackmolConfig{Executable: script, WorkDir: workParent}, nil)
	res, err := p.GasSubstitution(context.Background(), SubstitutionRequest{
		InputStructure: input,
		RemoveSpecies:  "O2",
		AddSpecies:     "O",
		Count:          5,
	})
	if err == nil {
		t.Fatal("expected packmol failure")
	}
	if res.WorkDir == "" {
		t.Fatal("expected preserved work dir in result")
	}
	if _, statErr := os.Stat(res.WorkDir); statErr != nil {
		t.Fatalf("expected preserved work dir on disk: %v", statErr)
	}
}

func TestPackmolUnknownGasFallsBackToSingleAtom(t *testing.T) {
	dir := t.TempDir()
	p := NewPackmol(config.PackmolConfig{WorkDir: dir}, nil)
	gasFile, err := p.writeGasMolecule("Ar", dir)
	if err != nil {
		t.Fatalf("writeGasMolecule: %v", err)
	}
	gas, err := os.ReadFile(gasFile)
	if err != nil {
		t.Fatalf("reading gas file: %v", err)
	}
	if !strings.HasPrefix(string(gas), "1\n") {
		t.Fatalf("unknown species should yield single atom: %q", string(gas))
	}
}
