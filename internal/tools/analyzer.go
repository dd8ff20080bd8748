package tools

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/probaah/probaah/config"
	"github.com/probaah/probaah/internal/molfile"
)

const (
	bondCutoffFactor = 1.2
	rdfRMax          = 10.0
	rdfBins          = 200
	rdfFrameStride   = 10
)

// AnalysisOptions selects which analyses to run. The zero value runs none;
// DefaultAnalysisOptions enables everything.
type AnalysisOptions struct {
	Bonds  bool `json:"bonds"`
	RDF    bool `json:"rdf"`
	Energy bool `json:"energy"`
	Plots  bool `json:"plots"`
}

// DefaultAnalysisOptions enables all analyses.
func DefaultAnalysisOptions() AnalysisOptions {
	return AnalysisOptions{Bonds: true, RDF: true, Energy: true, Plots: true}
}

// BondStats summarizes bond counts over the trajectory.
type BondStats struct {
	Counts        []int   `json:"counts"`
	AverageCount  float64 `json:"avg_count"`
	AverageLength float64 `json:"avg_length"`
	MinCount      int     `json:"min_count"`
	MaxCount      int     `json:"max_count"`
}

// RDFStats holds the radial distribution function.
type RDFStats struct {
	R              []float64 `json:"r"`
	GR             []float64 `json:"g_r"`
	FramesAnalyzed int       `json:"frames_analyzed"`
	FirstPeakR     float64   `json:"first_peak_r"`
	FirstPeakG     float64   `json:"first_peak_g"`
}

// EnergyStats summarizes energies found in trajectory comment lines.
type EnergyStats struct {
	Values []float64 `json:"values"`
	Mean   float64   `json:"mean"`
	Std    float64   `json:"std"`
	Min    float64   `json:"min"`
	Max    float64   `json:"max"`
}

// AnalysisResult is the full output of a trajectory analysis run.
type AnalysisResult struct {
	TrajectoryFile string       `json:"trajectory_file"`
	OutputDir      string       `json:"output_dir"`
	Frames         int          `json:"frames"`
	Atoms          int          `json:"atoms"`
	Bonds          *BondStats   `json:"bonds,omitempty"`
	RDF            *RDFStats    `json:"rdf,omitempty"`
	Energy         *EnergyStats `json:"energy,omitempty"`
	ResultsFile    string       `json:"results_file"`
	SummaryFile    string       `json:"summary_file"`
	PlotDataFiles  []string     `json:"plot_data_files,omitempty"`
}

// Analyzer computes bond, RDF and energy statistics from XYZ trajectories
// and writes JSON, text and CSV artifacts into the output directory.
type Analyzer struct {
	cfg    config.AnalysisConfig
	logger *log.Logger
}

// NewAnalyzer returns a trajectory analyzer.
func NewAnalyzer(cfg config.AnalysisConfig, logger *log.Logger) *Analyzer {
	if logger == nil {
		logger = log.New(log.Writer(), "[ANALYZER] ", log.LstdFlags)
	}
	return &Analyzer{cfg: cfg, logger: logger}
}

func (a *Analyzer) Name() string        { return "trajectory_analyzer" }
func (a *Analyzer) Description() string { return "Analyzes MD trajectories (bonds, RDF, energy)" }
func (a *Analyzer) IsAvailable() bool   { return true }

// Analyze loads the trajectory and runs the selected analyses. outputDir
// overrides the configured directory when non-empty.
func (a *Analyzer) Analyze(ctx context.Context, trajectoryFile, outputDir string, opts AnalysisOptions) (AnalysisResult, error) {
	frames, err := molfile.ReadXYZTrajectory(trajectoryFile)
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("loading trajectory: %w", err)
	}
	if len(frames) == 0 {
		return AnalysisResult{}, fmt.Errorf("trajectory %s has no frames", trajectoryFile)
	}

	if outputDir == "" {
		outputDir = a.cfg.OutputDir
	}
	if outputDir == "" {
		outputDir = filepath.Join(filepath.Dir(trajectoryFile), "analysis")
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return AnalysisResult{}, fmt.Errorf("creating output dir: %w", err)
	}

	a.logger.Printf("loaded %d frames with %d atoms each", len(frames), len(frames[0].Atoms))

	result := AnalysisResult{
		TrajectoryFile: trajectoryFile,
		OutputDir:      outputDir,
		Frames:         len(frames),
		Atoms:          len(frames[0].Atoms),
	}

	if opts.Bonds {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Bonds = analyzeBonds(frames)
	}
	if opts.RDF {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.RDF = calculateRDF(frames)
	}
	if opts.Energy {
		result.Energy = analyzeEnergy(frames)
	}
	if opts.Plots {
		files, err := a.writePlotData(outputDir, result)
		if err != nil {
			return result, err
		}
		result.PlotDataFiles = files
	}

	if result.ResultsFile, err = a.saveResults(outputDir, result); err != nil {
		return result, err
	}
	if result.SummaryFile, err = a.writeSummary(outputDir, result); err != nil {
		return result, err
	}
	return result, nil
}

// analyzeBonds counts bonds per frame using covalent radii scaled by the
// cutoff factor: atoms i and j are bonded when their distance is below
// (r_i + r_j) * 1.2.
func analyzeBonds(frames []molfile.Frame) *BondStats {
	stats := &BondStats{MinCount: math.MaxInt}
	var lengthSum float64
	var lengthN int
	for _, frame := range frames {
		radii := make([]float64, len(frame.Atoms))
		for i, atom := range frame.Atoms {
			radii[i] = molfile.CovalentRadius(atom.Symbol) * bondCutoffFactor
		}
		count := 0
		for i := range frame.Atoms {
			for j := i + 1; j < len(frame.Atoms); j++ {
				d := frame.Distance(i, j)
				if d < radii[i]+radii[j] {
					count++
					lengthSum += d
					lengthN++
				}
			}
		}
		stats.Counts = append(stats.Counts, count)
		if count < stats.MinCount {
			stats.MinCount = count
		}
		if count > stats.MaxCount {
			stats.MaxCount = count
		}
	}
	if len(stats.Counts) > 0 {
		total := 0
		for _, c := range stats.Counts {
			total += c
		}
		stats.AverageCount = float64(total) / float64(len(stats.Counts))
	}
	if lengthN > 0 {
		stats.AverageLength = lengthSum / float64(lengthN)
	}
	if stats.MinCount == math.MaxInt {
		stats.MinCount = 0
	}
	return stats
}

// calculateRDF computes an all-pairs radial distribution function,
// sampling every 10th frame and normalizing by spherical shell volume.
func calculateRDF(frames []molfile.Frame) *RDFStats {
	dr := rdfRMax / float64(rdfBins-1)
	hist := make([]float64, rdfBins-1)
	framesUsed := 0

	var volume float64
	for idx := 0; idx < len(frames); idx += rdfFrameStride {
		frame := frames[idx]
		found := false
		for i := range frame.Atoms {
			for j := i + 1; j < len(frame.Atoms); j++ {
				d := frame.Distance(i, j)
				if d < rdfRMax {
					bin := int(d / dr)
					if bin >= 0 && bin < len(hist) {
						hist[bin]++
						found = true
					}
				}
			}
		}
		if found {
			framesUsed++
		}
		volume = frame.BoundingVolume()
	}

	stats := &RDFStats{FramesAnalyzed: framesUsed}
	nAtoms := len(frames[0].Atoms)
	numberDensity := 1.0
	if volume > 0 {
		numberDensity = float64(nAtoms) / volume
	}
	for i := 0; i < len(hist); i++ {
		r := (float64(i) + 0.5) * dr
		stats.R = append(stats.R, r)
		g := 0.0
		if framesUsed > 0 {
			shell := 4 * math.Pi * r * r * dr
			g = hist[i] / (float64(framesUsed) * shell * numberDensity)
		}
		stats.GR = append(stats.GR, g)
		if g > stats.FirstPeakG {
			stats.FirstPeakG = g
			stats.FirstPeakR = r
		}
	}
	return stats
}

// analyzeEnergy collects frame energies from comment lines. Returns nil
// when no frame declares an energy.
func analyzeEnergy(frames []molfile.Frame) *EnergyStats {
	var values []float64
	for _, f := range frames {
		if f.HasEnergy {
			values = append(values, f.Energy)
		}
	}
	if len(values) == 0 {
		return nil
	}
	stats := &EnergyStats{Values: values, Min: values[0], Max: values[0]}
	var sum float64
	for _, e := range values {
		sum += e
		if e < stats.Min {
			stats.Min = e
		}
		if e > stats.Max {
			stats.Max = e
		}
	}
	stats.Mean = sum / float64(len(values))
	var sq float64
	for _, e := range values {
		sq += (e - stats.Mean) * (e - stats.Mean)
	}
	stats.Std = math.Sqrt(sq / float64(len(values)))
	return stats
}

// writePlotData emits CSV files suitable for downstream plotting.
func (a *Analyzer) writePlotData(outputDir string, result AnalysisResult) ([]string, error) {
	var files []string
	writeCSV := func(name string, header []string, rows [][]string) error {
		path := filepath.Join(outputDir, name)
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w := csv.NewWriter(f)
		if err := w.Write(header); err != nil {
			return err
		}
		if err := w.WriteAll(rows); err != nil {
			return err
		}
		w.Flush()
		files = append(files, path)
		return w.Error()
	}

	if result.Bonds != nil {
		rows := make([][]string, len(result.Bonds.Counts))
		for i, c := range result.Bonds.Counts {
			rows[i] = []string{strconv.Itoa(i), strconv.Itoa(c)}
		}
		if err := writeCSV("bond_evolution.csv", []string{"frame", "bond_count"}, rows); err != nil {
			return files, fmt.Errorf("writing bond data: %w", err)
		}
	}
	if result.RDF != nil {
		rows := make([][]string, len(result.RDF.R))
		for i := range result.RDF.R {
			rows[i] = []string{
				strconv.FormatFloat(result.RDF.R[i], 'f', 4, 64),
				strconv.FormatFloat(result.RDF.GR[i], 'f', 6, 64),
			}
		}
		if err := writeCSV("rdf.csv", []string{"r", "g_r"}, rows); err != nil {
			return files, fmt.Errorf("writing rdf data: %w", err)
		}
	}
	if result.Energy != nil {
		rows := make([][]string, len(result.Energy.Values))
		for i, e := range result.Energy.Values {
			rows[i] = []string{strconv.Itoa(i), strconv.FormatFloat(e, 'f', 6, 64)}
		}
		if err := writeCSV("energy_evolution.csv", []string{"frame", "energy"}, rows); err != nil {
			return files, fmt.Errorf("writing energy data: %w", err)
		}
	}
	return files, nil
}

func (a *Analyzer) saveResults(outputDir string, result AnalysisResult) (string, error) {
	path := filepath.Join(outputDir, "analysis_results.json")
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("saving results: %w", err)
	}
	return path, nil
}

func (a *Analyzer) writeSummary(outputDir string, result AnalysisResult) (string, error) {
	path := filepath.Join(outputDir, "analysis_summary.txt")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	fmt.Fprintf(f, "PROBAAH TRAJECTORY ANALYSIS REPORT\n")
	fmt.Fprintf(f, "==================================================\n\n")
	fmt.Fprintf(f, "Trajectory File: %s\n", result.TrajectoryFile)
	fmt.Fprintf(f, "Number of Frames: %d\n", result.Frames)
	fmt.Fprintf(f, "Number of Atoms: %d\n", result.Atoms)
	fmt.Fprintf(f, "Analysis Date: %s\n\n", time.Now().Format("2006-01-02 15:04:05"))

	if result.Bonds != nil {
		fmt.Fprintf(f, "BOND ANALYSIS\n--------------------\n")
		fmt.Fprintf(f, "Average Bond Count: %.1f\n", result.Bonds.AverageCount)
		fmt.Fprintf(f, "Average Bond Length: %.3f Å\n", result.Bonds.AverageLength)
		fmt.Fprintf(f, "Bond Count Range: %d - %d\n\n", result.Bonds.MinCount, result.Bonds.MaxCount)
	}
	if result.RDF != nil {
		fmt.Fprintf(f, "RADIAL DISTRIBUTION FUNCTION\n------------------------------\n")
		fmt.Fprintf(f, "Frames Analyzed: %d\n", result.RDF.FramesAnalyzed)
		fmt.Fprintf(f, "First Peak Position: %.3f Å\n", result.RDF.FirstPeakR)
		fmt.Fprintf(f, "First Peak Height: %.3f\n\n", result.RDF.FirstPeakG)
	}
	if result.Energy != nil {
		fmt.Fprintf(f, "ENERGY ANALYSIS\n--------------------\n")
		fmt.Fprintf(f, "Mean Energy: %.3f eV\n", result.Energy.Mean)
		fmt.Fprintf(f, "Energy Range: %.3f - %.3f eV\n", result.Energy.Min, result.Energy.Max)
		fmt.Fprintf(f, "Standard Deviation: %.3f eV\n\n", result.Energy.Std)
	}
	return path, nil
}
