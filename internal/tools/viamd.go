package tools

import (
	"context"
	"fmt"
	"log"
	"math"
	"os/exec"

	"github.com/probaah/probaah/config"
	"github.com/probaah/probaah/internal/molfile"
)

const (
	// Atoms closer than this are considered overlapping.
	minAtomDistance = 0.5
	// Densities above this many atoms per cubic Angstrom are unphysical.
	maxAtomDensity = 10.0
)

// ValidationResult is the outcome of validating one structure.
type ValidationResult struct {
	StructureFile   string   `json:"structure_file"`
	Approved        bool     `json:"approved"`
	Method          string   `json:"method"`
	MinDistance     float64  `json:"min_distance"`
	Density         float64  `json:"density"`
	AtomCount       int      `json:"atom_count"`
	Issues          []string `json:"issues,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// BatchValidationResult aggregates a batch of structure validations.
type BatchValidationResult struct {
	Total    int                         `json:"total"`
	Approved int                         `json:"approved"`
	Results  map[string]ValidationResult `json:"results"`
}

// Viamd wraps the VIAMD visualizer. When the binary is present it can be
// launched for interactive inspection; numeric validation always works.
type Viamd struct {
	cfg        config.ViamdConfig
	executable string
	logger     *log.Logger
}

// NewViamd discovers the VIAMD executable and returns a wrapper.
func NewViamd(cfg config.ViamdConfig, logger *log.Logger) *Viamd {
	if logger == nil {
		logger = log.New(log.Writer(), "[VIAMD] ", log.LstdFlags)
	}
	return &Viamd{
		cfg:        cfg,
		executable: findExecutable(cfg.Executable, "viamd", cfg.SearchPaths),
		logger:     logger,
	}
}

func (v *Viamd) Name() string        { return "viamd" }
func (v *Viamd) Description() string { return "Validates structures visually and numerically" }
func (v *Viamd) IsAvailable() bool   { return v.executable != "" }
func (v *Viamd) Executable() string  { return v.executable }

// InstallHint tells the user how to get VIAMD.
func (v *Viamd) InstallHint() string {
	return "Install VIAMD for visual validation"
}

// Launch opens the structure in VIAMD for interactive inspection. The
// process is detached; validation proper happens numerically.
func (v *Viamd) Launch(ctx context.Context, structureFile string) error {
	if !v.IsAvailable() {
		return fmt.Errorf("viamd executable not found; %s", v.InstallHint())
	}
	cmd := exec.CommandContext(ctx, v.executable, structureFile)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launching viamd: %w", err)
	}
	v.logger.Printf("launched viamd for %s (pid %d)", structureFile, cmd.Process.Pid)
	go func() { _ = cmd.Wait() }()
	return nil
}

// ValidateStructure runs numeric sanity checks on a structure: pairwise
// minimum distance and a bounding-box density estimate. Overlapping atoms
// fail validation; high density only raises an issue.
func (v *Viamd) ValidateStructure(ctx context.Context, structureFile string) (ValidationResult, error) {
	frame, err := molfile.ReadStructure(structureFile)
	if err != nil {
		return ValidationResult{StructureFile: structureFile}, fmt.Errorf("reading structure: %w", err)
	}

	result := ValidationResult{
		StructureFile: structureFile,
		Approved:      true,
		Method:        "automated",
		AtomCount:     len(frame.Atoms),
	}

	minDist := math.Inf(1)
	for i := range frame.Atoms {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		for j := i + 1; j < len(frame.Atoms); j++ {
			if d := frame.Distance(i, j); d < minDist {
				minDist = d
			}
		}
	}
	if math.IsInf(minDist, 1) {
		minDist = 0
	}
	result.MinDistance = minDist

	if len(frame.Atoms) > 1 && minDist < minAtomDistance {
		result.Approved = false
		result.Issues = append(result.Issues, fmt.Sprintf("Atoms too close: %.2f Å", minDist))
		result.Recommendations = append(result.Recommendations, "Increase PACKMOL tolerance")
	}

	if vol := frame.BoundingVolume(); vol > 0 {
		result.Density = float64(len(frame.Atoms)) / vol
		if result.Density > maxAtomDensity {
			result.Issues = append(result.Issues, fmt.Sprintf("High density: %.2f atoms/Å³", result.Density))
			result.Recommendations = append(result.Recommendations, "Check box dimensions")
		}
	}

	v.logger.Printf("validated %s: approved=%t min_dist=%.2f atoms=%d",
		structureFile, result.Approved, result.MinDistance, result.AtomCount)
	return result, nil
}

// BatchValidate validates several structures and aggregates the outcome.
func (v *Viamd) BatchValidate(ctx context.Context, structureFiles []string) (BatchValidationResult, error) {
	batch := BatchValidationResult{
		Total:   len(structureFiles),
		Results: make(map[string]ValidationResult, len(structureFiles)),
	}
	for _, f := range structureFiles {
		res, err := v.ValidateStructure(ctx, f)
		if err != nil {
			res = ValidationResult{
				StructureFile: f,
				Approved:      false,
				Method:        "automated",
				Issues:        []string{err.Error()},
			}
		}
		batch.Results[f] = res
		if res.Approved {
			batch.Approved++
		}
	}
	return batch, nil
}
