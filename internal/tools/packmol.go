package tools

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/probaah/probaah/config"
	"github.com/probaah/probaah/internal/molfile"
)

// Default placement geometry for gas substitution. The gas box bounds the
// region fresh molecules are packed into; the final box is the full cell.
var (
	defaultGasBox   = [3]float64{23, 23, 23}
	defaultFinalBox = [3]float64{24, 140, 80}
)

const packmolTolerance = 2.0

// gasMolecules maps the species the workflows place to small reference
// geometries, bond lengths in Angstrom.
var gasMolecules = map[string][]molfile.Atom{
	"O":   {{Symbol: "O"}},
	"N":   {{Symbol: "N"}},
	"N2":  {{Symbol: "N"}, {Symbol: "N", Z: 1.1}},
	"O2":  {{Symbol: "O"}, {Symbol: "O", Z: 1.21}},
	"CO2": {{Symbol: "C"}, {Symbol: "O", Z: 1.16}, {Symbol: "O", Z: -1.16}},
}

// SubstitutionRequest describes one gas substitution run.
type SubstitutionRequest struct {
	InputStructure string
	RemoveSpecies  string
	AddSpecies     string
	Count          int
	Density        float64
	OutputFile     string
}

// SubstitutionResult captures the outcome of a gas substitution run.
type SubstitutionResult struct {
	OutputStructure string         `json:"output_structure"`
	RemovedSpecies  string         `json:"removed_species"`
	AddedSpecies    string         `json:"added_species"`
	MoleculeCount   int            `json:"molecule_count"`
	TargetDensity   float64        `json:"target_density"`
	OriginalAtoms   int            `json:"original_atoms"`
	FinalAtoms      int            `json:"final_atoms"`
	Species         map[string]int `json:"species"`
	Recommendations []string       `json:"recommendations"`
	// WorkDir is set only when a run failed and its directory was
	// preserved for debugging.
	WorkDir string `json:"work_dir,omitempty"`
}

// Packmol drives the PACKMOL binary for gas substitution workflows.
type Packmol struct {
	cfg        config.PackmolConfig
	executable string
	logger     *log.Logger
}

// NewPackmol discovers the PACKMOL executable and returns a wrapper.
// A missing binary is not an error here; IsAvailable reports it and
// execution fails with the install hint.
func NewPackmol(cfg config.PackmolConfig, logger *log.Logger) *Packmol {
	if logger == nil {
		logger = log.New(log.Writer(), "[PACKMOL] ", log.LstdFlags)
	}
	return &Packmol{
		cfg:        cfg,
		executable: findExecutable(cfg.Executable, "packmol", cfg.SearchPaths),
		logger:     logger,
	}
}

func (p *Packmol) Name() string        { return "packmol" }
func (p *Packmol) Description() string { return "Packs gas molecules into structures" }
func (p *Packmol) IsAvailable() bool   { return p.executable != "" }
func (p *Packmol) Executable() string  { return p.executable }

// InstallHint tells the user how to get PACKMOL.
func (p *Packmol) InstallHint() string {
	return "Install PACKMOL: conda install -c conda-forge packmol"
}

// GasSubstitution runs the full substitution workflow: prepare the input
// structure, remove the target species, generate the gas molecule, build
// the PACKMOL input and execute it. On success the packed structure is
// written to req.OutputFile (default: next to the input structure) and
// the working directory is removed; on failure it is preserved for
// debugging.
func (p *Packmol) GasSubstitution(ctx context.Context, req SubstitutionRequest) (SubstitutionResult, error) {
	if !p.IsAvailable() {
		return SubstitutionResult{}, fmt.Errorf("packmol executable not found; %s", p.InstallHint())
	}
	if req.Count <= 0 {
		return SubstitutionResult{}, fmt.Errorf("molecule count must be positive, got %d", req.Count)
	}

	workDir, err := os.MkdirTemp(p.cfg.WorkDir, "probaah_packmol_")
	if err != nil {
		return SubstitutionResult{}, fmt.Errorf("creating work dir: %w", err)
	}
	p.logger.Printf("working directory: %s", workDir)

	original, err := molfile.ReadStructure(req.InputStructure)
	if err != nil {
		return SubstitutionResult{WorkDir: workDir}, fmt.Errorf("reading input structure: %w", err)
	}

	prepared, err := p.prepareStructure(req.InputStructure, original, workDir)
	if err != nil {
		return SubstitutionResult{WorkDir: workDir}, err
	}

	cleaned, err := p.removeSpecies(prepared, req.RemoveSpecies, workDir)
	if err != nil {
		return SubstitutionResult{WorkDir: workDir}, err
	}

	gasFile, err := p.writeGasMolecule(req.AddSpecies, workDir)
	if err != nil {
		return SubstitutionResult{WorkDir: workDir}, err
	}

	outputFile := filepath.Join(workDir, "packed_structure.xyz")
	inputFile, err := p.writeInput(cleaned, gasFile, outputFile, req.Count, workDir)
	if err != nil {
		return SubstitutionResult{WorkDir: workDir}, err
	}

	if err := p.run(ctx, inputFile, workDir); err != nil {
		return SubstitutionResult{WorkDir: workDir}, err
	}

	packed, err := molfile.ReadXYZ(outputFile)
	if err != nil {
		return SubstitutionResult{WorkDir: workDir}, fmt.Errorf("reading packed structure: %w", err)
	}

	final := req.OutputFile
	if final == "" {
		base := strings.TrimSuffix(filepath.Base(req.InputStructure), filepath.Ext(req.InputStructure))
		final = filepath.Join(filepath.Dir(req.InputStructure), base+"_substituted.xyz")
	}
	if err := molfile.WriteXYZ(final, packed); err != nil {
		return SubstitutionResult{WorkDir: workDir}, fmt.Errorf("writing output: %w", err)
	}

	// Nothing left to inspect; keep the caller's directory clean.
	if err := os.RemoveAll(workDir); err != nil {
		p.logger.Printf("could not remove work dir %s: %v", workDir, err)
	}

	return SubstitutionResult{
		OutputStructure: final,
		RemovedSpecies:  req.RemoveSpecies,
		AddedSpecies:    req.AddSpecies,
		MoleculeCount:   req.Count,
		TargetDensity:   req.Density,
		OriginalAtoms:   len(original.Atoms),
		FinalAtoms:      len(packed.Atoms),
		Species:         packed.SpeciesCounts(),
		Recommendations: []string{
			"Consider visual validation with VIAMD",
			"Run energy minimization before MD simulation",
			"Check for overlapping atoms",
			"Verify density is physically reasonable",
		},
	}, nil
}

// prepareStructure converts non-XYZ inputs to XYZ inside the work dir.
// PACKMOL only understands xyz and pdb; everything funnels through xyz.
func (p *Packmol) prepareStructure(path string, frame molfile.Frame, workDir string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	out := filepath.Join(workDir, base+".xyz")
	frame.Comment = "Prepared from " + filepath.Base(path)
	if err := molfile.WriteXYZ(out, frame); err != nil {
		return "", fmt.Errorf("preparing structure: %w", err)
	}
	return out, nil
}

// removeSpecies produces the cleaned structure the gas is packed around.
// TODO: identify and strip complete molecules of the target species;
// currently the structure passes through unchanged.
func (p *Packmol) removeSpecies(path, species, workDir string) (string, error) {
	p.logger.Printf("removing %s from %s", species, filepath.Base(path))
	frame, err := molfile.ReadXYZ(path)
	if err != nil {
		return "", err
	}
	out := filepath.Join(workDir, "cleaned_"+filepath.Base(path))
	if err := molfile.WriteXYZ(out, frame); err != nil {
		return "", err
	}
	return out, nil
}

func (p *Packmol) writeGasMolecule(species, workDir string) (string, error) {
	atoms, ok := gasMolecules[species]
	if !ok {
		// Unknown species become a single atom of that symbol.
		atoms = []molfile.Atom{{Symbol: species}}
	}
	out := filepath.Join(workDir, "gas_"+species+".xyz")
	frame := molfile.Frame{Comment: species + " molecule", Atoms: atoms}
	if err := molfile.WriteXYZ(out, frame); err != nil {
		return "", fmt.Errorf("writing gas molecule: %w", err)
	}
	return out, nil
}

func (p *Packmol) writeInput(structure, gas, output string, count int, workDir string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# PACKMOL input generated by Probaah\n")
	fmt.Fprintf(&b, "# Gas substitution workflow\n\n")
	fmt.Fprintf(&b, "tolerance %.1f\n", packmolTolerance)
	fmt.Fprintf(&b, "filetype xyz\n")
	fmt.Fprintf(&b, "output %s\n\n", output)
	fmt.Fprintf(&b, "structure %s\n", structure)
	fmt.Fprintf(&b, "  number 1\n")
	fmt.Fprintf(&b, "  fixed 0.0 0.0 0.0 0.0 0.0 0.0\n")
	fmt.Fprintf(&b, "end structure\n\n")
	fmt.Fprintf(&b, "structure %s\n", gas)
	fmt.Fprintf(&b, "  number %d\n", count)
	fmt.Fprintf(&b, "  inside box %g %g %g %g %g %g\n",
		defaultGasBox[0], defaultGasBox[1], defaultGasBox[2],
		defaultFinalBox[0], defaultFinalBox[1], defaultFinalBox[2])
	fmt.Fprintf(&b, "end structure\n")

	inputFile := filepath.Join(workDir, "packmol_input.inp")
	if err := os.WriteFile(inputFile, []byte(b.String()), 0644); err != nil {
		return "", fmt.Errorf("writing packmol input: %w", err)
	}
	return inputFile, nil
}

func (p *Packmol) run(ctx context.Context, inputFile, workDir string) error {
	timeout := p.cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	in, err := os.Open(inputFile)
	if err != nil {
		return err
	}
	defer in.Close()

	cmd := exec.CommandContext(ctx, p.executable)
	cmd.Dir = workDir
	cmd.Stdin = in
	out, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("packmol timed out after %s", timeout)
	}
	if err != nil {
		p.logger.Printf("packmol failed, input preserved at %s", inputFile)
		return fmt.Errorf("packmol failed: %w: %s", err, truncate(string(out), 500))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
