// Package molfile provides thin readers and writers for the molecular
// structure formats the workflow tools exchange: XYZ (single frame and
// trajectory), PDB and BGF. It deliberately stops at coordinate plumbing;
// anything chemical beyond species symbols and covalent radii belongs to
// the tools that consume these frames.
package molfile

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Atom is a single atom record: element symbol plus cartesian position in Angstrom.
type Atom struct {
	Symbol string
	X      float64
	Y      float64
	Z      float64
}

// Frame is one snapshot of a structure. Comment carries the raw XYZ comment
// line; Energy is populated when the comment line declares one.
type Frame struct {
	Comment   string
	Atoms     []Atom
	Energy    float64
	HasEnergy bool
}

// Distance returns the euclidean distance between atoms i and j.
func (f Frame) Distance(i, j int) float64 {
	dx := f.Atoms[i].X - f.Atoms[j].X
	dy := f.Atoms[i].Y - f.Atoms[j].Y
	dz := f.Atoms[i].Z - f.Atoms[j].Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// SpeciesCounts returns how many atoms of each element the frame holds.
func (f Frame) SpeciesCounts() map[string]int {
	counts := make(map[string]int)
	for _, a := range f.Atoms {
		counts[a.Symbol]++
	}
	return counts
}

// BoundingVolume returns the volume of the axis-aligned box enclosing the
// frame, in cubic Angstrom. Zero-extent axes are clamped to 1 Angstrom so
// density estimates stay finite for planar or single-atom frames.
func (f Frame) BoundingVolume() float64 {
	if len(f.Atoms) == 0 {
		return 0
	}
	minX, minY, minZ := f.Atoms[0].X, f.Atoms[0].Y, f.Atoms[0].Z
	maxX, maxY, maxZ := minX, minY, minZ
	for _, a := range f.Atoms[1:] {
		minX, maxX = math.Min(minX, a.X), math.Max(maxX, a.X)
		minY, maxY = math.Min(minY, a.Y), math.Max(maxY, a.Y)
		minZ, maxZ = math.Min(minZ, a.Z), math.Max(maxZ, a.Z)
	}
	dx := math.Max(maxX-minX, 1)
	dy := math.Max(maxY-minY, 1)
	dz := math.Max(maxZ-minZ, 1)
	return dx * dy * dz
}

// energyPattern matches "energy=-12.3", "E = -12.3" and similar comment tags.
var energyPattern = regexp.MustCompile(`(?i)\b(?:energy|e)\s*=\s*(-?\d+(?:\.\d+)?(?:[eE][+-]?\d+)?)`)

// ReadXYZ reads the first frame of an XYZ file.
func ReadXYZ(path string) (Frame, error) {
	frames, err := readXYZFrames(path, 1)
	if err != nil {
		return Frame{}, err
	}
	if len(frames) == 0 {
		return Frame{}, fmt.Errorf("xyz %s: no frames", path)
	}
	return frames[0], nil
}

// ReadXYZTrajectory reads every frame of a multi-frame XYZ file.
func ReadXYZTrajectory(path string) ([]Frame, error) {
	return readXYZFrames(path, -1)
}

func readXYZFrames(path string, limit int) ([]Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	var frames []Frame
	for limit < 0 || len(frames) < limit {
		if !scanner.Scan() {
			break
		}
		countLine := strings.TrimSpace(scanner.Text())
		if countLine == "" {
			continue
		}
		n, err := strconv.Atoi(countLine)
		if err != nil {
			return nil, fmt.Errorf("xyz %s: bad atom count %q", path, countLine)
		}
		if !scanner.Scan() {
			return nil, fmt.Errorf("xyz %s: truncated after atom count", path)
		}
		frame := Frame{Comment: strings.TrimSpace(scanner.Text())}
		if m := energyPattern.FindStringSubmatch(frame.Comment); m != nil {
			if e, err := strconv.ParseFloat(m[1], 64); err == nil {
				frame.Energy = e
				frame.HasEnergy = true
			}
		}
		for i := 0; i < n; i++ {
			if !scanner.Scan() {
				return nil, fmt.Errorf("xyz %s: truncated frame, want %d atoms got %d", path, n, i)
			}
			atom, err := parseXYZLine(scanner.Text())
			if err != nil {
				return nil, fmt.Errorf("xyz %s: %w", path, err)
			}
			frame.Atoms = append(frame.Atoms, atom)
		}
		frames = append(frames, frame)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return frames, nil
}

func parseXYZLine(line string) (Atom, error) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return Atom{}, fmt.Errorf("bad atom line %q", line)
	}
	x, errX := strconv.ParseFloat(fields[1], 64)
	y, errY := strconv.ParseFloat(fields[2], 64)
	z, errZ := strconv.ParseFloat(fields[3], 64)
	if errX != nil || errY != nil || errZ != nil {
		return Atom{}, fmt.Errorf("bad coordinates in %q", line)
	}
	return Atom{Symbol: normalizeSymbol(fields[0]), X: x, Y: y, Z: z}, nil
}

// WriteXYZ writes a single frame to path in XYZ format.
func WriteXYZ(path string, frame Frame) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%d\n%s\n", len(frame.Atoms), frame.Comment)
	for _, a := range frame.Atoms {
		fmt.Fprintf(&b, "%-2s %12.6f %12.6f %12.6f\n", a.Symbol, a.X, a.Y, a.Z)
	}
	return os.WriteFile(path, []byte(b.String()), 0644)
}

// ReadPDB reads ATOM/HETATM records from a PDB file into a single frame.
func ReadPDB(path string) (Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return Frame{}, err
	}
	defer f.Close()

	var frame Frame
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "ATOM") && !strings.HasPrefix(line, "HETATM") {
			if strings.HasPrefix(line, "END") {
				break
			}
			continue
		}
		if len(line) < 54 {
			continue
		}
		x, errX := strconv.ParseFloat(strings.TrimSpace(line[30:38]), 64)
		y, errY := strconv.ParseFloat(strings.TrimSpace(line[38:46]), 64)
		z, errZ := strconv.ParseFloat(strings.TrimSpace(line[46:54]), 64)
		if errX != nil || errY != nil || errZ != nil {
			return Frame{}, fmt.Errorf("pdb %s: bad coordinates in %q", path, line)
		}
		symbol := ""
		if len(line) >= 78 {
			symbol = strings.TrimSpace(line[76:78])
		}
		if symbol == "" {
			symbol = strings.TrimSpace(line[12:14])
			symbol = strings.TrimLeft(symbol, "0123456789")
		}
		frame.Atoms = append(frame.Atoms, Atom{Symbol: normalizeSymbol(symbol), X: x, Y: y, Z: z})
	}
	if err := scanner.Err(); err != nil {
		return Frame{}, err
	}
	if len(frame.Atoms) == 0 {
		return Frame{}, fmt.Errorf("pdb %s: no atom records", path)
	}
	return frame, nil
}

// ReadBGF reads ATOM/HETATM records from a BGF file into a single frame.
// BGF is whitespace-delimited: record, serial, name, residue, chain,
// residue number, x, y, z, force-field type, then bond fields.
func ReadBGF(path string) (Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return Frame{}, err
	}
	defer f.Close()

	var frame Frame
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "ATOM") && !strings.HasPrefix(line, "HETATM") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 9 {
			continue
		}
		x, errX := strconv.ParseFloat(fields[6], 64)
		y, errY := strconv.ParseFloat(fields[7], 64)
		z, errZ := strconv.ParseFloat(fields[8], 64)
		if errX != nil || errY != nil || errZ != nil {
			return Frame{}, fmt.Errorf("bgf %s: bad coordinates in %q", path, line)
		}
		// Atom names carry trailing digits ("C1", "O12"); the element is
	// what remains after stripping them.
	symbol := strings.TrimRight(fields[2], "0123456789")
		frame.Atoms = append(frame.Atoms, Atom{Symbol: normalizeSymbol(symbol), X: x, Y: y, Z: z})
	}
	if err := scanner.Err(); err != nil {
		return Frame{}, err
	}
	if len(frame.Atoms) == 0 {
		return Frame{}, fmt.Errorf("bgf %s: no atom records", path)
	}
	return frame, nil
}

// ReadStructure dispatches on file extension. Unknown extensions are tried
// as XYZ, the common interchange format between the tools.
func ReadStructure(path string) (Frame, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdb":
		return ReadPDB(path)
	case ".bgf":
		return ReadBGF(path)
	default:
		return ReadXYZ(path)
	}
}

// covalentRadii holds single-bond covalent radii in Angstrom (Cordero 2008)
// for the elements the workflows actually see. Missing elements fall back
// to a generous default.
var covalentRadii = map[string]float64{
	"H": 0.31, "He": 0.28, "Li": 1.28, "Be": 0.96, "B": 0.84,
	"C": 0.76, "N": 0.71, "O": 0.66, "F": 0.57, "Ne": 0.58,
	"Na": 1.66, "Mg": 1.41, "Al": 1.21, "Si": 1.11, "P": 1.07,
	"S": 1.05, "Cl": 1.02, "K": 2.03, "Ca": 1.76, "Ti": 1.60,
	"Fe": 1.32, "Ni": 1.24, "Cu": 1.32, "Zn": 1.22, "Br": 1.20,
	"I": 1.39,
}

const defaultCovalentRadius = 1.50

// CovalentRadius returns the covalent radius for an element symbol.
func CovalentRadius(symbol string) float64 {
	if r, ok := covalentRadii[normalizeSymbol(symbol)]; ok {
		return r
	}
	return defaultCovalentRadius
}

func normalizeSymbol(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	s = strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
	return s
}
