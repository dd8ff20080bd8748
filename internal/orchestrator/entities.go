package orchestrator

import (
	"regexp"
	"strconv"
	"strings"
)

// Extraction patterns. Files are recognized by extension whitelist,
// molecules by a dictionary of common small molecules plus a generic
// element-symbol fallback, numbers as bare integers.
var (
	filePattern          = regexp.MustCompile(`(?i)\b([\w-]+\.(?:xyz|pdb|bgf|traj|car|mol2))\b`)
	knownMoleculePattern = regexp.MustCompile(`(?i)\b(O2|N2|CO2|H2O|CH4|C2H6|NH3)\b`)
	elementPattern       = regexp.MustCompile(`\b([A-Z][a-z]?\d*)\b`)
	numberPattern        = regexp.MustCompile(`\b\d+\b`)
	propertyPattern      = regexp.MustCompile(`(?i)\b(density|energy|bonds?|rdf|temperature|pressure)\b`)
)

// knownToolNames is the fixed registry of tool identifiers matched by
// substring in requests.
var knownToolNames = []string{"packmol", "viamd", "trajectory_analyzer", "slides"}

// ExtractEntities pulls structured tokens out of raw request text. It is a
// pure function: no state, never fails, an absent match just leaves its
// category empty.
func ExtractEntities(text string) EntityBag {
	bag := EntityBag{}
	lower := strings.ToLower(text)

	for _, m := range filePattern.FindAllStringSubmatch(text, -1) {
		bag.Files = append(bag.Files, m[1])
	}

	for _, m := range knownMoleculePattern.FindAllStringSubmatch(text, -1) {
		bag.Molecules = append(bag.Molecules, m[1])
	}
	for _, m := range elementPattern.FindAllStringSubmatch(text, -1) {
		bag.Molecules = append(bag.Molecules, m[1])
	}

	for _, m := range numberPattern.FindAllString(text, -1) {
		if n, err := strconv.Atoi(m); err == nil {
			bag.Numbers = append(bag.Numbers, n)
		}
	}

	for _, tool := range knownToolNames {
		if strings.Contains(lower, tool) {
			bag.Tools = append(bag.Tools, tool)
		}
	}

	for _, m := range propertyPattern.FindAllStringSubmatch(text, -1) {
		bag.Properties = append(bag.Properties, strings.ToLower(m[1]))
	}

	return bag
}
