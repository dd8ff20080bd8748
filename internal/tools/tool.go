// Package tools wraps the external collaborators the workflow engine
// drives: the PACKMOL structure packer, the VIAMD visual validator, the
// trajectory analyzer and the presentation generator. Each wrapper reports
// its own availability so plans degrade gracefully on machines where a
// binary is missing.
package tools

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
)

// Tool is the minimal surface every collaborator wrapper exposes.
type Tool interface {
	Name() string
	Description() string
	IsAvailable() bool
}

// Status is a point-in-time availability report for one tool.
type Status struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
	Path        string `json:"path,omitempty"`
	InstallHint string `json:"install_hint,omitempty"`
}

// Registry holds the registered tools keyed by name.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry builds a registry from the given tools. Duplicate names are
// a wiring mistake and rejected outright.
func NewRegistry(tools ...Tool) (*Registry, error) {
	reg := &Registry{tools: make(map[string]Tool)}
	for _, t := range tools {
		if _, ok := reg.tools[t.Name()]; ok {
			return nil, fmt.Errorf("duplicate tool registration: %s", t.Name())
		}
		reg.tools[t.Name()] = t
	}
	return reg, nil
}

// Tool returns the registered tool for a name.
func (r *Registry) Tool(name string) (Tool, bool) {
	if r == nil {
		return nil, false
	}
	t, ok := r.tools[name]
	return t, ok
}

// Available reports whether a named tool is registered and usable.
func (r *Registry) Available(name string) bool {
	t, ok := r.Tool(name)
	return ok && t.IsAvailable()
}

// Statuses returns availability reports for every registered tool,
// sorted by name for stable output.
func (r *Registry) Statuses() []Status {
	statuses := make([]Status, 0, len(r.tools))
	for _, t := range r.tools {
		s := Status{
			Name:        t.Name(),
			Description: t.Description(),
			Available:   t.IsAvailable(),
		}
		if p, ok := t.(interface{ Executable() string }); ok {
			s.Path = p.Executable()
		}
		if h, ok := t.(interface{ InstallHint() string }); ok && !s.Available {
			s.InstallHint = h.InstallHint()
		}
		statuses = append(statuses, s)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })
	return statuses
}

// findExecutable resolves a binary by explicit path, then PATH lookup,
// then a list of conventional install locations. Returns "" if nothing
// matches.
func findExecutable(explicit string, name string, extraPaths []string) string {
	if explicit != "" && explicit != name {
		if _, err := os.Stat(explicit); err == nil {
			return explicit
		}
	}
	if p, err := exec.LookPath(name); err == nil {
		return p
	}
	home, _ := os.UserHomeDir()
	candidates := append([]string{}, extraPaths...)
	candidates = append(candidates,
		filepath.Join("/usr/local/bin", name),
		filepath.Join("/opt/conda/bin", name),
		filepath.Join("/usr/bin", name),
	)
	if home != "" {
		candidates = append(candidates,
			filepath.Join(home, "bin", name),
			filepath.Join(home, "Software", name, name),
			filepath.Join(home, "Downloads", name, name),
		)
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c
		}
	}
	return ""
}
