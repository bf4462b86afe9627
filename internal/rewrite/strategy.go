package rewrite

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/shinji-kodama/devcode/internal/model"
)

// Strategy rewrites a single file inside a project tree.
type Strategy interface {
	// Kind is a short identifier for logs and reports ("field-patch", ...).
	Kind() string

	// Target is the slash-separated file path relative to the project root.
	Target() string

	// Apply rewrites the file. A missing file returns model.ChangeSkipped
	// and a nil error.
	Apply(root, placeholder, target string) (model.Change, error)
}

// ManagedLocation is one file the release pipeline knows how to rewrite.
type ManagedLocation struct {
	// Description explains the location in the report.
	Description string

	// Strategy performs the rewrite.
	Strategy Strategy
}

// Path returns the cleaned, slash-separated relative path of the location.
func (l ManagedLocation) Path() string {
	return cleanPath(l.Strategy.Target())
}

// Registry is an ordered, immutable list of managed locations.
type Registry struct {
	locations []ManagedLocation
}

// NewRegistry validates locations and returns them as a Registry, keeping
// the declared order. Two locations may not target the same path.
func NewRegistry(locations ...ManagedLocation) (*Registry, error) {
	seen := make(map[string]string, len(locations))
	for i, loc := range locations {
		if loc.Strategy == nil {
			return nil, fmt.Errorf("managed location %d (%q) has no strategy", i, loc.Description)
		}
		p := loc.Path()
		if err := validateRelPath(p); err != nil {
			return nil, fmt.Errorf("managed location %q: %w", loc.Description, err)
		}
		if kind, dup := seen[p]; dup {
			if kind != loc.Strategy.Kind() {
				return nil, fmt.Errorf("managed location %s has conflicting strategies %s and %s", p, kind, loc.Strategy.Kind())
			}
			return nil, fmt.Errorf("managed location %s is declared twice", p)
		}
		seen[p] = loc.Strategy.Kind()
	}

	copied := make([]ManagedLocation, len(locations))
	copy(copied, locations)
	return &Registry{locations: copied}, nil
}

// Locations returns the locations in declared order.
func (r *Registry) Locations() []ManagedLocation {
	out := make([]ManagedLocation, len(r.locations))
	copy(out, r.locations)
	return out
}

// Paths returns the relative paths of every location in declared order.
func (r *Registry) Paths() []string {
	paths := make([]string, len(r.locations))
	for i, loc := range r.locations {
		paths[i] = loc.Path()
	}
	return paths
}

// Len returns the number of locations.
func (r *Registry) Len() int {
	return len(r.locations)
}

func cleanPath(p string) string {
	return path.Clean(filepath.ToSlash(p))
}

// validateRelPath rejects paths that would escape the project root.
func validateRelPath(p string) error {
	switch {
	case p == "" || p == ".":
		return fmt.Errorf("path must not be empty")
	case path.IsAbs(p) || filepath.IsAbs(p):
		return fmt.Errorf("path %s must be relative to the project root", p)
	case p == ".." || strings.HasPrefix(p, "../"):
		return fmt.Errorf("path %s escapes the project root", p)
	}
	return nil
}

// resolve joins a slash-separated relative path onto root.
func resolve(root, rel string) string {
	return filepath.Join(root, filepath.FromSlash(rel))
}
