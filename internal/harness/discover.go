package harness

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultScenarioPattern matches scenario files anywhere below a root.
const DefaultScenarioPattern = "**/*.{yaml,yml}"

// DocumentNotFoundError is returned when a scenario references a document
// file that doesn't exist.
type DocumentNotFoundError struct {
	Scenario string
	Path     string
}

// Error implements the error interface.
func (e *DocumentNotFoundError) Error() string {
	return fmt.Sprintf("scenario %q references document %q which does not exist", e.Scenario, e.Path)
}

// DiscoverScenarios returns the files below root whose slash-separated
// relative path matches a doublestar pattern, in lexical order. An empty
// pattern means DefaultScenarioPattern. A root that is itself a file is
// returned as is.
func DiscoverScenarios(root, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = DefaultScenarioPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid scenario pattern %q", pattern)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scenario root: %w", err)
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		match, err := doublestar.Match(pattern, filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		if match {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return paths, nil
}

// LoadScenarios discovers and loads every scenario below root.
// Stops at the first file that fails to load.
func LoadScenarios(root, pattern string) ([]*Scenario, error) {
	paths, err := DiscoverScenarios(root, pattern)
	if err != nil {
		return nil, err
	}

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}
