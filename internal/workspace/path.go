package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathGuard keeps paths inside a base directory.
type PathGuard struct {
	BaseDir string
}

// NewPathGuard constructs a guard rooted at baseDir (defaults to current working directory).
func NewPathGuard(baseDir string) (*PathGuard, error) {
	if baseDir == "" {
		var err error
		baseDir, err = os.Getwd()
		if err != nil {
			return nil, err
		}
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, err
	}
	return &PathGuard{BaseDir: absBase}, nil
}

// Resolve validates a workspace-relative path and returns its absolute form.
func (g *PathGuard) Resolve(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("path is required")
	}
	clean := filepath.Clean(p)
	if filepath.IsAbs(clean) {
		rel, err := filepath.Rel(g.BaseDir, clean)
		if err != nil {
			return "", fmt.Errorf("path %q is outside the workspace", p)
		}
		clean = rel
	}
	abs := filepath.Clean(filepath.Join(g.BaseDir, clean))

	if !strings.HasPrefix(abs, g.BaseDir+string(os.PathSeparator)) && abs != g.BaseDir {
		return "", fmt.Errorf("path %q escapes the workspace", p)
	}
	return abs, nil
}

// Rel returns p relative to the workspace root using forward slashes.
func (g *PathGuard) Rel(abs string) string {
	rel, err := filepath.Rel(g.BaseDir, abs)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}
