package workspace

import (
	"fmt"
	"os"

	"github.com/codio-extensions/explain-error-assistant-ignore-autograder-results/internal/host"
)

// Reader loads learner files from a workspace without ever writing to it.
type Reader struct {
	guard *PathGuard
}

// NewReader builds a reader rooted at baseDir.
func NewReader(baseDir string) (*Reader, error) {
	guard, err := NewPathGuard(baseDir)
	if err != nil {
		return nil, err
	}
	return &Reader{guard: guard}, nil
}

// Root returns the absolute workspace root.
func (r *Reader) Root() string {
	return r.guard.BaseDir
}

// ReadFile returns file contents as string.
func (r *Reader) ReadFile(path string) (string, error) {
	resolved, err := r.guard.Resolve(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReadFiles reads paths in the given order. Reported paths are workspace-relative.
func (r *Reader) ReadFiles(paths []string) ([]host.File, error) {
	files := make([]host.File, 0, len(paths))
	for _, p := range paths {
		resolved, err := r.guard.Resolve(p)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(resolved)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		files = append(files, host.File{Path: r.guard.Rel(resolved), Content: string(data)})
	}
	return files, nil
}
