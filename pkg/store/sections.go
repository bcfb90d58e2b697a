package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// SectionDir stores extracted section text, one file per filing. Artifacts
// are write-once: an existing file is never replaced.
type SectionDir struct {
	dir string
}

// NewSectionDir creates a SectionDir rooted at dir. The directory is created
// on first write.
func NewSectionDir(dir string) *SectionDir {
	return &SectionDir{dir: dir}
}

// Dir returns the artifact directory.
func (sections *SectionDir) Dir() string {
	return sections.dir
}

// WriteSection creates name with text. It returns false without error when
// the artifact already exists.
func (sections *SectionDir) WriteSection(ctx context.Context, name string, text string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if err := os.MkdirAll(sections.dir, 0755); err != nil {
		return false, fmt.Errorf("failed to create section directory: %w", err)
	}

	artifactPath := filepath.Join(sections.dir, filepath.Base(name))
	file, err := os.OpenFile(artifactPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create %s: %w", artifactPath, err)
	}

	if _, err := file.WriteString(text); err != nil {
		file.Close()
		os.Remove(artifactPath)
		return false, fmt.Errorf("failed to write %s: %w", artifactPath, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(artifactPath)
		return false, fmt.Errorf("failed to close %s: %w", artifactPath, err)
	}

	return true, nil
}

// ReadSection returns the stored text of an artifact.
func (sections *SectionDir) ReadSection(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(sections.dir, filepath.Base(name)))
	if err != nil {
		return "", fmt.Errorf("reading section %s: %w", name, err)
	}
	return string(data), nil
}
