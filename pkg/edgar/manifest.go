package edgar

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ManifestFileName is the manifest's name inside the filing directory.
const ManifestFileName = "manifest.json"

// Manifest tracks downloaded filings and failed attempts so interrupted runs
// can resume.
type Manifest struct {
	Version   string                     `json:"version"`
	UpdatedAt time.Time                  `json:"updated_at"`
	Downloads map[string]*DownloadResult `json:"downloads"`
	Failures  map[string]string          `json:"failures,omitempty"`
}

const manifestVersion = "1.0.0"

// NewManifest creates an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{
		Version:   manifestVersion,
		UpdatedAt: time.Now(),
		Downloads: make(map[string]*DownloadResult),
		Failures:  make(map[string]string),
	}
}

// LoadManifest reads a manifest from disk. A missing file yields an empty
// manifest.
func LoadManifest(manifestPath string) (*Manifest, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return NewManifest(), nil
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	manifest := &Manifest{}
	if err := json.Unmarshal(data, manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	if manifest.Downloads == nil {
		manifest.Downloads = make(map[string]*DownloadResult)
	}
	if manifest.Failures == nil {
		manifest.Failures = make(map[string]string)
	}

	return manifest, nil
}

// Save writes the manifest to disk.
func (manifest *Manifest) Save(manifestPath string) error {
	manifest.UpdatedAt = time.Now()

	if err := os.MkdirAll(filepath.Dir(manifestPath), 0755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(manifestPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	return nil
}

// Record stores a download outcome. A success clears an earlier failure.
func (manifest *Manifest) Record(result *DownloadResult) {
	if result.Error != "" {
		manifest.Failures[result.Identifier] = result.Error
		return
	}
	delete(manifest.Failures, result.Identifier)
	manifest.Downloads[result.Identifier] = result
}

// IsDownloaded checks if a filing has already been downloaded.
func (manifest *Manifest) IsDownloaded(identifier string) bool {
	_, exists := manifest.Downloads[identifier]
	return exists
}

// TotalBytes returns the bytes written across recorded downloads.
func (manifest *Manifest) TotalBytes() int64 {
	var totalBytes int64
	for _, result := range manifest.Downloads {
		totalBytes += result.BytesWritten
	}
	return totalBytes
}
