package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Zxoir/twitter-month-archiver/pkg/twitter"
)

// Artifact is the terminal output for one account/month pair, written once
// after pagination is exhausted. Its presence marks the run as done.
type Artifact struct {
	Username   string         `json:"username"`
	UserID     string         `json:"user_id"`
	Month      string         `json:"month"`
	StartTime  time.Time      `json:"start_time"`
	EndTime    time.Time      `json:"end_time"`
	Count      int            `json:"count"`
	Posts      []twitter.Post `json:"posts"`
	RunID      string         `json:"run_id"`
	ExportedAt time.Time      `json:"exported_at"`
}

// Manager handles final artifact storage
type Manager struct {
	outputDir string
}

// NewManager creates a storage manager rooted at outputDir
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Manager{outputDir: outputDir}, nil
}

// ArtifactPath returns the final artifact path for a handle and month.
// It is distinct from the checkpoint path for the same pair.
func (m *Manager) ArtifactPath(handle, month string) string {
	return filepath.Join(m.outputDir, fmt.Sprintf("%s_%s.json", handle, month))
}

// ArtifactExists reports whether a final artifact has already been written
func (m *Manager) ArtifactExists(handle, month string) bool {
	_, err := os.Stat(m.ArtifactPath(handle, month))
	return err == nil
}

// WriteArtifact persists the final artifact atomically via temp file and
// rename, so a reader never observes a partial document.
func (m *Manager) WriteArtifact(artifact *Artifact) error {
	path := m.ArtifactPath(artifact.Username, artifact.Month)

	tempPath := path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary artifact file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(artifact); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode artifact: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync artifact file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close artifact file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace artifact file: %w", err)
	}
	return nil
}

// ReadArtifact loads a previously written artifact
func (m *Manager) ReadArtifact(handle, month string) (*Artifact, error) {
	data, err := os.ReadFile(m.ArtifactPath(handle, month))
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}

	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("failed to decode artifact: %w", err)
	}
	return &artifact, nil
}
