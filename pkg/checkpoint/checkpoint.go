package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Zxoir/twitter-month-archiver/pkg/logger"
	"github.com/Zxoir/twitter-month-archiver/pkg/twitter"
	"github.com/Zxoir/twitter-month-archiver/pkg/window"
)

// RunState is the durable record of one account/month pagination run.
// It is persisted after every page so an interrupted run loses at most the
// in-flight page.
type RunState struct {
	RunID        string         `json:"run_id"`
	Handle       string         `json:"handle"`
	UserID       string         `json:"id"`
	Month        string         `json:"month"`
	Window       window.Window  `json:"window"`
	Posts        []twitter.Post `json:"posts"`
	NextCursor   string         `json:"next_cursor,omitempty"`
	PagesFetched int            `json:"pages_fetched"`
	Exhausted    bool           `json:"exhausted"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	Version      int            `json:"version"`
}

// Manager handles checkpoint persistence for one (handle, month) pair
type Manager struct {
	path   string
	logger logger.Logger
}

// NewManager creates a checkpoint manager rooted at dir. The checkpoint path
// is derived deterministically from the handle and month so re-runs find it.
func NewManager(dir, handle, month string, log logger.Logger) (*Manager, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	return &Manager{
		path:   filepath.Join(dir, fmt.Sprintf("%s_%s.checkpoint.json", handle, month)),
		logger: log,
	}, nil
}

// Path returns the checkpoint file path
func (m *Manager) Path() string {
	return m.path
}

// Exists checks if a checkpoint file exists
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.path)
	return err == nil
}

// Create initializes a fresh run state and persists it
func (m *Manager) Create(runID string, identity twitter.AccountIdentity, month string, win window.Window) (*RunState, error) {
	state := &RunState{
		RunID:     runID,
		Handle:    identity.Handle,
		UserID:    identity.ID,
		Month:     month,
		Window:    win,
		Posts:     []twitter.Post{},
		CreatedAt: time.Now().UTC(),
		Version:   1,
	}

	if err := m.Save(state); err != nil {
		return nil, fmt.Errorf("failed to save initial checkpoint: %w", err)
	}

	m.logger.InfoWithFields("checkpoint created", map[string]interface{}{
		"handle": identity.Handle,
		"month":  month,
		"path":   m.path,
	})
	return state, nil
}

// Load reads an existing checkpoint. A missing file returns (nil, nil).
func (m *Manager) Load() (*RunState, error) {
	file, err := os.Open(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open checkpoint file: %w", err)
	}
	defer file.Close()

	var state RunState
	if err := json.NewDecoder(file).Decode(&state); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}

	m.logger.InfoWithFields("checkpoint loaded", map[string]interface{}{
		"handle":        state.Handle,
		"month":         state.Month,
		"pages_fetched": state.PagesFetched,
		"posts":         len(state.Posts),
		"exhausted":     state.Exhausted,
	})
	return &state, nil
}

// Save persists the state atomically: write to a temp file, sync, then
// rename into place. A concurrent reader never sees a half-written file.
func (m *Manager) Save(state *RunState) error {
	state.UpdatedAt = time.Now().UTC()

	tempPath := m.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(state); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	if err := os.Rename(tempPath, m.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	m.logger.DebugWithFields("checkpoint saved", map[string]interface{}{
		"handle":        state.Handle,
		"pages_fetched": state.PagesFetched,
		"posts":         len(state.Posts),
	})
	return nil
}

// Delete removes the checkpoint file. Used only for explicit restarts;
// failed runs keep their last-good checkpoint.
func (m *Manager) Delete() error {
	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	m.logger.Info("checkpoint deleted")
	return nil
}
