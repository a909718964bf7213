package checkpoint

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zxoir/twitter-month-archiver/pkg/logger"
	"github.com/Zxoir/twitter-month-archiver/pkg/twitter"
	"github.com/Zxoir/twitter-month-archiver/pkg/window"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(t.TempDir(), "jack", "2024-08", logger.NewTestLogger())
	require.NoError(t, err)
	return m
}

func testIdentity() twitter.AccountIdentity {
	return twitter.AccountIdentity{Handle: "jack", ID: "12"}
}

func testWindow(t *testing.T) window.Window {
	t.Helper()
	w, err := window.Resolve("2024-08")
	require.NoError(t, err)
	return w
}

func TestCreateAndLoad(t *testing.T) {
	m := newTestManager(t)

	created, err := m.Create("run-1", testIdentity(), "2024-08", testWindow(t))
	require.NoError(t, err)
	assert.True(t, m.Exists())

	loaded, err := m.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "run-1", loaded.RunID)
	assert.Equal(t, "jack", loaded.Handle)
	assert.Equal(t, "12", loaded.UserID)
	assert.Equal(t, "2024-08", loaded.Month)
	assert.Equal(t, created.Window, loaded.Window)
	assert.False(t, loaded.Exhausted)
	assert.Empty(t, loaded.Posts)
}

func TestLoadMissingReturnsNil(t *testing.T) {
	m := newTestManager(t)

	state, err := m.Load()
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestSaveRoundTripsProgress(t *testing.T) {
	m := newTestManager(t)
	state, err := m.Create("run-1", testIdentity(), "2024-08", testWindow(t))
	require.NoError(t, err)

	state.Posts = append(state.Posts,
		twitter.Post{"id": "1", "created_at": "2024-08-20T00:00:00.000Z", "text": "hello"},
		twitter.Post{"id": "2", "created_at": "2024-08-19T00:00:00.000Z", "text": "world"},
	)
	state.NextCursor = "cursor-after-page-1"
	state.PagesFetched = 1
	require.NoError(t, m.Save(state))

	loaded, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, "cursor-after-page-1", loaded.NextCursor)
	assert.Equal(t, 1, loaded.PagesFetched)
	require.Len(t, loaded.Posts, 2)
	assert.Equal(t, "1", loaded.Posts[0].ID())
	assert.Equal(t, "2", loaded.Posts[1].ID())
}

func TestSaveOverwritesPrior(t *testing.T) {
	m := newTestManager(t)
	state, err := m.Create("run-1", testIdentity(), "2024-08", testWindow(t))
	require.NoError(t, err)

	state.PagesFetched = 3
	require.NoError(t, m.Save(state))
	state.PagesFetched = 4
	state.Exhausted = true
	require.NoError(t, m.Save(state))

	loaded, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, 4, loaded.PagesFetched)
	assert.True(t, loaded.Exhausted)
}

// The file visible at the checkpoint path must always be complete and
// parseable, even if the process dies right after a save. The rename-based
// write makes the save a single atomic transition, which this test verifies
// by checking no temp residue is left and every observed file state parses.
func TestCheckpointFileAlwaysParseable(t *testing.T) {
	m := newTestManager(t)
	state, err := m.Create("run-1", testIdentity(), "2024-08", testWindow(t))
	require.NoError(t, err)

	for page := 1; page <= 5; page++ {
		state.Posts = append(state.Posts, twitter.Post{"id": "p", "text": "x"})
		state.PagesFetched = page
		require.NoError(t, m.Save(state))

		// Simulated interruption point: read whatever is on disk right now
		data, err := os.ReadFile(m.Path())
		require.NoError(t, err)

		var onDisk RunState
		require.NoError(t, json.Unmarshal(data, &onDisk), "checkpoint truncated after page %d", page)
		assert.Equal(t, page, onDisk.PagesFetched)
	}

	entries, err := os.ReadDir(filepath.Dir(m.Path()))
	require.NoError(t, err)
	for _, entry := range entries {
		assert.NotContains(t, entry.Name(), ".tmp", "temp file left behind")
	}
}

func TestDelete(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Create("run-1", testIdentity(), "2024-08", testWindow(t))
	require.NoError(t, err)

	require.NoError(t, m.Delete())
	assert.False(t, m.Exists())

	// Deleting a missing checkpoint is not an error
	require.NoError(t, m.Delete())
}

func TestPathDerivedFromHandleAndMonth(t *testing.T) {
	dir := t.TempDir()
	log := logger.NewTestLogger()

	m1, err := NewManager(dir, "jack", "2024-08", log)
	require.NoError(t, err)
	m2, err := NewManager(dir, "jack", "2024-09", log)
	require.NoError(t, err)
	m3, err := NewManager(dir, "jill", "2024-08", log)
	require.NoError(t, err)

	assert.NotEqual(t, m1.Path(), m2.Path())
	assert.NotEqual(t, m1.Path(), m3.Path())
	assert.Equal(t, filepath.Join(dir, "jack_2024-08.checkpoint.json"), m1.Path())
}
