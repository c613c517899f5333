package state

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/llehouerou/nowplaying/internal/notify"
)

// setupTestManager creates a manager over an in-memory SQLite database.
func setupTestManager(t *testing.T) *Manager {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	// A single connection keeps every query on the same in-memory database.
	db.SetMaxOpenConns(1)

	m, err := newManager(db)
	if err != nil {
		t.Fatalf("failed to init schema: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func TestLoadSlot_Empty(t *testing.T) {
	m := setupTestManager(t)

	id, ok, err := m.LoadSlot(1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, uint32(0), id)
}

func TestSaveAndLoadSlot(t *testing.T) {
	m := setupTestManager(t)

	require.NoError(t, m.SaveSlot(1, 42))
	id, ok, err := m.LoadSlot(1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint32(42), id)

	// Overwrite
	require.NoError(t, m.SaveSlot(1, 43))
	id, _, err = m.LoadSlot(1)
	require.NoError(t, err)
	assert.Equal(t, uint32(43), id)

	// Other slots untouched
	_, ok, err = m.LoadSlot(2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSaveSlot_MaxID(t *testing.T) {
	m := setupTestManager(t)

	require.NoError(t, m.SaveSlot(1, ^uint32(0)))
	id, ok, err := m.LoadSlot(1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, ^uint32(0), id)
}

func TestDeleteSlot(t *testing.T) {
	m := setupTestManager(t)

	require.NoError(t, m.SaveSlot(1, 42))
	require.NoError(t, m.DeleteSlot(1))
	require.NoError(t, m.DeleteSlot(1)) // idempotent

	_, ok, err := m.LoadSlot(1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInitSchemaIdempotent(t *testing.T) {
	m := setupTestManager(t)
	require.NoError(t, m.SaveSlot(1, 5))

	require.NoError(t, initSchema(m.db))

	id, ok, err := m.LoadSlot(1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint32(5), id)
}

func TestOpen_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")

	m, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, m.SaveSlot(1, 9))
	require.NoError(t, m.Close())

	m, err = Open(path)
	require.NoError(t, err)
	defer m.Close()

	id, ok, err := m.LoadSlot(1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint32(9), id)
}

// A restarted process closes the notification left by the previous one.
func TestStoreBacksNotifyManager(t *testing.T) {
	m := setupTestManager(t)
	require.NoError(t, m.SaveSlot(1, 12))

	n := &recordingNotifier{}
	mgr := notify.NewManager(n, m)
	require.NoError(t, mgr.Cancel(1))

	assert.Equal(t, []uint32{12}, n.closed)
	_, ok, err := m.LoadSlot(1)
	require.NoError(t, err)
	assert.False(t, ok)
}

type recordingNotifier struct {
	closed []uint32
}

func (r *recordingNotifier) Notify(_ notify.Notification) (uint32, error) { return 1, nil }

func (r *recordingNotifier) Close(id uint32) error {
	r.closed = append(r.closed, id)
	return nil
}
