// Package state persists the small amount of data that must outlive
// the process: which notification id each slot was showing.
package state

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/llehouerou/nowplaying/internal/notify"
)

const (
	appName    = "nowplaying"
	dbFileName = "state.db"
)

// Manager is a SQLite-backed notify.SlotStore.
type Manager struct {
	mu sync.Mutex
	db *sql.DB
}

var _ notify.SlotStore = (*Manager)(nil)

// Open opens the database at path, creating it if needed.
// An empty path uses the XDG state directory.
func Open(path string) (*Manager, error) {
	if path == "" {
		var err error
		path, err = getDBPath()
		if err != nil {
			return nil, err
		}
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	return newManager(db)
}

func newManager(db *sql.DB) (*Manager, error) {
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Manager{db: db}, nil
}

func (m *Manager) Close() error {
	return m.db.Close()
}

// LoadSlot returns the server id saved for slot.
func (m *Manager) LoadSlot(slot int) (uint32, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var id int64
	row := m.db.QueryRow(`SELECT server_id FROM notification_slots WHERE slot = ?`, slot)
	err := row.Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return uint32(id), true, nil //nolint:gosec // stored from a uint32
}

// SaveSlot records id as the notification shown in slot.
func (m *Manager) SaveSlot(slot int, id uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, err := m.db.Exec(`
		INSERT INTO notification_slots (slot, server_id, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			server_id = excluded.server_id,
			updated_at = excluded.updated_at
	`, slot, int64(id), time.Now().Unix())
	return err
}

// DeleteSlot marks slot as empty.
func (m *Manager) DeleteSlot(slot int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, err := m.db.Exec(`DELETE FROM notification_slots WHERE slot = ?`, slot)
	return err
}

func getDBPath() (string, error) {
	return xdg.StateFile(filepath.Join(appName, dbFileName))
}
