package notify

import (
	"fmt"
	"sync"
)

// SlotStore persists the server id posted in each slot.
type SlotStore interface {
	// LoadSlot returns the id in slot, or false if the slot is empty.
	LoadSlot(slot int) (uint32, bool, error)
	SaveSlot(slot int, id uint32) error
	DeleteSlot(slot int) error
}

// Manager posts notifications into fixed, caller-chosen slots.
// Posting into an occupied slot replaces what it shows.
type Manager struct {
	mu       sync.Mutex
	notifier Notifier
	store    SlotStore
	ids      map[int]uint32
}

// NewManager creates a manager. A nil store keeps slots in memory only.
func NewManager(n Notifier, store SlotStore) *Manager {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Manager{
		notifier: n,
		store:    store,
		ids:      make(map[int]uint32),
	}
}

// Notify posts n into slot, replacing any notification already there.
func (m *Manager) Notify(slot int, n Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev, _, err := m.lookup(slot)
	if err != nil {
		return err
	}

	n.ReplacesID = prev
	id, err := m.notifier.Notify(n)
	if err != nil {
		return fmt.Errorf("post notification in slot %d: %w", slot, err)
	}

	if id == 0 {
		// Notifications unavailable; nothing to track.
		delete(m.ids, slot)
		return m.store.DeleteSlot(slot)
	}

	m.ids[slot] = id
	return m.store.SaveSlot(slot, id)
}

// Cancel closes the notification in slot. An empty slot is a no-op.
func (m *Manager) Cancel(slot int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok, err := m.lookup(slot)
	if err != nil || !ok {
		return err
	}

	// The slot keeps its id until the server has closed it.
	if err := m.notifier.Close(id); err != nil {
		return fmt.Errorf("close notification %d: %w", id, err)
	}
	delete(m.ids, slot)
	return m.store.DeleteSlot(slot)
}

// Owns reports whether id is currently shown in one of the slots.
func (m *Manager) Owns(id uint32) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, v := range m.ids {
		if v == id {
			return true
		}
	}
	return false
}

// Forget empties the slot showing id, without closing anything.
// Used when the server reports the notification as closed.
func (m *Manager) Forget(id uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for slot, v := range m.ids {
		if v == id {
			delete(m.ids, slot)
			return m.store.DeleteSlot(slot)
		}
	}
	return nil
}

// lookup returns the id in slot, loading it from the store on first use.
// Must hold m.mu.
func (m *Manager) lookup(slot int) (uint32, bool, error) {
	if id, ok := m.ids[slot]; ok {
		return id, true, nil
	}

	id, ok, err := m.store.LoadSlot(slot)
	if err != nil {
		return 0, false, fmt.Errorf("load slot %d: %w", slot, err)
	}
	if ok {
		m.ids[slot] = id
	}
	return id, ok, nil
}

// MemoryStore is a SlotStore that lives for the process only.
type MemoryStore struct {
	mu    sync.Mutex
	slots map[int]uint32
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: make(map[int]uint32)}
}

// LoadSlot implements SlotStore.
func (s *MemoryStore) LoadSlot(slot int) (uint32, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.slots[slot]
	return id, ok, nil
}

// SaveSlot implements SlotStore.
func (s *MemoryStore) SaveSlot(slot int, id uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[slot] = id
	return nil
}

// DeleteSlot implements SlotStore.
func (s *MemoryStore) DeleteSlot(slot int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, slot)
	return nil
}
