package session

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Manager serializes all access to a session. Two requests for the same
// session id never run their Update callbacks concurrently; different
// sessions never block each other.
type Manager struct {
	store Store
	locks Locker
	now   func() time.Time
}

// NewManager serializes sessions within this process. Use NewManagerWithLocker
// when several replicas share the store.
func NewManager(store Store) *Manager {
	return NewManagerWithLocker(store, newKeyedMutex())
}

func NewManagerWithLocker(store Store, locks Locker) *Manager {
	return &Manager{
		store: store,
		locks: locks,
		now:   time.Now,
	}
}

// Update loads the session (creating it if absent), runs fn with the session
// locked, and persists the state when fn returns nil. If fn fails nothing is
// written and fn's error is returned as is.
func (m *Manager) Update(ctx context.Context, id string, fn func(*State) error) error {
	return m.UpdateStaged(ctx, id, func(state *State, _ func() error) error {
		return fn(state)
	})
}

// UpdateStaged is Update for callers that must make part of their change
// durable before going on, such as recording an order attempt before the
// order service is called. save writes the current state immediately.
func (m *Manager) UpdateStaged(ctx context.Context, id string, fn func(state *State, save func() error) error) error {
	unlock, err := m.locks.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	state, err := m.load(ctx, id)
	if err != nil {
		return err
	}
	save := func() error { return m.persist(ctx, state) }
	if err := fn(state, save); err != nil {
		return err
	}
	return m.persist(ctx, state)
}

// persist writes even if the caller went away while the lock was held.
func (m *Manager) persist(ctx context.Context, state *State) error {
	state.UpdatedAt = m.now()
	if err := m.store.Set(context.WithoutCancel(ctx), state); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// View returns a copy of the session state. A missing session yields a fresh,
// empty state that is not persisted.
func (m *Manager) View(ctx context.Context, id string) (*State, error) {
	unlock, err := m.locks.Lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return m.load(ctx, id)
}

func (m *Manager) Delete(ctx context.Context, id string) error {
	unlock, err := m.locks.Lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	return m.store.Delete(ctx, id)
}

func (m *Manager) load(ctx context.Context, id string) (*State, error) {
	state, err := m.store.Get(ctx, id)
	if errors.Is(err, ErrSessionNotFound) {
		return newState(id, m.now()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return state, nil
}
