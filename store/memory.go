package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Memory is a concurrency-safe in-memory Store. It mirrors the
// constraint behavior of the relational schema: primary keys are
// checked before business keys, so a duplicate delivery of a
// correlation-id-keyed insert reports the primary-key constraint.
type Memory struct {
	mu          sync.RWMutex
	users       map[uuid.UUID]User
	usersByName map[string]uuid.UUID
	items       map[uuid.UUID]Item
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:       make(map[uuid.UUID]User),
		usersByName: make(map[string]uuid.UUID),
		items:       make(map[uuid.UUID]Item),
	}
}

// InsertUser implements Store.
func (m *Memory) InsertUser(ctx context.Context, user User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.users[user.ID]; exists {
		return &UniqueViolation{Constraint: ConstraintUsersPK}
	}
	if _, exists := m.usersByName[user.UserName]; exists {
		return &UniqueViolation{Constraint: ConstraintUsersUserName}
	}

	m.users[user.ID] = user
	m.usersByName[user.UserName] = user.ID
	return nil
}

// InsertItem implements Store.
func (m *Memory) InsertItem(ctx context.Context, item Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.items[item.ID]; exists {
		return &UniqueViolation{Constraint: ConstraintItemsPK}
	}

	m.items[item.ID] = item
	return nil
}

// UserByName implements Store.
func (m *Memory) UserByName(ctx context.Context, userName string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.usersByName[userName]
	if !ok {
		return User{}, fmt.Errorf("user %q: %w", userName, ErrNotFound)
	}
	return m.users[id], nil
}

// ItemsByUser implements Store.
func (m *Memory) ItemsByUser(ctx context.Context, userID uuid.UUID) ([]Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]Item, 0)
	for _, item := range m.items {
		if item.UserID == userID && !item.Deleted {
			items = append(items, item)
		}
	}
	return items, nil
}

// SoftDeleteItem implements Store.
func (m *Memory) SoftDeleteItem(ctx context.Context, itemID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[itemID]
	if !ok {
		return fmt.Errorf("item %s: %w", itemID, ErrNotFound)
	}

	item.Deleted = true
	m.items[itemID] = item
	return nil
}

// SetUserRole implements Store.
func (m *Memory) SetUserRole(ctx context.Context, userID uuid.UUID, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}

	user.Role = role
	m.users[userID] = user
	return nil
}
