// Package store defines the worker-side persistence boundary.
//
// The router depends on exactly three behaviors: insert an entity and
// fail with a UniqueViolation naming the violated constraint on a
// duplicate key, update an entity by id returning ErrNotFound when
// absent, and query entities by owner filtered by the soft-delete flag.
// The constraint names follow the Postgres schema of the production
// deployment; Memory is the in-process reference implementation.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Constraint names reported by UniqueViolation.
const (
	ConstraintUsersPK       = "users_pkey"
	ConstraintUsersUserName = "users_username_key"
	ConstraintItemsPK       = "items_pkey"
)

// ErrNotFound is wrapped by lookups and updates that miss.
var ErrNotFound = errors.New("store: not found")

// UniqueViolation reports a duplicate-key insert, naming the violated
// constraint so callers can tell a primary-key duplicate (harmless
// redelivery) from a business-key collision.
type UniqueViolation struct {
	Constraint string
}

func (e *UniqueViolation) Error() string {
	return fmt.Sprintf("store: unique violation on %s", e.Constraint)
}

// User is a registered account. ID equals the correlation id of the
// RegisterUser request that created it.
type User struct {
	ID           uuid.UUID
	UserName     string
	Email        string
	PasswordHash string
	Role         string
}

// Item is a stored item. ID equals the correlation id of the AddItem
// request that created it. Deleted items stay in the store but are
// excluded from queries.
type Item struct {
	ID      uuid.UUID
	UserID  uuid.UUID
	Name    string
	Deleted bool
}

// Store is the persistence contract consumed by the request router.
type Store interface {
	// InsertUser adds a user. Duplicate id fails with
	// UniqueViolation{ConstraintUsersPK}; duplicate username with
	// UniqueViolation{ConstraintUsersUserName}.
	InsertUser(ctx context.Context, user User) error

	// InsertItem adds an item. Duplicate id fails with
	// UniqueViolation{ConstraintItemsPK}.
	InsertItem(ctx context.Context, item Item) error

	// UserByName returns the user with the given username or a
	// wrapped ErrNotFound.
	UserByName(ctx context.Context, userName string) (User, error)

	// ItemsByUser returns the non-deleted items owned by userID.
	ItemsByUser(ctx context.Context, userID uuid.UUID) ([]Item, error)

	// SoftDeleteItem marks an item deleted or returns a wrapped
	// ErrNotFound. Deleting an already-deleted item succeeds.
	SoftDeleteItem(ctx context.Context, itemID uuid.UUID) error

	// SetUserRole updates a user's role or returns a wrapped
	// ErrNotFound.
	SetUserRole(ctx context.Context, userID uuid.UUID, role string) error
}
