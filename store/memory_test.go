package store

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryInsertUser(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate id reports the primary key constraint", func(t *testing.T) {
		m := NewMemory()
		user := User{ID: uuid.New(), UserName: "ada"}
		require.NoError(t, m.InsertUser(ctx, user))

		err := m.InsertUser(ctx, user)
		var uv *UniqueViolation
		require.ErrorAs(t, err, &uv)
		assert.Equal(t, ConstraintUsersPK, uv.Constraint)
	})

	t.Run("duplicate username reports the username constraint", func(t *testing.T) {
		m := NewMemory()
		require.NoError(t, m.InsertUser(ctx, User{ID: uuid.New(), UserName: "ada"}))

		err := m.InsertUser(ctx, User{ID: uuid.New(), UserName: "ada"})
		var uv *UniqueViolation
		require.ErrorAs(t, err, &uv)
		assert.Equal(t, ConstraintUsersUserName, uv.Constraint)
	})

	t.Run("same id and username reports the primary key first", func(t *testing.T) {
		m := NewMemory()
		user := User{ID: uuid.New(), UserName: "ada"}
		require.NoError(t, m.InsertUser(ctx, user))

		err := m.InsertUser(ctx, user)
		var uv *UniqueViolation
		require.ErrorAs(t, err, &uv)
		assert.Equal(t, ConstraintUsersPK, uv.Constraint)
	})
}

func TestMemoryUserByName(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	user := User{ID: uuid.New(), UserName: "ada", Email: "ada@example.com", Role: "User"}
	require.NoError(t, m.InsertUser(ctx, user))

	got, err := m.UserByName(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, user, got)

	_, err = m.UserByName(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryItems(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate item id reports the primary key constraint", func(t *testing.T) {
		m := NewMemory()
		item := Item{ID: uuid.New(), UserID: uuid.New(), Name: "pen"}
		require.NoError(t, m.InsertItem(ctx, item))

		err := m.InsertItem(ctx, item)
		var uv *UniqueViolation
		require.ErrorAs(t, err, &uv)
		assert.Equal(t, ConstraintItemsPK, uv.Constraint)
	})

	t.Run("query filters by owner and soft-delete flag", func(t *testing.T) {
		m := NewMemory()
		owner := uuid.New()
		other := uuid.New()

		kept := Item{ID: uuid.New(), UserID: owner, Name: "pen"}
		gone := Item{ID: uuid.New(), UserID: owner, Name: "book"}
		require.NoError(t, m.InsertItem(ctx, kept))
		require.NoError(t, m.InsertItem(ctx, gone))
		require.NoError(t, m.InsertItem(ctx, Item{ID: uuid.New(), UserID: other, Name: "lamp"}))

		require.NoError(t, m.SoftDeleteItem(ctx, gone.ID))

		items, err := m.ItemsByUser(ctx, owner)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, kept.ID, items[0].ID)
	})

	t.Run("query for unknown owner returns an empty slice", func(t *testing.T) {
		m := NewMemory()
		items, err := m.ItemsByUser(ctx, uuid.New())
		require.NoError(t, err)
		assert.NotNil(t, items)
		assert.Empty(t, items)
	})

	t.Run("soft delete misses with ErrNotFound", func(t *testing.T) {
		m := NewMemory()
		assert.ErrorIs(t, m.SoftDeleteItem(ctx, uuid.New()), ErrNotFound)
	})

	t.Run("soft delete of a deleted item succeeds", func(t *testing.T) {
		m := NewMemory()
		item := Item{ID: uuid.New(), UserID: uuid.New(), Name: "pen"}
		require.NoError(t, m.InsertItem(ctx, item))
		require.NoError(t, m.SoftDeleteItem(ctx, item.ID))
		assert.NoError(t, m.SoftDeleteItem(ctx, item.ID))
	})
}

func TestMemorySetUserRole(t *testing.T) {
	ctx := context.Background()

	t.Run("updates the stored role", func(t *testing.T) {
		m := NewMemory()
		user := User{ID: uuid.New(), UserName: "ada", Role: "User"}
		require.NoError(t, m.InsertUser(ctx, user))

		require.NoError(t, m.SetUserRole(ctx, user.ID, "Admin"))

		got, err := m.UserByName(ctx, "ada")
		require.NoError(t, err)
		assert.Equal(t, "Admin", got.Role)
	})

	t.Run("misses with ErrNotFound", func(t *testing.T) {
		m := NewMemory()
		assert.ErrorIs(t, m.SetUserRole(ctx, uuid.New(), "Admin"), ErrNotFound)
	})
}

func TestMemoryConcurrentInserts(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	id := uuid.New()

	const racers = 16
	var wg sync.WaitGroup
	results := make(chan error, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- m.InsertItem(ctx, Item{ID: id, UserID: uuid.New(), Name: "pen"})
		}()
	}
	wg.Wait()
	close(results)

	var successes, violations int
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		var uv *UniqueViolation
		require.ErrorAs(t, err, &uv)
		violations++
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, racers-1, violations)
}
