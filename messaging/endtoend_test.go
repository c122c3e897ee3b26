package messaging_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itemvault/itemvault-go/contracts"
	"github.com/itemvault/itemvault-go/messaging"
	"github.com/itemvault/itemvault-go/services"
	"github.com/itemvault/itemvault-go/store"
)

// loopbackExchange stands in for the broker and both queues: request
// envelopes go straight into the router, response envelopes straight
// into the correlation table, the same wiring the response listener
// performs in production.
type loopbackExchange struct {
	router *messaging.Router
	table  *messaging.CorrelationTable
}

func (x *loopbackExchange) Publish(ctx context.Context, queue string, message any) error {
	switch msg := message.(type) {
	case contracts.Request:
		go func() {
			_ = x.router.HandleRequest(ctx, msg)
		}()
	case contracts.Response:
		x.table.Resolve(msg.CorrelationID, msg.Payload)
	}
	return nil
}

func newLoopback(t *testing.T) (*messaging.RPCClient, *messaging.CorrelationTable) {
	t.Helper()
	table := messaging.NewCorrelationTable()
	exchange := &loopbackExchange{table: table}
	exchange.router = messaging.NewRouter(store.NewMemory(), exchange)

	client := messaging.NewRPCClient(exchange, table, messaging.WithCallTimeout(2*time.Second))
	return client, table
}

func TestEndToEndExchange(t *testing.T) {
	ctx := context.Background()
	client, table := newLoopback(t)

	users := services.NewUserService(client)
	items := services.NewItemService(client)

	require.NoError(t, users.Register(ctx, "ada", "ada@example.com", "s3cret", ""))

	user, err := users.Authenticate(ctx, "ada", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "ada", user.UserName)
	assert.Equal(t, contracts.RoleUser, user.Role)

	pen, err := items.AddItem(ctx, user.ID, "pen")
	require.NoError(t, err)
	book, err := items.AddItem(ctx, user.ID, "book")
	require.NoError(t, err)
	assert.NotEqual(t, pen, book)

	require.NoError(t, items.SoftDelete(ctx, book))

	list, err := items.Items(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, pen, list[0].ID)
	assert.Equal(t, "pen", list[0].Name)

	missing := uuid.New()
	err = items.SoftDelete(ctx, missing)
	require.Error(t, err)
	assert.True(t, messaging.IsDomainError(err))
	assert.Contains(t, err.Error(), "Item id: "+missing.String()+" not exist")

	assert.Equal(t, 0, table.Len(), "every exchange must drain its waiter")
}

func TestEndToEndConcurrentCallers(t *testing.T) {
	ctx := context.Background()
	client, table := newLoopback(t)

	users := services.NewUserService(client)
	items := services.NewItemService(client)

	require.NoError(t, users.Register(ctx, "ada", "ada@example.com", "s3cret", ""))
	user, err := users.User(ctx, "ada")
	require.NoError(t, err)

	const callers = 16
	ids := make(chan uuid.UUID, callers)
	errs := make(chan error, callers)

	for i := 0; i < callers; i++ {
		go func() {
			id, err := items.AddItem(ctx, user.ID, "pen")
			ids <- id
			errs <- err
		}()
	}

	seen := make(map[uuid.UUID]bool)
	for i := 0; i < callers; i++ {
		require.NoError(t, <-errs)
		id := <-ids
		assert.False(t, seen[id], "item ids must be unique per call")
		seen[id] = true
	}

	list, err := items.Items(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, list, callers)
	assert.Equal(t, 0, table.Len())
}
