package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/itemvault/itemvault-go/contracts"
	"github.com/itemvault/itemvault-go/messaging"
)

// ItemService exposes item operations over the broker.
type ItemService struct {
	caller messaging.Caller
}

// NewItemService creates an item service over the given caller.
func NewItemService(caller messaging.Caller) *ItemService {
	return &ItemService{caller: caller}
}

// AddItem stores a new item for userID and returns the id the worker
// assigned to it (the call's correlation id).
func (s *ItemService) AddItem(ctx context.Context, userID uuid.UUID, itemName string) (uuid.UUID, error) {
	return messaging.Invoke[uuid.UUID](ctx, s.caller, contracts.OpAddItem, contracts.AddItemPayload{
		UserID:   userID,
		ItemName: itemName,
	})
}

// Items returns the user's non-deleted items.
func (s *ItemService) Items(ctx context.Context, userID uuid.UUID) ([]contracts.ItemData, error) {
	items, err := messaging.Invoke[[]contracts.ItemData](ctx, s.caller, contracts.OpGetAllUserItems, contracts.GetItemsPayload{
		UserID: userID,
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []contracts.ItemData{}
	}
	return items, nil
}

// SoftDelete marks an item deleted.
func (s *ItemService) SoftDelete(ctx context.Context, itemID uuid.UUID) error {
	_, err := messaging.Invoke[any](ctx, s.caller, contracts.OpDeleteItem, contracts.DeleteItemPayload{
		ItemID: itemID,
	})
	return err
}
