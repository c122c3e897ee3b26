package contracts

import "github.com/google/uuid"

// Role values carried in RegisterUserPayload and UserData.
const (
	RoleUser  = "User"
	RoleAdmin = "Admin"
)

// AddItemPayload asks the worker to insert an item owned by UserID.
// The inserted item's id is the request's correlation id.
type AddItemPayload struct {
	UserID   uuid.UUID `json:"userId"`
	ItemName string    `json:"itemName"`
}

// GetItemsPayload asks for all non-deleted items of one user.
type GetItemsPayload struct {
	UserID uuid.UUID `json:"userId"`
}

// DeleteItemPayload asks for a soft delete of one item.
type DeleteItemPayload struct {
	ItemID uuid.UUID `json:"itemId"`
}

// GetUserPayload looks a user up by username.
type GetUserPayload struct {
	UserName string `json:"userName"`
}

// RegisterUserPayload asks the worker to insert a user. The password is
// already hashed by the caller; the new user's id is the request's
// correlation id.
type RegisterUserPayload struct {
	UserName     string `json:"userName"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
	Role         string `json:"role"`
}

// UpgradeToAdminPayload promotes one user to the admin role.
type UpgradeToAdminPayload struct {
	UserID uuid.UUID `json:"userId"`
}

// UserData is the user projection returned by GetUser.
type UserData struct {
	ID           uuid.UUID `json:"id"`
	UserName     string    `json:"userName"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"passwordHash"`
}

// ItemData is the item projection returned by GetAllUserItems.
type ItemData struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}
