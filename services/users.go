package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/itemvault/itemvault-go/contracts"
	"github.com/itemvault/itemvault-go/messaging"
)

// ErrInvalidCredentials is returned by Authenticate for an unknown
// username or a wrong password. The two cases are indistinguishable on
// purpose.
var ErrInvalidCredentials = errors.New("services: invalid credentials")

// UserService exposes user operations over the broker. Passwords are
// hashed with bcrypt before they cross the wire; the worker only ever
// sees the hash.
type UserService struct {
	caller messaging.Caller
}

// NewUserService creates a user service over the given caller.
func NewUserService(caller messaging.Caller) *UserService {
	return &UserService{caller: caller}
}

// Register creates a user account. An empty role defaults to RoleUser.
func (s *UserService) Register(ctx context.Context, userName, email, password, role string) error {
	if role == "" {
		role = contracts.RoleUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = messaging.Invoke[any](ctx, s.caller, contracts.OpRegisterUser, contracts.RegisterUserPayload{
		UserName:     userName,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	})
	return err
}

// User looks a user up by username.
func (s *UserService) User(ctx context.Context, userName string) (contracts.UserData, error) {
	return messaging.Invoke[contracts.UserData](ctx, s.caller, contracts.OpGetUser, contracts.GetUserPayload{
		UserName: userName,
	})
}

// Authenticate verifies a username/password pair and returns the user
// on success. A missing user and a wrong password both surface as
// ErrInvalidCredentials; transport and timeout errors pass through
// unchanged.
func (s *UserService) Authenticate(ctx context.Context, userName, password string) (contracts.UserData, error) {
	user, err := s.User(ctx, userName)
	if err != nil {
		if messaging.IsDomainError(err) {
			return contracts.UserData{}, ErrInvalidCredentials
		}
		return contracts.UserData{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return contracts.UserData{}, ErrInvalidCredentials
	}

	return user, nil
}

// UpgradeToAdmin promotes a user to the admin role.
func (s *UserService) UpgradeToAdmin(ctx context.Context, userID uuid.UUID) error {
	_, err := messaging.Invoke[any](ctx, s.caller, contracts.OpUpgradeToAdmin, contracts.UpgradeToAdminPayload{
		UserID: userID,
	})
	return err
}
