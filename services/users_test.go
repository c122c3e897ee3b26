package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/itemvault/itemvault-go/contracts"
	"github.com/itemvault/itemvault-go/messaging"
)

// recordingCaller answers every call with a canned result record and
// remembers what was sent.
type recordingCaller struct {
	t       *testing.T
	result  any
	err     error
	ops     []contracts.Operation
	payload any
}

func (c *recordingCaller) Call(ctx context.Context, op contracts.Operation, payload any) ([]byte, error) {
	c.ops = append(c.ops, op)
	c.payload = payload
	if c.err != nil {
		return nil, c.err
	}
	body, err := json.Marshal(c.result)
	require.NoError(c.t, err)
	return body, nil
}

func TestUserServiceRegister(t *testing.T) {
	t.Run("hashes the password before publishing", func(t *testing.T) {
		caller := &recordingCaller{t: t, result: contracts.Ok[any](nil)}
		users := NewUserService(caller)

		require.NoError(t, users.Register(context.Background(), "ada", "ada@example.com", "s3cret", ""))

		require.Equal(t, []contracts.Operation{contracts.OpRegisterUser}, caller.ops)
		sent := caller.payload.(contracts.RegisterUserPayload)
		assert.Equal(t, "ada", sent.UserName)
		assert.Equal(t, contracts.RoleUser, sent.Role, "empty role defaults to User")
		assert.NotEqual(t, "s3cret", sent.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(sent.PasswordHash), []byte("s3cret")))
	})

	t.Run("explicit role is preserved", func(t *testing.T) {
		caller := &recordingCaller{t: t, result: contracts.Ok[any](nil)}
		users := NewUserService(caller)

		require.NoError(t, users.Register(context.Background(), "ada", "ada@example.com", "s3cret", contracts.RoleAdmin))
		assert.Equal(t, contracts.RoleAdmin, caller.payload.(contracts.RegisterUserPayload).Role)
	})

	t.Run("worker rejection surfaces as a domain error", func(t *testing.T) {
		caller := &recordingCaller{t: t, result: contracts.Fail[any]("Username already exists: ada")}
		users := NewUserService(caller)

		err := users.Register(context.Background(), "ada", "ada@example.com", "s3cret", "")
		require.Error(t, err)
		assert.True(t, messaging.IsDomainError(err))
		assert.Contains(t, err.Error(), "Username already exists")
	})
}

func TestUserServiceAuthenticate(t *testing.T) {
	hash := func(t *testing.T, password string) string {
		t.Helper()
		h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		require.NoError(t, err)
		return string(h)
	}

	t.Run("correct password returns the user", func(t *testing.T) {
		want := contracts.UserData{
			ID:           uuid.New(),
			UserName:     "ada",
			Role:         contracts.RoleUser,
			PasswordHash: hash(t, "s3cret"),
		}
		users := NewUserService(&recordingCaller{t: t, result: contracts.Ok(want)})

		got, err := users.Authenticate(context.Background(), "ada", "s3cret")
		require.NoError(t, err)
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, "ada", got.UserName)
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		want := contracts.UserData{UserName: "ada", PasswordHash: hash(t, "s3cret")}
		users := NewUserService(&recordingCaller{t: t, result: contracts.Ok(want)})

		_, err := users.Authenticate(context.Background(), "ada", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown user is indistinguishable from wrong password", func(t *testing.T) {
		caller := &recordingCaller{t: t, result: contracts.Fail[contracts.UserData]("user name not exist ada")}
		users := NewUserService(caller)

		_, err := users.Authenticate(context.Background(), "ada", "s3cret")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("transport errors pass through", func(t *testing.T) {
		users := NewUserService(&recordingCaller{t: t, err: messaging.ErrTimeout})

		_, err := users.Authenticate(context.Background(), "ada", "s3cret")
		assert.ErrorIs(t, err, messaging.ErrTimeout)
		assert.NotErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestUserServiceUpgradeToAdmin(t *testing.T) {
	caller := &recordingCaller{t: t, result: contracts.Ok[any](nil)}
	users := NewUserService(caller)

	userID := uuid.New()
	require.NoError(t, users.UpgradeToAdmin(context.Background(), userID))

	require.Equal(t, []contracts.Operation{contracts.OpUpgradeToAdmin}, caller.ops)
	assert.Equal(t, userID, caller.payload.(contracts.UpgradeToAdminPayload).UserID)
}
