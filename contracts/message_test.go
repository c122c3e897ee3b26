package contracts

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperationValid(t *testing.T) {
	t.Run("accepts every known tag", func(t *testing.T) {
		for _, op := range []Operation{
			OpRegisterUser, OpAddItem, OpDeleteItem,
			OpGetAllUserItems, OpGetUser, OpUpgradeToAdmin,
		} {
			assert.True(t, op.Valid(), "operation %s", op)
		}
	})

	t.Run("rejects unknown tags", func(t *testing.T) {
		assert.False(t, Operation("DropTables").Valid())
		assert.False(t, Operation("").Valid())
	})
}

func TestNewRequest(t *testing.T) {
	t.Run("wraps serialized payload", func(t *testing.T) {
		userID := uuid.New()
		req, err := NewRequest("corr-1", OpAddItem, AddItemPayload{
			UserID:   userID,
			ItemName: "pen",
		})
		require.NoError(t, err)

		assert.Equal(t, "corr-1", req.CorrelationID)
		assert.Equal(t, OpAddItem, req.Operation)

		var payload AddItemPayload
		require.NoError(t, json.Unmarshal(req.Payload, &payload))
		assert.Equal(t, userID, payload.UserID)
		assert.Equal(t, "pen", payload.ItemName)
	})

	t.Run("rejects unmarshalable payload", func(t *testing.T) {
		_, err := NewRequest("corr-1", OpAddItem, make(chan int))
		assert.Error(t, err)
	})
}

func TestResultRoundTrip(t *testing.T) {
	t.Run("successful result with value", func(t *testing.T) {
		id := uuid.New()
		body, err := json.Marshal(Ok(id))
		require.NoError(t, err)

		decoded, err := DecodeResult[uuid.UUID](body)
		require.NoError(t, err)
		assert.True(t, decoded.Success)
		assert.Equal(t, id, decoded.Result)
		assert.Empty(t, decoded.Error)
	})

	t.Run("successful result with slice value", func(t *testing.T) {
		items := []ItemData{
			{ID: uuid.New(), Name: "pen"},
			{ID: uuid.New(), Name: "book"},
		}
		body, err := json.Marshal(Ok(items))
		require.NoError(t, err)

		decoded, err := DecodeResult[[]ItemData](body)
		require.NoError(t, err)
		assert.True(t, decoded.Success)
		assert.Equal(t, items, decoded.Result)
	})

	t.Run("failed result carries the formatted error", func(t *testing.T) {
		body, err := json.Marshal(Fail[uuid.UUID]("item id: %s not exist", "abc"))
		require.NoError(t, err)

		decoded, err := DecodeResult[uuid.UUID](body)
		require.NoError(t, err)
		assert.False(t, decoded.Success)
		assert.Equal(t, "item id: abc not exist", decoded.Error)
		assert.Equal(t, uuid.Nil, decoded.Result)
	})

	t.Run("failure result with empty error is representable", func(t *testing.T) {
		body, err := json.Marshal(Result[any]{Success: false})
		require.NoError(t, err)

		decoded, err := DecodeResult[any](body)
		require.NoError(t, err)
		assert.False(t, decoded.Success)
		assert.Empty(t, decoded.Error)
	})

	t.Run("rejects malformed payload", func(t *testing.T) {
		_, err := DecodeResult[uuid.UUID]([]byte("{not json"))
		assert.Error(t, err)
	})
}

func TestNewResponse(t *testing.T) {
	resp, err := NewResponse("corr-9", Ok("done"))
	require.NoError(t, err)
	assert.Equal(t, "corr-9", resp.CorrelationID)

	decoded, err := DecodeResult[string](resp.Payload)
	require.NoError(t, err)
	assert.True(t, decoded.Success)
	assert.Equal(t, "done", decoded.Result)
}
