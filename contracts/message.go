package contracts

import (
	"encoding/json"
	"fmt"
)

// Operation identifies one worker-side operation. The set is closed:
// adding an operation means extending this list and the router's
// dispatch switch together.
type Operation string

const (
	OpRegisterUser    Operation = "RegisterUser"
	OpAddItem         Operation = "AddItem"
	OpDeleteItem      Operation = "DeleteItem"
	OpGetAllUserItems Operation = "GetAllUserItems"
	OpGetUser         Operation = "GetUser"
	OpUpgradeToAdmin  Operation = "UpgradeToAdmin"
)

// Valid reports whether op is one of the known operation tags.
func (op Operation) Valid() bool {
	switch op {
	case OpRegisterUser, OpAddItem, OpDeleteItem, OpGetAllUserItems, OpGetUser, OpUpgradeToAdmin:
		return true
	}
	return false
}

// Request is the envelope published to the request queue. Payload is
// the operation-specific record, already serialized, so the envelope
// itself decodes without knowing the operation.
type Request struct {
	CorrelationID string          `json:"correlationId"`
	Operation     Operation       `json:"operation"`
	Payload       json.RawMessage `json:"payload"`
}

// Response is the envelope published to the response queue. Payload is
// a serialized Result record.
type Response struct {
	CorrelationID string          `json:"correlationId"`
	Payload       json.RawMessage `json:"payload"`
}

// Result is the outcome record a worker handler produces.
//
// Success == false implies Result is absent. Error may be empty even on
// failure for expected negative outcomes, and may be non-empty on
// success (duplicate-delivery notes).
type Result[T any] struct {
	Success bool   `json:"success"`
	Result  T      `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Ok builds a successful result carrying v.
func Ok[T any](v T) Result[T] {
	return Result[T]{Success: true, Result: v}
}

// Fail builds a failed result with a human-readable description.
func Fail[T any](format string, args ...any) Result[T] {
	return Result[T]{Success: false, Error: fmt.Sprintf(format, args...)}
}

// NewRequest serializes payload and wraps it in a Request envelope.
func NewRequest(correlationID string, op Operation, payload any) (Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Request{}, fmt.Errorf("contracts: marshal %s payload: %w", op, err)
	}
	return Request{
		CorrelationID: correlationID,
		Operation:     op,
		Payload:       body,
	}, nil
}

// NewResponse serializes a result record and wraps it in a Response
// envelope under the originating correlation id.
func NewResponse[T any](correlationID string, result Result[T]) (Response, error) {
	body, err := json.Marshal(result)
	if err != nil {
		return Response{}, fmt.Errorf("contracts: marshal result: %w", err)
	}
	return Response{
		CorrelationID: correlationID,
		Payload:       body,
	}, nil
}

// DecodeResult decodes a serialized Result record.
func DecodeResult[T any](payload []byte) (Result[T], error) {
	var r Result[T]
	if err := json.Unmarshal(payload, &r); err != nil {
		return Result[T]{}, fmt.Errorf("contracts: decode result: %w", err)
	}
	return r, nil
}
