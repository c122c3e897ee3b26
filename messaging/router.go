package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/itemvault/itemvault-go/contracts"
	"github.com/itemvault/itemvault-go/internal/rabbitmq"
	"github.com/itemvault/itemvault-go/store"
)

// Router is the worker-side request dispatcher. Each decoded request
// envelope is routed by operation tag to a handler performing one store
// operation; the handler's outcome, including panics and store errors,
// is wrapped into a result record and published to the response queue
// under the original correlation id.
//
// The envelope is still positively acknowledged when the result record
// reports success=false: a business rejection is a well-formed reply,
// not a redeliverable failure. Only a failed reply publish leaves the
// envelope unacknowledged for broker-level retry.
type Router struct {
	store         store.Store
	publisher     QueuePublisher
	responseQueue string
	logger        *slog.Logger
	metrics       *Metrics
}

// RouterOption configures the router.
type RouterOption func(*Router)

// WithResponseQueue sets the queue replies are published to.
func WithResponseQueue(queue string) RouterOption {
	return func(r *Router) {
		r.responseQueue = queue
	}
}

// WithRouterLogger sets the logger.
func WithRouterLogger(logger *slog.Logger) RouterOption {
	return func(r *Router) {
		r.logger = logger
	}
}

// WithRouterMetrics sets the metrics collector.
func WithRouterMetrics(m *Metrics) RouterOption {
	return func(r *Router) {
		r.metrics = m
	}
}

// NewRouter creates a router over the given store and reply publisher.
func NewRouter(st store.Store, publisher QueuePublisher, options ...RouterOption) *Router {
	r := &Router{
		store:         st,
		publisher:     publisher,
		responseQueue: DefaultResponseQueue,
		logger:        slog.Default(),
	}

	for _, opt := range options {
		opt(r)
	}

	return r
}

// Start subscribes the router on queue with the given consumer group.
func (r *Router) Start(ctx context.Context, group *rabbitmq.ConsumerGroup, queue string, options ...rabbitmq.SubscribeOption) error {
	return group.Subscribe(ctx, queue, JSONHandler(r.HandleRequest), options...)
}

// HandleRequest processes one request envelope and publishes the reply.
// The returned error only ever reports a failed reply publish.
func (r *Router) HandleRequest(ctx context.Context, req contracts.Request) error {
	payload, success := r.dispatch(ctx, req)
	r.metrics.requestHandled(string(req.Operation), success)

	resp := contracts.Response{
		CorrelationID: req.CorrelationID,
		Payload:       payload,
	}
	if err := r.publisher.Publish(ctx, r.responseQueue, resp); err != nil {
		return fmt.Errorf("messaging: publish %s reply: %w", req.Operation, err)
	}

	r.logger.Debug("request handled",
		"operation", req.Operation,
		"correlationId", req.CorrelationID,
		"success", success,
	)
	return nil
}

// dispatch routes by operation tag. It never fails: any panic or
// unknown tag becomes a failed result record.
func (r *Router) dispatch(ctx context.Context, req contracts.Request) (payload json.RawMessage, success bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("handler panicked",
				"operation", req.Operation,
				"correlationId", req.CorrelationID,
				"panic", rec,
			)
			payload, success = marshalResult(contracts.Fail[any]("internal error: %v", rec))
		}
	}()

	switch req.Operation {
	case contracts.OpAddItem:
		return r.addItem(ctx, req)
	case contracts.OpGetAllUserItems:
		return r.getAllUserItems(ctx, req)
	case contracts.OpDeleteItem:
		return r.deleteItem(ctx, req)
	case contracts.OpGetUser:
		return r.getUser(ctx, req)
	case contracts.OpRegisterUser:
		return r.registerUser(ctx, req)
	case contracts.OpUpgradeToAdmin:
		return r.upgradeToAdmin(ctx, req)
	default:
		return marshalResult(contracts.Fail[any]("unknown operation"))
	}
}

// addItem inserts an item keyed by the correlation id. A primary-key
// violation means this exact request was already applied by an earlier
// delivery, so it reports success with the same id.
func (r *Router) addItem(ctx context.Context, req contracts.Request) (json.RawMessage, bool) {
	var data contracts.AddItemPayload
	if err := json.Unmarshal(req.Payload, &data); err != nil {
		return marshalResult(contracts.Fail[uuid.UUID]("invalid AddItem payload: %v", err))
	}

	itemID, err := uuid.Parse(req.CorrelationID)
	if err != nil {
		return marshalResult(contracts.Fail[uuid.UUID]("invalid correlation id: %v", err))
	}

	err = r.store.InsertItem(ctx, store.Item{
		ID:     itemID,
		UserID: data.UserID,
		Name:   data.ItemName,
	})

	var uv *store.UniqueViolation
	switch {
	case err == nil:
		return marshalResult(contracts.Ok(itemID))
	case errors.As(err, &uv) && uv.Constraint == store.ConstraintItemsPK:
		// Duplicate delivery of the same request.
		return marshalResult(contracts.Ok(itemID))
	default:
		return marshalResult(contracts.Fail[uuid.UUID]("%v", err))
	}
}

// registerUser inserts a user keyed by the correlation id. A
// primary-key violation is a duplicate delivery and succeeds; a
// username collision is a genuine business failure.
func (r *Router) registerUser(ctx context.Context, req contracts.Request) (json.RawMessage, bool) {
	var data contracts.RegisterUserPayload
	if err := json.Unmarshal(req.Payload, &data); err != nil {
		return marshalResult(contracts.Fail[any]("invalid RegisterUser payload: %v", err))
	}

	userID, err := uuid.Parse(req.CorrelationID)
	if err != nil {
		return marshalResult(contracts.Fail[any]("invalid correlation id: %v", err))
	}

	err = r.store.InsertUser(ctx, store.User{
		ID:           userID,
		UserName:     data.UserName,
		Email:        data.Email,
		PasswordHash: data.PasswordHash,
		Role:         data.Role,
	})

	var uv *store.UniqueViolation
	switch {
	case err == nil:
		return marshalResult(contracts.Ok[any](nil))
	case errors.As(err, &uv) && uv.Constraint == store.ConstraintUsersPK:
		return marshalResult(contracts.Result[any]{
			Success: true,
			Error:   fmt.Sprintf("user %s already exists, duplicate delivery", userID),
		})
	case errors.As(err, &uv) && uv.Constraint == store.ConstraintUsersUserName:
		return marshalResult(contracts.Fail[any]("Username already exists: %s", data.UserName))
	case errors.As(err, &uv):
		return marshalResult(contracts.Fail[any]("unique constraint violation on users"))
	default:
		return marshalResult(contracts.Fail[any]("%v", err))
	}
}

func (r *Router) getUser(ctx context.Context, req contracts.Request) (json.RawMessage, bool) {
	var data contracts.GetUserPayload
	if err := json.Unmarshal(req.Payload, &data); err != nil {
		return marshalResult(contracts.Fail[contracts.UserData]("invalid GetUser payload: %v", err))
	}

	user, err := r.store.UserByName(ctx, data.UserName)
	switch {
	case err == nil:
		return marshalResult(contracts.Ok(contracts.UserData{
			ID:           user.ID,
			UserName:     user.UserName,
			Email:        user.Email,
			Role:         user.Role,
			PasswordHash: user.PasswordHash,
		}))
	case errors.Is(err, store.ErrNotFound):
		return marshalResult(contracts.Fail[contracts.UserData]("user name not exist %s", data.UserName))
	default:
		return marshalResult(contracts.Fail[contracts.UserData]("%v", err))
	}
}

func (r *Router) getAllUserItems(ctx context.Context, req contracts.Request) (json.RawMessage, bool) {
	var data contracts.GetItemsPayload
	if err := json.Unmarshal(req.Payload, &data); err != nil {
		return marshalResult(contracts.Fail[[]contracts.ItemData]("invalid GetAllUserItems payload: %v", err))
	}

	items, err := r.store.ItemsByUser(ctx, data.UserID)
	if err != nil {
		return marshalResult(contracts.Fail[[]contracts.ItemData]("%v", err))
	}

	projected := make([]contracts.ItemData, 0, len(items))
	for _, item := range items {
		projected = append(projected, contracts.ItemData{ID: item.ID, Name: item.Name})
	}
	return marshalResult(contracts.Ok(projected))
}

func (r *Router) deleteItem(ctx context.Context, req contracts.Request) (json.RawMessage, bool) {
	var data contracts.DeleteItemPayload
	if err := json.Unmarshal(req.Payload, &data); err != nil {
		return marshalResult(contracts.Fail[any]("invalid DeleteItem payload: %v", err))
	}

	err := r.store.SoftDeleteItem(ctx, data.ItemID)
	switch {
	case err == nil:
		return marshalResult(contracts.Ok[any](nil))
	case errors.Is(err, store.ErrNotFound):
		return marshalResult(contracts.Fail[any]("Item id: %s not exist", data.ItemID))
	default:
		return marshalResult(contracts.Fail[any]("%v", err))
	}
}

func (r *Router) upgradeToAdmin(ctx context.Context, req contracts.Request) (json.RawMessage, bool) {
	var data contracts.UpgradeToAdminPayload
	if err := json.Unmarshal(req.Payload, &data); err != nil {
		return marshalResult(contracts.Fail[any]("invalid UpgradeToAdmin payload: %v", err))
	}

	err := r.store.SetUserRole(ctx, data.UserID, contracts.RoleAdmin)
	switch {
	case err == nil:
		return marshalResult(contracts.Ok[any](nil))
	case errors.Is(err, store.ErrNotFound):
		return marshalResult(contracts.Fail[any]("user id: %s not exist", data.UserID))
	default:
		return marshalResult(contracts.Fail[any]("%v", err))
	}
}

// marshalResult serializes a result record for the response envelope.
func marshalResult[T any](result contracts.Result[T]) (json.RawMessage, bool) {
	body, err := json.Marshal(result)
	if err != nil {
		body, _ = json.Marshal(contracts.Fail[any]("encode result: %v", err))
		return body, false
	}
	return body, result.Success
}
