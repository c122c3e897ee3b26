package messaging

import (
	"errors"
	"fmt"

	"github.com/itemvault/itemvault-go/contracts"
)

var (
	// ErrTimeout is returned when no reply arrives within the call
	// deadline. The worker may still complete the operation; its
	// eventual reply is dropped.
	ErrTimeout = errors.New("messaging: no response from worker within deadline")

	// ErrBrokerUnavailable is returned when the request could not be
	// handed to the broker.
	ErrBrokerUnavailable = errors.New("messaging: broker unavailable")
)

// DomainError carries a business-level failure reported by the worker
// inside a result record. It is data, not a transport failure: the
// request was delivered, processed, and rejected.
type DomainError struct {
	Operation contracts.Operation
	Message   string
}

func (e *DomainError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("messaging: %s rejected", e.Operation)
	}
	return fmt.Sprintf("messaging: %s rejected: %s", e.Operation, e.Message)
}

// IsDomainError reports whether err is a worker-reported business
// failure rather than a transport problem.
func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}
