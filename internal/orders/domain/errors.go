package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is matched by every NotFoundError.
var ErrNotFound = errors.New("not found")

// ValidationError reports malformed or missing input. Message is safe to show to callers.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError reports a missing order, session or product.
type NotFoundError struct {
	Resource string
	Key      string
}

func NewNotFoundError(resource, key string) *NotFoundError {
	return &NotFoundError{Resource: resource, Key: key}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// SignatureVerificationError reports an inbound event that failed authentication or parsing.
type SignatureVerificationError struct {
	Reason string
	Err    error
}

func (e *SignatureVerificationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("signature verification failed: %s: %v", e.Reason, e.Err)
	}
	return "signature verification failed: " + e.Reason
}

func (e *SignatureVerificationError) Unwrap() error {
	return e.Err
}

// UpstreamGatewayError wraps a failed or timed-out payment gateway call.
type UpstreamGatewayError struct {
	Op  string
	Err error
}

func (e *UpstreamGatewayError) Error() string {
	return fmt.Sprintf("payment gateway %s: %v", e.Op, e.Err)
}

func (e *UpstreamGatewayError) Unwrap() error {
	return e.Err
}

// PartialFailureError reports a checkout session that exists at the gateway
// without a matching local order. It needs manual reconciliation.
type PartialFailureError struct {
	SessionID string
	Err       error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("checkout session %s created but order was not stored: %v", e.SessionID, e.Err)
}

func (e *PartialFailureError) Unwrap() error {
	return e.Err
}
