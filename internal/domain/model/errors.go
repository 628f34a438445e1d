package model

import (
	"errors"
	"fmt"
)

var (
	// ErrStaleData is returned by cache reads past the record's TTL.
	ErrStaleData = errors.New("cached record is stale")
	// ErrNoData is returned by cache reads for unknown keys.
	ErrNoData = errors.New("no cached record")
	// ErrRequestTimeout is the local resolution of an unanswered request.
	ErrRequestTimeout = errors.New("request timed out")
	// ErrWaitTimeout is returned when a terminal-state wait expires.
	ErrWaitTimeout = errors.New("wait for terminal state timed out")
	// ErrOrderNotFound is returned for unknown order ids.
	ErrOrderNotFound = errors.New("order not found")
	// ErrReconnectExhausted is the one fatal connectivity condition.
	ErrReconnectExhausted = errors.New("reconnect attempts exhausted")
	// ErrNotConnected is returned when a send has no usable connection.
	ErrNotConnected = errors.New("connection not established")
)

// RiskError reports an order blocked by a pre-trade risk limit. Like
// validation failures it is returned before any network activity.
type RiskError struct {
	Limit  string
	Reason string
}

func (e *RiskError) Error() string {
	return fmt.Sprintf("risk limit %s: %s", e.Limit, e.Reason)
}

// ValidationError reports caller-supplied bad order parameters. Returned
// synchronously, before any network activity.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// VenueError is a server-returned failure for a correlated request.
type VenueError struct {
	Method  string
	Message string
}

func (e *VenueError) Error() string {
	return fmt.Sprintf("venue rejected %s: %s", e.Method, e.Message)
}

// AuthError reports a failed private-connection login.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return "authentication failed: " + e.Message
}
