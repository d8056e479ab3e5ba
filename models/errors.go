package models

import (
	"errors"
	"fmt"
)

// ErrInvalidReference is returned when an operation targets a clip id that is
// not part of the current clip collection.
var ErrInvalidReference = errors.New("clip not found in current collection")

// TransportError is the normalized failure for every backend operation. The
// media client never swallows a failure; it always surfaces one of these and
// leaves recovery to the session controller.
type TransportError struct {
	StatusCode int    `json:"status_code,omitempty"`
	Message    string `json:"message"`
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("backend request failed (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend request failed: %s", e.Message)
}

// InvalidStateError indicates an operation was attempted while a conflicting
// operation of the same kind is in flight, or a precondition is unmet
// (e.g. export with an empty selection).
type InvalidStateError struct {
	Op     string
	Reason string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s rejected: %s", e.Op, e.Reason)
}
