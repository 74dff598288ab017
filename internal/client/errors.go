package client

import (
	"errors"
	"fmt"
)

// ErrNoDefault is returned when the backend has no saved default portfolio.
var ErrNoDefault = errors.New("no default portfolio saved")

// RemoteError is a failed performance call: a non-2xx answer or a transport
// failure other than cancellation.
type RemoteError struct {
	Status int // 0 for transport failures
	Detail string
	Err    error
}

func (e *RemoteError) Error() string {
	switch {
	case e.Status != 0 && e.Detail != "":
		return fmt.Sprintf("performance request failed (%d): %s", e.Status, e.Detail)
	case e.Status != 0:
		return fmt.Sprintf("performance request failed (%d)", e.Status)
	case e.Err != nil:
		return fmt.Sprintf("performance request failed: %v", e.Err)
	default:
		return "performance request failed"
	}
}

func (e *RemoteError) Unwrap() error { return e.Err }

// PersistenceError is a failed read or write of the default portfolio.
// Detail carries the backend's human-readable message when it sent one.
type PersistenceError struct {
	Status int
	Detail string
	Err    error
}

func (e *PersistenceError) Error() string {
	switch {
	case e.Detail != "":
		return e.Detail
	case e.Err != nil:
		return fmt.Sprintf("default portfolio request failed: %v", e.Err)
	default:
		return fmt.Sprintf("default portfolio request failed (%d)", e.Status)
	}
}

func (e *PersistenceError) Unwrap() error { return e.Err }
