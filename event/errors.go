// Package event implements the event messaging pattern (spec.md §4.3):
// notifiers set bits in a listener's shared pending-id bitmap and ring its
// Doorbell; listeners wait on their Doorbell and drain the bitmap.
package event

import (
	"errors"
	"fmt"
)

// WaitErrorKind enumerates spec.md §7's "Event wait" taxonomy. Timeout and
// empty are explicitly not errors: the wait-one methods return
// (0, false, nil) and the wait-all methods return (nil, nil) instead.
type WaitErrorKind int

const (
	WaitInterruptSignal WaitErrorKind = iota
	WaitInternalFailure
)

func (k WaitErrorKind) String() string {
	switch k {
	case WaitInterruptSignal:
		return "InterruptSignal"
	case WaitInternalFailure:
		return "InternalFailure"
	default:
		return "Unknown"
	}
}

// WaitError reports a listener wait failure.
type WaitError struct {
	Kind   WaitErrorKind
	Detail string
}

func (e *WaitError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("iox2/event: wait: %s: %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("iox2/event: wait: %s", e.Kind)
}

func newWaitError(kind WaitErrorKind, detail string) *WaitError {
	return &WaitError{Kind: kind, Detail: detail}
}

// IsWaitErrorKind reports whether err is a *WaitError of the given kind.
func IsWaitErrorKind(err error, kind WaitErrorKind) bool {
	var we *WaitError
	if errors.As(err, &we) {
		return we.Kind == kind
	}
	return false
}

// ErrEventIDOutOfRange is returned by NotifyWithCustomEventID when id falls
// outside [0, event_id_max_value] (spec.md §4.3).
var ErrEventIDOutOfRange = errors.New("iox2/event: event id is outside the service's configured range")
