package iox2

import (
	"errors"
	"fmt"
)

// OpenError is the closed set of failures a service open can produce
// (spec.md §7). It carries the service name so callers logging the failure
// don't need to thread it through separately.
type OpenError struct {
	Service ServiceName
	Kind    OpenErrorKind
	Detail  string
	Cause   error
}

// OpenErrorKind enumerates spec.md §7's "Service open" taxonomy.
type OpenErrorKind int

const (
	OpenDoesNotExist OpenErrorKind = iota
	OpenInsufficientPermissions
	OpenServiceInCorruptedState
	OpenIncompatibleMessagingPattern
	OpenIncompatibleAttributes
	OpenHangsInCreation
	OpenIsMarkedForDestruction
	OpenExceedsMaxNumberOfNodes
	OpenDoesNotSupportRequestedAmountOfPublishers
	OpenDoesNotSupportRequestedAmountOfSubscribers
	OpenDoesNotSupportRequestedAmountOfNotifiers
	OpenDoesNotSupportRequestedAmountOfListeners
	OpenDoesNotSupportRequestedAmountOfNodes
	OpenDoesNotSupportRequestedMaxEventID
	OpenInternalFailure
)

func (k OpenErrorKind) String() string {
	names := map[OpenErrorKind]string{
		OpenDoesNotExist:                               "DoesNotExist",
		OpenInsufficientPermissions:                    "InsufficientPermissions",
		OpenServiceInCorruptedState:                     "ServiceInCorruptedState",
		OpenIncompatibleMessagingPattern:                "IncompatibleMessagingPattern",
		OpenIncompatibleAttributes:                      "IncompatibleAttributes",
		OpenHangsInCreation:                             "HangsInCreation",
		OpenIsMarkedForDestruction:                       "IsMarkedForDestruction",
		OpenExceedsMaxNumberOfNodes:                      "ExceedsMaxNumberOfNodes",
		OpenDoesNotSupportRequestedAmountOfPublishers:    "DoesNotSupportRequestedAmountOfPublishers",
		OpenDoesNotSupportRequestedAmountOfSubscribers:   "DoesNotSupportRequestedAmountOfSubscribers",
		OpenDoesNotSupportRequestedAmountOfNotifiers:     "DoesNotSupportRequestedAmountOfNotifiers",
		OpenDoesNotSupportRequestedAmountOfListeners:     "DoesNotSupportRequestedAmountOfListeners",
		OpenDoesNotSupportRequestedAmountOfNodes:         "DoesNotSupportRequestedAmountOfNodes",
		OpenDoesNotSupportRequestedMaxEventID:            "DoesNotSupportRequestedMaxEventId",
		OpenInternalFailure:                              "InternalFailure",
	}
	if s, ok := names[k]; ok {
		return s
	}
	return "Unknown"
}

func (e *OpenError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("iox2: open %q: %s: %s", e.Service.String(), e.Kind, e.Detail)
	}
	return fmt.Sprintf("iox2: open %q: %s", e.Service.String(), e.Kind)
}

// Unwrap exposes the substrate error (a shm/lifecycle sentinel, typically)
// this OpenError was built from, so errors.Is/As against that sentinel still
// works once it's wrapped for a caller.
func (e *OpenError) Unwrap() error { return e.Cause }

func newOpenError(name ServiceName, kind OpenErrorKind, detail string) *OpenError {
	return &OpenError{Service: name, Kind: kind, Detail: detail}
}

// newOpenErrorWithCause is like newOpenError but also retains cause so
// errors.Is against the wrapped sentinel keeps working, which matters for
// OpenOrCreate's retry loop (internal/lifecycle/retry.go) deciding whether a
// failure is a transient, retryable race or a terminal one.
func newOpenErrorWithCause(name ServiceName, kind OpenErrorKind, cause error) *OpenError {
	return &OpenError{Service: name, Kind: kind, Detail: cause.Error(), Cause: cause}
}

// IsOpenErrorKind reports whether err is an *OpenError of the given kind.
func IsOpenErrorKind(err error, kind OpenErrorKind) bool {
	var oe *OpenError
	if errors.As(err, &oe) {
		return oe.Kind == kind
	}
	return false
}

// CreateError is the closed set of failures a service create can produce
// (spec.md §7).
type CreateError struct {
	Service ServiceName
	Kind    CreateErrorKind
	Detail  string
	Cause   error
}

// CreateErrorKind enumerates spec.md §7's "Service create" taxonomy.
type CreateErrorKind int

const (
	CreateAlreadyExists CreateErrorKind = iota
	CreateIsBeingCreatedByAnotherInstance
	CreateOldConnectionsStillActive
	CreateInsufficientPermissions
	CreateHangsInCreation
	CreateServiceInCorruptedState
	CreateInternalFailure
)

func (k CreateErrorKind) String() string {
	names := map[CreateErrorKind]string{
		CreateAlreadyExists:                   "AlreadyExists",
		CreateIsBeingCreatedByAnotherInstance: "IsBeingCreatedByAnotherInstance",
		CreateOldConnectionsStillActive:       "OldConnectionsStillActive",
		CreateInsufficientPermissions:         "InsufficientPermissions",
		CreateHangsInCreation:                 "HangsInCreation",
		CreateServiceInCorruptedState:         "ServiceInCorruptedState",
		CreateInternalFailure:                 "InternalFailure",
	}
	if s, ok := names[k]; ok {
		return s
	}
	return "Unknown"
}

func (e *CreateError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("iox2: create %q: %s: %s", e.Service.String(), e.Kind, e.Detail)
	}
	return fmt.Sprintf("iox2: create %q: %s", e.Service.String(), e.Kind)
}

// Unwrap exposes the substrate error this CreateError was built from, so
// errors.Is/As against that sentinel still works once it's wrapped for a
// caller (see OpenError.Unwrap).
func (e *CreateError) Unwrap() error { return e.Cause }

func newCreateError(name ServiceName, kind CreateErrorKind, detail string) *CreateError {
	return &CreateError{Service: name, Kind: kind, Detail: detail}
}

// newCreateErrorWithCause is like newCreateError but also retains cause so
// errors.Is against the wrapped sentinel keeps working; OpenOrCreate relies
// on this to recognize shm.ErrAlreadyExists through the wrapped CreateError
// its tryCreate callback returns.
func newCreateErrorWithCause(name ServiceName, kind CreateErrorKind, cause error) *CreateError {
	return &CreateError{Service: name, Kind: kind, Detail: cause.Error(), Cause: cause}
}

// IsCreateErrorKind reports whether err is a *CreateError of the given kind.
// The open-or-create loop does not call it: it recognizes benign races by
// matching the wrapped shm/lifecycle sentinels with errors.Is.
func IsCreateErrorKind(err error, kind CreateErrorKind) bool {
	var ce *CreateError
	if errors.As(err, &ce) {
		return ce.Kind == kind
	}
	return false
}

// ErrBuilderConsumed names the reuse of an already consumed builder. No
// builder in this module returns it: calling a port builder's Create again
// claims another slot.
var ErrBuilderConsumed = errors.New("iox2: builder already consumed")

// ErrEventIDOutOfRange names an event id outside [0, event_id_max_value]
// (spec.md §4.3). Nothing in this module returns this value: the event
// package's NotifyWithCustomEventID returns event.ErrEventIDOutOfRange.
var ErrEventIDOutOfRange = errors.New("iox2: event id is outside the service's configured range")

// ErrSlotTableFull names a port/node slot table with no free slots. Nothing
// in this module returns it: port builders report a full table as ok=false,
// and Open reports a full node table as OpenExceedsMaxNumberOfNodes.
var ErrSlotTableFull = errors.New("iox2: slot table is full")
