package workflow

import (
	"errors"
	"fmt"
)

// Validation failures. These are caught at the operation boundary before
// any repository or storage call is made.
var (
	ErrEmptyNote           = errors.New("note content cannot be empty")
	ErrEmptyMessage        = errors.New("message content cannot be empty")
	ErrMissingReason       = errors.New("rejection reason is required")
	ErrMissingDocumentName = errors.New("document name is required")
	ErrIncompleteSchedule  = errors.New("reschedule requires both a new date and a new time")
	ErrUnknownDocumentType = errors.New("unknown document type")
)

// ErrNoChanges signals a same-state status update: reported to the actor as
// "no changes", never dispatched to the repository.
var ErrNoChanges = errors.New("no changes")

// ErrAlreadyConfirmed signals a repeat interview confirmation. Treated as an
// idempotent no-op by the scheduler; the first ConfirmedAt stamp stands.
var ErrAlreadyConfirmed = errors.New("interview already confirmed")

// ErrOperationInFlight signals that the same mutating operation is already
// dispatched for this entity and has not completed yet.
var ErrOperationInFlight = errors.New("operation already in flight for this entity")

// IsValidation reports whether err is a local validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyNote) ||
		errors.Is(err, ErrEmptyMessage) ||
		errors.Is(err, ErrMissingReason) ||
		errors.Is(err, ErrMissingDocumentName) ||
		errors.Is(err, ErrIncompleteSchedule) ||
		errors.Is(err, ErrUnknownDocumentType)
}

// TransitionError reports an illegal state change on one of the case
// sub-entities. Surfaced verbatim to the actor.
type TransitionError struct {
	Entity string
	From   string
	Action string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: cannot %s while %s", e.Entity, e.Action, e.From)
}

// IsTransition reports whether err is a TransitionError.
func IsTransition(err error) bool {
	var te *TransitionError
	return errors.As(err, &te)
}

// AmbiguousResponseError signals a mutation that reported success without
// echoing the fields needed to patch local state. Callers must refetch the
// whole aggregate instead of guessing a partial update.
type AmbiguousResponseError struct {
	Entity string
}

func (e *AmbiguousResponseError) Error() string {
	return fmt.Sprintf("%s: response missing updated entity, full refresh required", e.Entity)
}

// IsAmbiguous reports whether err is an AmbiguousResponseError.
func IsAmbiguous(err error) bool {
	var ae *AmbiguousResponseError
	return errors.As(err, &ae)
}
