package workflow

import (
	"fmt"
	"strings"
)

// ValidationError reports a missing or invalid input field. It is
// raised before any state is touched.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every problem found in one request so the
// caller can fix them all at once.
type ValidationErrors struct {
	Errors []ValidationError
}

func (e *ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, ve := range e.Errors {
		msgs = append(msgs, ve.Error())
	}
	return strings.Join(msgs, "; ")
}

// StateTransitionError reports an operation attempted from a status
// that does not permit it.
type StateTransitionError struct {
	Entity    string
	Operation string
	From      string
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("%s cannot %s from status %s", e.Entity, e.Operation, e.From)
}

// PriceRatchetViolation reports a re-submitted unit price above the
// price captured at the previous submission. Any single violating
// item rejects the whole re-submission.
type PriceRatchetViolation struct {
	ItemName      string
	PreviousPrice float64
	OfferedPrice  float64
}

func (e *PriceRatchetViolation) Error() string {
	return fmt.Sprintf("re-submitted price %.2f for %q exceeds previous price %.2f",
		e.OfferedPrice, e.ItemName, e.PreviousPrice)
}

// NotFoundError reports a missing RFP, quotation, supplier or item.
type NotFoundError struct {
	Entity string
	Ref    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.Ref)
}

// VersionConflictError reports a stale optimistic-concurrency version
// on a quotation write.
type VersionConflictError struct {
	QuotationID int
	Expected    int
	Got         int
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("quotation %d was modified concurrently (version %d, got %d)",
		e.QuotationID, e.Expected, e.Got)
}
