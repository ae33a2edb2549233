package domain

import "errors"

// UserError is an expected failure surfaced verbatim to the caller in the
// response error field. It always triggers a rollback to the pre-mutation
// document and never aborts the request pipeline.
type UserError string

func (e UserError) Error() string { return string(e) }

// Canonical user error messages. The texts are part of the client contract.
const (
	ErrNotFound          UserError = "The requested object was not found."
	ErrAccessDenied      UserError = "You do not have access to the requested object."
	ErrAdminOnlyFields   UserError = "Non-admins cannot modify a registration's group or adjustments."
	ErrEmailImmutable    UserError = "A registration's email is immutable."
	ErrGroupTaken        UserError = "A user with this email address has already created registrations."
	ErrDuplicateName     UserError = "A registration with this name already exists."
	ErrDuplicateEmail    UserError = "A registration with this email address already exists."
	ErrUnknownNight      UserError = "Nonexistent night ID in costs."
	ErrSlotUnavailable   UserError = "One or more rooms is not available."
	ErrPaymentTarget     UserError = "Registration for payment allocation not found."
	ErrExpenseTarget     UserError = "Registration for expense not found."
	ErrStaleState        UserError = "The state has changed since you loaded the page."
	ErrReservationsGated UserError = "Reservations not yet enabled."
	ErrMissingField      UserError = "Missing mandatory field."
	ErrInvalidField      UserError = "Invalid value for field."
)

// IsUserError reports whether err (or anything it wraps) is a UserError.
func IsUserError(err error) bool {
	var ue UserError
	return errors.As(err, &ue)
}

// InvariantError signals corrupt configuration or a broken id generator.
// It aborts the request or process startup and is never shown as a user error.
type InvariantError string

func (e InvariantError) Error() string { return string(e) }

// Invariant violations detected by the id integrity checks.
const (
	ErrDuplicateID   InvariantError = "Duplicate ID found."
	ErrDelimiterInID InvariantError = `"|" found in ID.`
	ErrIDCollision   InvariantError = "Generated ID collision."
)
