// Package apperr holds the error kinds every console operation reports.
// Callers match them with errors.As or the Is* helpers; HTTP handlers map
// each kind to one status code.
package apperr

import (
	"errors"
	"fmt"
)

// ValidationError is a rejected input: malformed data or a license/cap
// violation. The operation did not run.
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

// PreconditionError is a state-machine ordering violation, such as restoring
// a pod whose parent is still deleted.
type PreconditionError struct {
	Message string
}

func (e *PreconditionError) Error() string { return e.Message }

// NotFoundError names the missing resource.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// AuthError is an expired or rejected credential.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return "authentication failed"
	}
	return e.Message
}

// IntegrityError reports a broken invariant in data received from upstream,
// e.g. a parent cycle. Traversals stop instead of looping.
type IntegrityError struct {
	Message string
}

func (e *IntegrityError) Error() string { return "integrity violation: " + e.Message }

func Validation(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func Precondition(format string, args ...any) error {
	return &PreconditionError{Message: fmt.Sprintf(format, args...)}
}

func NotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

func Integrity(format string, args ...any) error {
	return &IntegrityError{Message: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsPrecondition(err error) bool {
	var target *PreconditionError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsAuth(err error) bool {
	var target *AuthError
	return errors.As(err, &target)
}

func IsIntegrity(err error) bool {
	var target *IntegrityError
	return errors.As(err, &target)
}

// Message returns the user-facing text of err: the innermost typed error's
// message when there is one, otherwise err.Error().
func Message(err error) string {
	var v *ValidationError
	if errors.As(err, &v) {
		return v.Error()
	}
	var p *PreconditionError
	if errors.As(err, &p) {
		return p.Error()
	}
	var n *NotFoundError
	if errors.As(err, &n) {
		return n.Error()
	}
	var a *AuthError
	if errors.As(err, &a) {
		return a.Error()
	}
	var i *IntegrityError
	if errors.As(err, &i) {
		return i.Error()
	}
	return err.Error()
}
