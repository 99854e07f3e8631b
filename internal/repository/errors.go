// Package repository implements persistence over MySQL. Sentinel errors
// defined here let handlers map storage failures to HTTP responses without
// inspecting driver-specific error strings themselves.
package repository

import (
	"errors"
	"strings"
)

// ErrEmailExists is returned when a signup collides with an already
// registered email. Handlers translate it into an HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrDuplicateContact is returned when a contact insert or update violates
// the phone-number or email uniqueness constraint. Handlers translate it
// into an HTTP 409.
var ErrDuplicateContact = errors.New("contact already exists")

// isDuplicateKey reports whether err is a MySQL duplicate-entry violation
// (error 1062).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}
