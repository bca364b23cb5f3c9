// Package repository implements the reservation and identity stores used
// by the booking engine: a MySQL backend and an in-memory backend for
// development and tests.
package repository

import "errors"

// ErrUserNotFound is returned when no user has the requested email.
// Handlers translate it into HTTP 401 on login.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailExists is returned when creating a user whose email is taken.
var ErrEmailExists = errors.New("email already exists")
