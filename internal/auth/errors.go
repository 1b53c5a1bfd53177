// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authdir Contributors

package auth

import (
	"errors"

	"github.com/samber/oops"
)

// Directory sentinel errors, matched with errors.Is.
var (
	// ErrNotFound is returned when a requested user does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUsernameTaken is returned by Directory.Insert when another record
	// already holds the username.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrEmailTaken is returned by Directory.Insert when another record
	// already holds the email.
	ErrEmailTaken = errors.New("email already taken")
)

// Error taxonomy codes. Every expected failure of Register and Login carries
// exactly one of these; errors without a code are internal faults.
const (
	CodeValidationFailed   = "AUTH_VALIDATION_FAILED"
	CodeUsernameConflict   = "AUTH_USERNAME_CONFLICT"
	CodeEmailConflict      = "AUTH_EMAIL_CONFLICT"
	CodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
)

// invalidCredentialsMessage is shared by the unknown-user and wrong-password
// paths so the two cases are indistinguishable to callers.
const invalidCredentialsMessage = "invalid username or password"

// ValidationError reports the first violated field rule of a request.
func ValidationError(message string) error {
	return oops.Code(CodeValidationFailed).Errorf("%s", message)
}

// UsernameConflictError reports that the username is already registered.
func UsernameConflictError(username string) error {
	return oops.Code(CodeUsernameConflict).
		With("username", username).
		Errorf("username %q is already registered", username)
}

// EmailConflictError reports that the email is already registered.
func EmailConflictError(email string) error {
	return oops.Code(CodeEmailConflict).
		With("email", email).
		Errorf("email %q is already registered", email)
}

// InvalidCredentialsError reports a failed login without revealing whether
// the username exists or the password was wrong.
func InvalidCredentialsError() error {
	return oops.Code(CodeInvalidCredentials).Errorf("%s", invalidCredentialsMessage)
}

// ErrorCode extracts the taxonomy code from err, or "" if err carries none.
func ErrorCode(err error) string {
	if oopsErr, ok := oops.AsOops(err); ok {
		return oopsErr.Code()
	}
	return ""
}

// HasCode reports whether err carries the given taxonomy code.
func HasCode(err error, code string) bool {
	return ErrorCode(err) == code
}
