// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authdir Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
)

// dummyPasswordHash is verified against when a login names an unknown user,
// so the response time does not reveal whether the username exists.
// This is NOT a real credential - it's a fake hash that will never match any password.
//
//nolint:gosec // G101: intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Service orchestrates validation, uniqueness checks, and credential hashing
// for registration and login. It is the only component with business-rule
// sequencing; both operations run to a terminal result in one pass.
type Service struct {
	directory Directory
	hasher    PasswordHasher
	logger    *slog.Logger
}

// NewService creates a Service with a no-op logger.
// Returns an error if any required dependency is nil.
func NewService(directory Directory, hasher PasswordHasher) (*Service, error) {
	if directory == nil {
		return nil, oops.Errorf("user directory is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	return &Service{
		directory: directory,
		hasher:    hasher,
		logger:    slog.New(slog.DiscardHandler),
	}, nil
}

// NewServiceWithLogger creates a Service with the provided logger.
// Returns an error if any required dependency is nil.
func NewServiceWithLogger(directory Directory, hasher PasswordHasher, logger *slog.Logger) (*Service, error) {
	svc, err := NewService(directory, hasher)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	svc.logger = logger
	return svc, nil
}

// Register validates the request, enforces username and email uniqueness,
// derives the password hash, and stores the new record. A failed
// registration leaves the directory exactly as it was.
//
// Expected failures carry CodeValidationFailed, CodeUsernameConflict, or
// CodeEmailConflict. The returned view contains no secret material.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*RegisteredUser, error) {
	if err := ValidateRegistration(req); err != nil {
		return nil, err
	}

	// Pre-checks give precise conflict reporting; the atomic insert below
	// remains the source of truth under concurrency.
	if _, err := s.directory.FindByUsername(ctx, req.Username); err == nil {
		return nil, UsernameConflictError(req.Username)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "find by username").
			Wrap(err)
	}

	if _, err := s.directory.FindByEmail(ctx, req.Email); err == nil {
		return nil, EmailConflictError(req.Email)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "find by email").
			Wrap(err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user, err := NewUser(req.Username, req.Email, AccountType(req.AccountType), hash)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "construct user").
			Wrap(err)
	}

	if err := s.directory.Insert(ctx, user); err != nil {
		// A race slipped past the pre-checks; surface the matching conflict
		// rather than succeeding.
		switch {
		case errors.Is(err, ErrUsernameTaken):
			return nil, UsernameConflictError(req.Username)
		case errors.Is(err, ErrEmailTaken):
			return nil, EmailConflictError(req.Email)
		default:
			return nil, oops.Code("AUTH_REGISTER_FAILED").
				With("operation", "insert user").
				Wrap(err)
		}
	}

	s.logger.InfoContext(ctx, "user registered",
		"username", user.Username,
		"account_type", string(user.AccountType),
	)
	return user.View(), nil
}

// Login validates the request and verifies the password against the stored
// hash. A nil return means authentication succeeded; no session or token is
// issued. Unknown usernames and wrong passwords both yield an identical
// CodeInvalidCredentials error.
func (s *Service) Login(ctx context.Context, req LoginRequest) error {
	if err := ValidateLogin(req); err != nil {
		return err
	}

	user, lookupErr := s.directory.FindByUsername(ctx, req.Username)

	// Pick the hash to verify against; the dummy keeps verification cost
	// constant for unknown usernames.
	targetHash := dummyPasswordHash
	userExists := false
	switch {
	case lookupErr == nil:
		targetHash = user.PasswordHash
		userExists = true
	case errors.Is(lookupErr, ErrNotFound):
		// fall through with the dummy hash
	default:
		return oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "find by username").
			Wrap(lookupErr)
	}

	valid, verifyErr := s.hasher.Verify(req.Password, targetHash)
	if verifyErr != nil {
		if !userExists {
			return InvalidCredentialsError()
		}
		return oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}

	if !userExists || !valid {
		return InvalidCredentialsError()
	}

	s.logger.InfoContext(ctx, "user logged in", "username", user.Username)
	return nil
}
