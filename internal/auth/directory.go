// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authdir Contributors

package auth

import "context"

// Directory is the user store. Usernames are the primary key; emails carry a
// secondary uniqueness constraint across the whole directory.
type Directory interface {
	// FindByUsername returns the user with the exact username, or a
	// ErrNotFound error when no such user exists.
	FindByUsername(ctx context.Context, username string) (*User, error)

	// FindByEmail returns the first user whose email equals the given string
	// exactly as stored, or a ErrNotFound error. Email is a uniqueness
	// constraint, not a lookup key; implementations may scan.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// Insert atomically verifies that no existing record holds the user's
	// username or email and then stores the record. On conflict it returns
	// ErrUsernameTaken or ErrEmailTaken (username checked first) and leaves
	// the directory unchanged. The check-then-write sequence must not
	// interleave with concurrent inserts.
	Insert(ctx context.Context, user *User) error
}
