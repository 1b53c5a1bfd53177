// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authdir Contributors

package auth

import (
	"context"
	"sync"
)

// MemoryDirectory is an in-process Directory backed by a map keyed on
// username. It lives for the lifetime of the process and is discarded on
// restart. Safe for concurrent use.
type MemoryDirectory struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewMemoryDirectory creates an empty in-memory directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		users: make(map[string]User),
	}
}

// FindByUsername returns the user with the exact username.
func (d *MemoryDirectory) FindByUsername(_ context.Context, username string) (*User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.users[username]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

// FindByEmail scans all records for an exact email match.
func (d *MemoryDirectory) FindByEmail(_ context.Context, email string) (*User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, u := range d.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

// Insert performs the check-username, check-email, write sequence under a
// single write lock, so two racing inserts of the same identity cannot both
// pass their checks. On conflict the directory is left unchanged.
func (d *MemoryDirectory) Insert(_ context.Context, user *User) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.users[user.Username]; ok {
		return ErrUsernameTaken
	}
	for _, u := range d.users {
		if u.Email == user.Email {
			return ErrEmailTaken
		}
	}

	// Store a copy so callers cannot mutate directory state afterwards.
	d.users[user.Username] = *user
	return nil
}

// Len returns the number of stored records.
func (d *MemoryDirectory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.users)
}
