// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authdir Contributors

package auth

import (
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// AccountType classifies an account.
type AccountType string

// Supported account types.
const (
	AccountTypeUser  AccountType = "user"
	AccountTypeAdmin AccountType = "admin"
)

// Valid reports whether t is one of the supported account types.
func (t AccountType) Valid() bool {
	return t == AccountTypeUser || t == AccountTypeAdmin
}

// User is a registered identity. Records are created once by a successful
// registration and never mutated; there is no update or delete path.
type User struct {
	ID           ulid.ULID
	Username     string
	Email        string
	AccountType  AccountType
	PasswordHash string // PHC-encoded argon2id hash, salt embedded
	CreatedAt    time.Time
}

// NewUser creates a User from pre-validated registration data and a derived
// password hash. It guards against programmer error only; request-level
// validation happens in ValidateRegistration.
func NewUser(username, email string, accountType AccountType, passwordHash string) (*User, error) {
	if username == "" {
		return nil, oops.Errorf("username cannot be empty")
	}
	if email == "" {
		return nil, oops.Errorf("email cannot be empty")
	}
	if !accountType.Valid() {
		return nil, oops.With("account_type", string(accountType)).Errorf("unknown account type")
	}
	if passwordHash == "" {
		return nil, oops.Errorf("password hash cannot be empty")
	}
	return &User{
		ID:           ulid.Make(),
		Username:     username,
		Email:        email,
		AccountType:  accountType,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// RegisteredUser is the public view of a User returned to callers.
// It never contains the password hash or any other secret material.
type RegisteredUser struct {
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	AccountType AccountType `json:"accountType"`
}

// View returns the public view of the user.
func (u *User) View() *RegisteredUser {
	return &RegisteredUser{
		Username:    u.Username,
		Email:       u.Email,
		AccountType: u.AccountType,
	}
}
