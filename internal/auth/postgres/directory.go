// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authdir Contributors

// Package postgres implements auth.Directory on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/authdir/authdir/internal/auth"
)

// Constraint names from the users migration. Insert maps violations of these
// onto the directory's conflict sentinels.
const (
	usernameConstraint = "users_username_key"
	emailConstraint    = "users_email_key"
)

// pool is the subset of pgxpool.Pool the directory needs. pgxmock satisfies
// it in tests.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Directory implements auth.Directory using PostgreSQL. Uniqueness is
// enforced by the table's unique constraints, so Insert is atomic with
// respect to concurrent callers without explicit locking.
type Directory struct {
	pool pool
}

// NewDirectory creates a Directory over the given connection pool.
func NewDirectory(pool pool) *Directory {
	return &Directory{pool: pool}
}

// FindByUsername returns the user with the exact username.
func (d *Directory) FindByUsername(ctx context.Context, username string) (*auth.User, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT id, username, email, account_type, password_hash, created_at
		FROM users
		WHERE username = $1
	`, username)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("username", username).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_USERNAME_FAILED").
			With("operation", "get user by username").
			With("username", username).
			Wrap(err)
	}
	return user, nil
}

// FindByEmail returns the user with the exact email as stored.
func (d *Directory) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT id, username, email, account_type, password_hash, created_at
		FROM users
		WHERE email = $1
	`, email)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("email", email).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_GET_BY_EMAIL_FAILED").
			With("operation", "get user by email").
			With("email", email).
			Wrap(err)
	}
	return user, nil
}

// Insert stores a new user. Unique-constraint violations map to
// auth.ErrUsernameTaken and auth.ErrEmailTaken; the row is not written.
func (d *Directory) Insert(ctx context.Context, user *auth.User) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO users (id, username, email, account_type, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		user.ID.String(),
		user.Username,
		user.Email,
		string(user.AccountType),
		user.PasswordHash,
		user.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			switch pgErr.ConstraintName {
			case emailConstraint:
				return oops.Code("USER_EMAIL_TAKEN").
					With("email", user.Email).
					Wrap(auth.ErrEmailTaken)
			default:
				// users_username_key or the primary key on id; both mean the
				// username slot is occupied.
				return oops.Code("USER_USERNAME_TAKEN").
					With("username", user.Username).
					Wrap(auth.ErrUsernameTaken)
			}
		}
		return oops.Code("USER_INSERT_FAILED").
			With("operation", "insert user").
			With("username", user.Username).
			Wrap(err)
	}
	return nil
}

func scanUser(row pgx.Row) (*auth.User, error) {
	var (
		user        auth.User
		idStr       string
		accountType string
		createdAt   time.Time
	)
	if err := row.Scan(&idStr, &user.Username, &user.Email, &accountType, &user.PasswordHash, &createdAt); err != nil {
		return nil, err
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.With("operation", "parse user id").With("id", idStr).Wrap(err)
	}
	user.ID = id
	user.AccountType = auth.AccountType(accountType)
	user.CreatedAt = createdAt
	return &user, nil
}
