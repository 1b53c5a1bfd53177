// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authdir Contributors

// Package mocks provides testify mocks for the auth package interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/authdir/authdir/internal/auth"
)

type constructorTestingT interface {
	mock.TestingT
	Cleanup(func())
}

// MockDirectory is a mock implementation of auth.Directory.
type MockDirectory struct {
	mock.Mock
}

// NewMockDirectory creates a MockDirectory whose expectations are asserted
// during test cleanup.
func NewMockDirectory(t constructorTestingT) *MockDirectory {
	m := &MockDirectory{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockDirectory) FindByUsername(ctx context.Context, username string) (*auth.User, error) {
	args := m.Called(ctx, username)
	var user *auth.User
	if args.Get(0) != nil {
		user = args.Get(0).(*auth.User)
	}
	return user, args.Error(1)
}

func (m *MockDirectory) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	args := m.Called(ctx, email)
	var user *auth.User
	if args.Get(0) != nil {
		user = args.Get(0).(*auth.User)
	}
	return user, args.Error(1)
}

func (m *MockDirectory) Insert(ctx context.Context, user *auth.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockPasswordHasher is a mock implementation of auth.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

// NewMockPasswordHasher creates a MockPasswordHasher whose expectations are
// asserted during test cleanup.
func NewMockPasswordHasher(t constructorTestingT) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockPasswordHasher) Verify(password, encoded string) (bool, error) {
	args := m.Called(password, encoded)
	return args.Bool(0), args.Error(1)
}
