// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authdir Contributors

// Package auth implements the account registration and login core.
//
// # Components
//
//   - Validator: ordered, fail-fast predicate checks over registration and
//     login requests (ValidateRegistration, ValidateLogin).
//   - PasswordHasher: argon2id credential hashing with per-user salts and
//     timing-safe verification (Argon2idHasher).
//   - Directory: the uniqueness-enforcing user store. MemoryDirectory is the
//     canonical in-process implementation; the postgres subpackage provides a
//     durable one behind the same contract.
//   - Service: orchestrates validation, conflict checks, and hashing for
//     Register and Login, and owns the error taxonomy.
//
// # Errors
//
// Expected outcomes are returned as oops errors tagged with one of the
// Code* constants (validation failure, username conflict, email conflict,
// invalid credentials). Match them with HasCode or ErrorCode. Anything
// without a taxonomy code is an internal fault and should be surfaced to
// callers as a generic failure.
package auth
