// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authdir Contributors

package auth

import (
	"regexp"
	"unicode"
)

// Field length constraints.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 24
	MinPasswordLength = 5
	MaxPasswordLength = 24
)

// emailRegex matches addresses of the form local@domain.tld with no
// whitespace. Deliverability is not checked here; the directory's email
// uniqueness constraint compares exact strings as stored.
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// RegisterRequest is the registration input shape.
type RegisterRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	AccountType string `json:"accountType"`
	Password    string `json:"password"`
}

// LoginRequest is the login input shape.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// registrationRule is a named predicate over a registration request.
// Rules run in declaration order and the first violation wins, so a request
// with several invalid fields always reports the earliest-declared one.
type registrationRule struct {
	name     string
	message  string
	violated func(RegisterRequest) bool
}

var registrationRules = []registrationRule{
	{
		name:     "username.required",
		message:  "username is required",
		violated: func(r RegisterRequest) bool { return r.Username == "" },
	},
	{
		name:    "username.length",
		message: "username must be between 3 and 24 characters",
		violated: func(r RegisterRequest) bool {
			return len(r.Username) < MinUsernameLength || len(r.Username) > MaxUsernameLength
		},
	},
	{
		name:     "email.required",
		message:  "email is required",
		violated: func(r RegisterRequest) bool { return r.Email == "" },
	},
	{
		name:     "email.syntax",
		message:  "email must be a valid email address",
		violated: func(r RegisterRequest) bool { return !emailRegex.MatchString(r.Email) },
	},
	{
		name:     "accountType.required",
		message:  "account type is required",
		violated: func(r RegisterRequest) bool { return r.AccountType == "" },
	},
	{
		name:     "accountType.enum",
		message:  "account type must be user or admin",
		violated: func(r RegisterRequest) bool { return !AccountType(r.AccountType).Valid() },
	},
	{
		name:     "password.required",
		message:  "password is required",
		violated: func(r RegisterRequest) bool { return r.Password == "" },
	},
	{
		name:    "password.length",
		message: "password must be between 5 and 24 characters",
		violated: func(r RegisterRequest) bool {
			return len(r.Password) < MinPasswordLength || len(r.Password) > MaxPasswordLength
		},
	},
	// Character class rules run upper, then lower, then special; the first
	// missing class is the one reported.
	{
		name:     "password.upper",
		message:  "password must have an upper case character",
		violated: func(r RegisterRequest) bool { return !containsClass(r.Password, unicode.IsUpper) },
	},
	{
		name:     "password.lower",
		message:  "password must have a lower case character",
		violated: func(r RegisterRequest) bool { return !containsClass(r.Password, unicode.IsLower) },
	},
	{
		name:     "password.special",
		message:  "password must have a special case character",
		violated: func(r RegisterRequest) bool { return !containsClass(r.Password, isSpecial) },
	},
}

// loginRule is a named predicate over a login request.
type loginRule struct {
	name     string
	message  string
	violated func(LoginRequest) bool
}

// Login applies no password-policy re-check; the policy is enforced only at
// account creation.
var loginRules = []loginRule{
	{
		name:     "username.required",
		message:  "username is required",
		violated: func(r LoginRequest) bool { return r.Username == "" },
	},
	{
		name:     "password.required",
		message:  "password is required",
		violated: func(r LoginRequest) bool { return r.Password == "" },
	},
}

// ValidateRegistration checks req against the registration rule set.
// It is pure: the same request always yields the same result, and no state
// is touched. Returns a CodeValidationFailed error naming the first violated
// rule, or nil.
func ValidateRegistration(req RegisterRequest) error {
	for _, rule := range registrationRules {
		if rule.violated(req) {
			return ValidationError(rule.message)
		}
	}
	return nil
}

// ValidateLogin checks req against the login rule set.
func ValidateLogin(req LoginRequest) error {
	for _, rule := range loginRules {
		if rule.violated(req) {
			return ValidationError(rule.message)
		}
	}
	return nil
}

func containsClass(s string, class func(rune) bool) bool {
	for _, r := range s {
		if class(r) {
			return true
		}
	}
	return false
}

// isSpecial reports whether r falls outside the letter and digit classes.
func isSpecial(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
