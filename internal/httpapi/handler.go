// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authdir Contributors

package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/authdir/authdir/internal/auth"
	"github.com/authdir/authdir/internal/observability"
	"github.com/authdir/authdir/pkg/errutil"
)

type apiHandler struct {
	svc     AuthService
	metrics *observability.Metrics
	logger  *slog.Logger
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (h *apiHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.recordRegistration(observability.OutcomeValidationFailed)
		writeError(w, http.StatusBadRequest, auth.CodeValidationFailed, "request body must be valid JSON")
		return
	}

	view, err := h.svc.Register(r.Context(), req)
	if err != nil {
		h.recordRegistration(registrationOutcome(err))
		h.writeServiceError(w, "registration failed", err)
		return
	}

	h.recordRegistration(observability.OutcomeSuccess)
	writeJSON(w, http.StatusCreated, view)
}

func (h *apiHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.recordLogin(observability.OutcomeValidationFailed)
		writeError(w, http.StatusBadRequest, auth.CodeValidationFailed, "request body must be valid JSON")
		return
	}

	if err := h.svc.Login(r.Context(), req); err != nil {
		h.recordLogin(loginOutcome(err))
		h.writeServiceError(w, "login failed", err)
		return
	}

	h.recordLogin(observability.OutcomeSuccess)
	w.WriteHeader(http.StatusNoContent)
}

// writeServiceError maps a service error onto its HTTP status class.
// Errors outside the taxonomy are logged and surfaced as a generic failure
// that leaks no internal detail.
func (h *apiHandler) writeServiceError(w http.ResponseWriter, msg string, err error) {
	code := auth.ErrorCode(err)
	switch code {
	case auth.CodeValidationFailed:
		writeError(w, http.StatusBadRequest, code, taxonomyMessage(err))
	case auth.CodeUsernameConflict, auth.CodeEmailConflict:
		writeError(w, http.StatusConflict, code, taxonomyMessage(err))
	case auth.CodeInvalidCredentials:
		writeError(w, http.StatusUnauthorized, code, taxonomyMessage(err))
	default:
		errutil.LogError(h.logger, msg, err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal server error")
	}
}

// taxonomyMessage returns the user-facing message of a taxonomy error.
func taxonomyMessage(err error) string {
	return err.Error()
}

func registrationOutcome(err error) string {
	switch auth.ErrorCode(err) {
	case auth.CodeValidationFailed:
		return observability.OutcomeValidationFailed
	case auth.CodeUsernameConflict:
		return observability.OutcomeUsernameConflict
	case auth.CodeEmailConflict:
		return observability.OutcomeEmailConflict
	default:
		return observability.OutcomeInternalError
	}
}

func loginOutcome(err error) string {
	switch auth.ErrorCode(err) {
	case auth.CodeValidationFailed:
		return observability.OutcomeValidationFailed
	case auth.CodeInvalidCredentials:
		return observability.OutcomeInvalidCredentials
	default:
		return observability.OutcomeInternalError
	}
}

func (h *apiHandler) recordRegistration(outcome string) {
	if h.metrics != nil {
		h.metrics.RecordRegistration(outcome)
	}
}

func (h *apiHandler) recordLogin(outcome string) {
	if h.metrics != nil {
		h.metrics.RecordLogin(outcome)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	//nolint:errcheck // response write error is acceptable, client may disconnect
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}
