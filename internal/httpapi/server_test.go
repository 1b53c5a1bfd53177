// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authdir Contributors

package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/authdir/authdir/internal/auth"
	"github.com/authdir/authdir/internal/observability"
)

// startTestServer runs an API server over a real in-memory directory and the
// real argon2id hasher, and returns its base URL.
func startTestServer(t *testing.T, metrics *observability.Metrics) string {
	t.Helper()

	svc, err := auth.NewService(auth.NewMemoryDirectory(), auth.NewArgon2idHasher())
	require.NoError(t, err)

	server, err := NewServer("127.0.0.1:0", svc, metrics, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	_, err = server.Start()
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, server.Stop(ctx))
	})

	return "http://" + server.Addr()
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeErrorBody(t *testing.T, resp *http.Response) errorBody {
	t.Helper()

	var body errorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func validRegisterBody() map[string]string {
	return map[string]string{
		"username":    "alice",
		"email":       "alice@example.com",
		"accountType": "user",
		"password":    "Abc!2",
	}
}

func TestNewServer_NilService(t *testing.T) {
	server, err := NewServer("127.0.0.1:0", nil, nil, nil)
	require.Error(t, err)
	assert.Nil(t, server)
}

func TestServer_Register(t *testing.T) {
	t.Run("successful registration returns 201 and the public view", func(t *testing.T) {
		baseURL := startTestServer(t, nil)

		resp := postJSON(t, baseURL+"/v1/register", validRegisterBody())
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var view auth.RegisteredUser
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
		assert.Equal(t, "alice", view.Username)
		assert.Equal(t, "alice@example.com", view.Email)
		assert.Equal(t, auth.AccountTypeUser, view.AccountType)
	})

	t.Run("response never contains password material", func(t *testing.T) {
		baseURL := startTestServer(t, nil)

		resp := postJSON(t, baseURL+"/v1/register", validRegisterBody())
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var raw map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
		assert.NotContains(t, raw, "password")
		assert.NotContains(t, raw, "passwordHash")
	})

	t.Run("validation failure returns 400 with the rule message", func(t *testing.T) {
		baseURL := startTestServer(t, nil)

		body := validRegisterBody()
		body["password"] = "abc!2" // no upper case
		resp := postJSON(t, baseURL+"/v1/register", body)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		errBody := decodeErrorBody(t, resp)
		assert.Equal(t, auth.CodeValidationFailed, errBody.Error.Code)
		assert.Equal(t, "password must have an upper case character", errBody.Error.Message)
	})

	t.Run("duplicate username returns 409", func(t *testing.T) {
		baseURL := startTestServer(t, nil)

		resp := postJSON(t, baseURL+"/v1/register", validRegisterBody())
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		body := validRegisterBody()
		body["email"] = "other@example.com"
		resp = postJSON(t, baseURL+"/v1/register", body)
		require.Equal(t, http.StatusConflict, resp.StatusCode)

		errBody := decodeErrorBody(t, resp)
		assert.Equal(t, auth.CodeUsernameConflict, errBody.Error.Code)
	})

	t.Run("duplicate email returns 409", func(t *testing.T) {
		baseURL := startTestServer(t, nil)

		resp := postJSON(t, baseURL+"/v1/register", validRegisterBody())
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		body := validRegisterBody()
		body["username"] = "bob"
		resp = postJSON(t, baseURL+"/v1/register", body)
		require.Equal(t, http.StatusConflict, resp.StatusCode)

		errBody := decodeErrorBody(t, resp)
		assert.Equal(t, auth.CodeEmailConflict, errBody.Error.Code)
	})

	t.Run("malformed JSON returns 400", func(t *testing.T) {
		baseURL := startTestServer(t, nil)

		resp, err := http.Post(baseURL+"/v1/register", "application/json", bytes.NewReader([]byte("{not json")))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		errBody := decodeErrorBody(t, resp)
		assert.Equal(t, auth.CodeValidationFailed, errBody.Error.Code)
		assert.Equal(t, "request body must be valid JSON", errBody.Error.Message)
	})
}

func TestServer_Login(t *testing.T) {
	t.Run("successful login returns 204", func(t *testing.T) {
		baseURL := startTestServer(t, nil)

		resp := postJSON(t, baseURL+"/v1/register", validRegisterBody())
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		resp = postJSON(t, baseURL+"/v1/login", map[string]string{
			"username": "alice",
			"password": "Abc!2",
		})
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})

	t.Run("wrong password and unknown user return identical 401", func(t *testing.T) {
		baseURL := startTestServer(t, nil)

		resp := postJSON(t, baseURL+"/v1/register", validRegisterBody())
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		wrongPassword := postJSON(t, baseURL+"/v1/login", map[string]string{
			"username": "alice",
			"password": "Wrong!9",
		})
		require.Equal(t, http.StatusUnauthorized, wrongPassword.StatusCode)
		wrongBody := decodeErrorBody(t, wrongPassword)

		unknownUser := postJSON(t, baseURL+"/v1/login", map[string]string{
			"username": "nobody",
			"password": "Abc!2",
		})
		require.Equal(t, http.StatusUnauthorized, unknownUser.StatusCode)
		unknownBody := decodeErrorBody(t, unknownUser)

		assert.Equal(t, wrongBody, unknownBody)
		assert.Equal(t, auth.CodeInvalidCredentials, wrongBody.Error.Code)
		assert.Equal(t, "invalid username or password", wrongBody.Error.Message)
	})

	t.Run("missing fields return 400", func(t *testing.T) {
		baseURL := startTestServer(t, nil)

		resp := postJSON(t, baseURL+"/v1/login", map[string]string{"username": "alice"})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		errBody := decodeErrorBody(t, resp)
		assert.Equal(t, auth.CodeValidationFailed, errBody.Error.Code)
		assert.Equal(t, "password is required", errBody.Error.Message)
	})

	t.Run("malformed JSON returns 400", func(t *testing.T) {
		baseURL := startTestServer(t, nil)

		resp, err := http.Post(baseURL+"/v1/login", "application/json", bytes.NewReader([]byte("[")))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestServer_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	baseURL := startTestServer(t, metrics)

	resp := postJSON(t, baseURL+"/v1/register", validRegisterBody())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, baseURL+"/v1/login", map[string]string{
		"username": "alice",
		"password": "Wrong!9",
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	assert.Equal(t, float64(1), testutil.ToFloat64(
		metrics.RegistrationsTotal.WithLabelValues(observability.OutcomeSuccess)))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		metrics.LoginsTotal.WithLabelValues(observability.OutcomeInvalidCredentials)))
}

func TestServer_Lifecycle(t *testing.T) {
	defer goleak.VerifyNone(t)

	svc, err := auth.NewService(auth.NewMemoryDirectory(), auth.NewArgon2idHasher())
	require.NoError(t, err)

	server, err := NewServer("127.0.0.1:0", svc, nil, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	errCh, err := server.Start()
	require.NoError(t, err)
	assert.NotEmpty(t, server.Addr())

	_, err = server.Start()
	require.Error(t, err, "double start must fail")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, server.Stop(ctx))

	select {
	case err, ok := <-errCh:
		if ok {
			assert.NoError(t, err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for error channel to close")
	}

	// Stop is idempotent.
	require.NoError(t, server.Stop(ctx))
}
