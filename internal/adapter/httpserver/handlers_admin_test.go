package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cxyfer/oj-catalog/internal/config"
)

func newTestAdminServer(t *testing.T) *AdminServer {
	t.Helper()
	cfg := config.EnvConfig{
		AdminUsername:      "root",
		AdminSessionSecret: "topsecret",
	}
	hash, err := HashPassword("s3cret", defaultArgon2Params)
	require.NoError(t, err)
	cfg.AdminPassword = hash
	return NewAdminServer(cfg, &Server{})
}

func loginRequest(body LoginRequest) *http.Request {
	raw, _ := json.Marshal(body)
	return httptest.NewRequest(http.MethodPost, "/admin/login", bytes.NewReader(raw))
}

func TestLoginHandler_AcceptsCorrectCredentials(t *testing.T) {
	a := newTestAdminServer(t)
	rec := httptest.NewRecorder()
	a.LoginHandler(rec, loginRequest(LoginRequest{Username: "root", Password: "s3cret"}))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["token"])
}

func TestLoginHandler_RejectsWrongPassword(t *testing.T) {
	a := newTestAdminServer(t)
	rec := httptest.NewRecorder()
	a.LoginHandler(rec, loginRequest(LoginRequest{Username: "root", Password: "wrong"}))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginHandler_RejectsMissingFields(t *testing.T) {
	a := newTestAdminServer(t)
	rec := httptest.NewRecorder()
	a.LoginHandler(rec, loginRequest(LoginRequest{Username: "root"}))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
