package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cxyfer/oj-catalog/internal/config"
)

func TestHashPassword_VerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret", defaultArgon2Params)
	require.NoError(t, err)
	require.True(t, VerifyPassword("s3cret", hash))
	require.False(t, VerifyPassword("wrong", hash))
}

func TestSessionManager_GenerateAndValidateJWT(t *testing.T) {
	sm := NewSessionManager(config.EnvConfig{AdminSessionSecret: "topsecret"})

	token, err := sm.GenerateJWT("alice", time.Hour)
	require.NoError(t, err)

	sub, err := sm.ValidateJWT(token)
	require.NoError(t, err)
	require.Equal(t, "alice", sub)
}

func TestSessionManager_ValidateJWT_RejectsExpired(t *testing.T) {
	sm := NewSessionManager(config.EnvConfig{AdminSessionSecret: "topsecret"})

	token, err := sm.GenerateJWT("alice", time.Nanosecond)
	require.NoError(t, err)
	time.Sleep(time.Millisecond)

	_, err = sm.ValidateJWT(token)
	require.Error(t, err)
}

func TestSessionManager_ValidateJWT_RejectsTamperedSignature(t *testing.T) {
	sm := NewSessionManager(config.EnvConfig{AdminSessionSecret: "topsecret"})
	other := NewSessionManager(config.EnvConfig{AdminSessionSecret: "different"})

	token, err := sm.GenerateJWT("alice", time.Hour)
	require.NoError(t, err)

	_, err = other.ValidateJWT(token)
	require.Error(t, err)
}

func TestAdminBearerRequired_RejectsMissingToken(t *testing.T) {
	a := &AdminServer{sessionManager: NewSessionManager(config.EnvConfig{AdminSessionSecret: "s"})}
	called := false
	h := a.AdminBearerRequired(func(http.ResponseWriter, *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodGet, "/admin/api/status", nil)
	rec := httptest.NewRecorder()
	h(rec, req)

	require.False(t, called)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminBearerRequired_AcceptsValidToken(t *testing.T) {
	sm := NewSessionManager(config.EnvConfig{AdminSessionSecret: "s"})
	a := &AdminServer{sessionManager: sm}
	token, err := sm.GenerateJWT("alice", time.Hour)
	require.NoError(t, err)

	called := false
	h := a.AdminBearerRequired(func(http.ResponseWriter, *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodGet, "/admin/api/status", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h(rec, req)

	require.True(t, called)
	require.Equal(t, http.StatusOK, rec.Code)
}
