package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupValidation(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodPost, "/api/auth/signup", "", gin.H{"mobile": "1234567890", "password": "secret1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid Indian mobile number")

	w = env.do(http.MethodPost, "/api/auth/signup", "", gin.H{"mobile": "9876543210", "password": "abc"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "at least 6 characters")

	w = env.do(http.MethodPost, "/api/auth/signup", "", gin.H{"mobile": "9876543210"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSignupAndLogin(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodPost, "/api/auth/signup", "", gin.H{"mobile": "9876543210", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[AuthResponse](t, w)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "9876543210", resp.User.Mobile)
	assert.NotZero(t, resp.User.ID)
	assert.NotContains(t, w.Body.String(), "password")

	w = env.do(http.MethodPost, "/api/auth/signup", "", gin.H{"mobile": "9876543210", "password": "secret2"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "already registered")

	w = env.do(http.MethodPost, "/api/auth/login", "", gin.H{"mobile": "9876543210", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, resp.User.ID, decode[AuthResponse](t, w).User.ID)

	w = env.do(http.MethodPost, "/api/auth/login", "", gin.H{"mobile": "9876543210", "password": "wrong-pw"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = env.do(http.MethodPost, "/api/auth/login", "", gin.H{"mobile": "9999999999", "password": "secret1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t, nil)
	token := env.signup("9876543210")

	w := env.do(http.MethodGet, "/api/guests", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "No token provided")

	w = env.do(http.MethodGet, "/api/guests", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodGet, "/api/guests?token="+token, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestRootAndMetrics(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Shaadi Planner API is running!", w.Body.String())

	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "shaadi_http_requests_total")
}
