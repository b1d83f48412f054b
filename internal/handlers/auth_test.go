package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"carspace-backend/internal/config"
	"carspace-backend/internal/dto"
	"carspace-backend/internal/middleware"
	"carspace-backend/internal/store"
)

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:         "test-secret",
			AccessTokenTTL: time.Hour,
		},
	}
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, r)
	return w
}

func decodeAuthResponse(t *testing.T, w *httptest.ResponseRecorder) dto.AuthResponse {
	t.Helper()
	var resp dto.AuthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestSignupThenLogin(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	h := NewAuthHandler(store.NewMemoryUserStore(), cfg)

	w := postJSON(t, h.Signup, "/api/users/signup", dto.SignupRequest{Username: "alice", Password: "password1"})
	require.Equal(t, http.StatusCreated, w.Code)

	created := decodeAuthResponse(t, w)
	require.Equal(t, "alice", created.User.Username)
	require.NotEmpty(t, created.Token)

	w = postJSON(t, h.Login, "/api/users/login", dto.LoginRequest{Username: "alice", Password: "password1"})
	require.Equal(t, http.StatusOK, w.Code)

	loggedIn := decodeAuthResponse(t, w)
	require.Equal(t, created.User.ID, loggedIn.User.ID)

	// The issued token verifies back to the same identity
	claims, err := middleware.ValidateToken(loggedIn.Token, &cfg.JWT)
	require.NoError(t, err)
	require.Equal(t, created.User.ID, claims.UserID.String())
	require.Equal(t, "alice", claims.Username)
}

func TestSignup_DuplicateUsername(t *testing.T) {
	t.Parallel()

	h := NewAuthHandler(store.NewMemoryUserStore(), testConfig())

	w := postJSON(t, h.Signup, "/api/users/signup", dto.SignupRequest{Username: "alice", Password: "password1"})
	require.Equal(t, http.StatusCreated, w.Code)
	first := decodeAuthResponse(t, w)

	w = postJSON(t, h.Signup, "/api/users/signup", dto.SignupRequest{Username: "alice", Password: "other"})
	require.Equal(t, http.StatusConflict, w.Code)

	// The existing record is unchanged: original credentials still log in
	w = postJSON(t, h.Login, "/api/users/login", dto.LoginRequest{Username: "alice", Password: "password1"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, first.User.ID, decodeAuthResponse(t, w).User.ID)
}

func TestSignup_MissingFields(t *testing.T) {
	t.Parallel()

	h := NewAuthHandler(store.NewMemoryUserStore(), testConfig())

	w := postJSON(t, h.Signup, "/api/users/signup", dto.SignupRequest{Username: "alice"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(t, h.Signup, "/api/users/signup", dto.SignupRequest{Password: "password1"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin_BadCredentials(t *testing.T) {
	t.Parallel()

	h := NewAuthHandler(store.NewMemoryUserStore(), testConfig())

	w := postJSON(t, h.Signup, "/api/users/signup", dto.SignupRequest{Username: "alice", Password: "password1"})
	require.Equal(t, http.StatusCreated, w.Code)

	// Wrong password and unknown user respond identically
	w = postJSON(t, h.Login, "/api/users/login", dto.LoginRequest{Username: "alice", Password: "wrong"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	var wrongPass dto.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&wrongPass))

	w = postJSON(t, h.Login, "/api/users/login", dto.LoginRequest{Username: "nobody", Password: "password1"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	var unknownUser dto.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&unknownUser))

	require.Equal(t, wrongPass, unknownUser)
}

func TestMe(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	h := NewAuthHandler(store.NewMemoryUserStore(), cfg)

	w := postJSON(t, h.Signup, "/api/users/signup", dto.SignupRequest{Username: "alice", Password: "password1"})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeAuthResponse(t, w)

	r := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	r.Header.Set("Authorization", "Bearer "+created.Token)
	w = httptest.NewRecorder()
	middleware.AuthMiddleware(h.Me, &cfg.JWT)(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var profile dto.UserResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&profile))
	require.Equal(t, created.User.ID, profile.ID)
	require.Equal(t, "alice", profile.Username)
}
