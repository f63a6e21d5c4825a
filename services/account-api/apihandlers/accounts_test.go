package apihandlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerTestAccount(t *testing.T, env *testEnv, username string, email string, password string) {
	t.Helper()

	body, contentType := buildRegistrationForm(t, map[string]string{
		"username":    username,
		"email":       email,
		"displayName": username,
		"password":    password,
	}, true)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/accounts/register", body)
	req.Header.Set("Content-Type", contentType)
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, "registration failed: %s", w.Body.String())
}

func loginTestAccount(t *testing.T, env *testEnv, identifier string, password string) (accessToken string, refreshToken string) {
	t.Helper()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/accounts/login",
		strings.NewReader(`{"username":"`+identifier+`","password":"`+password+`"}`))
	req.Header.Set("Content-Type", "application/json")
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, "login failed: %s", w.Body.String())

	var resp struct {
		Data struct {
			Token struct {
				AccessToken  string `json:"accessToken"`
				RefreshToken string `json:"refreshToken"`
			} `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.Token.AccessToken)
	require.NotEmpty(t, resp.Data.Token.RefreshToken)
	return resp.Data.Token.AccessToken, resp.Data.Token.RefreshToken
}

func renewWithToken(t *testing.T, env *testEnv, refreshToken string) *httptest.ResponseRecorder {
	t.Helper()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/accounts/token/renew",
		strings.NewReader(`{"refreshToken":"`+refreshToken+`"}`))
	req.Header.Set("Content-Type", "application/json")
	env.router.ServeHTTP(w, req)
	return w
}

func TestRegister(t *testing.T) {
	t.Run("successful registration omits secret fields", func(t *testing.T) {
		env := newTestEnv(t)

		body, contentType := buildRegistrationForm(t, map[string]string{
			"username":    "alice",
			"email":       "Alice@Example.com",
			"displayName": "Alice A.",
			"password":    "pw123",
		}, true)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/accounts/register", body)
		req.Header.Set("Content-Type", contentType)
		env.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), `"alice"`)
		assert.Contains(t, w.Body.String(), `"alice@example.com"`)
		assert.NotContains(t, w.Body.String(), "passwordHash")
		assert.NotContains(t, w.Body.String(), "refreshToken")
		assert.NotContains(t, w.Body.String(), "resetToken")
		assert.Len(t, env.avatarStore.stored, 1)
	})

	t.Run("missing field", func(t *testing.T) {
		env := newTestEnv(t)

		body, contentType := buildRegistrationForm(t, map[string]string{
			"username": "alice",
			"email":    "a@x.com",
			"password": "pw123",
		}, true)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/accounts/register", body)
		req.Header.Set("Content-Type", contentType)
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing avatar", func(t *testing.T) {
		env := newTestEnv(t)

		body, contentType := buildRegistrationForm(t, map[string]string{
			"username":    "alice",
			"email":       "a@x.com",
			"displayName": "Alice",
			"password":    "pw123",
		}, false)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/accounts/register", body)
		req.Header.Set("Content-Type", contentType)
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("duplicate email is conflict regardless of case", func(t *testing.T) {
		env := newTestEnv(t)
		registerTestAccount(t, env, "alice", "a@x.com", "pw123")

		body, contentType := buildRegistrationForm(t, map[string]string{
			"username":    "alice2",
			"email":       "A@X.COM",
			"displayName": "Other Alice",
			"password":    "pw456",
		}, true)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/accounts/register", body)
		req.Header.Set("Content-Type", contentType)
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("duplicate username is conflict", func(t *testing.T) {
		env := newTestEnv(t)
		registerTestAccount(t, env, "alice", "a@x.com", "pw123")

		body, contentType := buildRegistrationForm(t, map[string]string{
			"username":    "alice",
			"email":       "other@x.com",
			"displayName": "Alice",
			"password":    "pw456",
		}, true)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/accounts/register", body)
		req.Header.Set("Content-Type", contentType)
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("failed avatar upload prevents account creation", func(t *testing.T) {
		env := newTestEnv(t)
		env.avatarStore.failNext = true

		body, contentType := buildRegistrationForm(t, map[string]string{
			"username":    "alice",
			"email":       "a@x.com",
			"displayName": "Alice",
			"password":    "pw123",
		}, true)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/accounts/register", body)
		req.Header.Set("Content-Type", contentType)
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)

		_, err := env.store.GetUserByUsernameOrEmail("alice")
		assert.Error(t, err, "account must not exist without a stored avatar")
	})
}

func TestLogin(t *testing.T) {
	t.Run("with correct credentials", func(t *testing.T) {
		env := newTestEnv(t)
		registerTestAccount(t, env, "alice", "a@x.com", "pw123")

		_, refreshToken := loginTestAccount(t, env, "alice", "pw123")

		user, err := env.store.GetUserByUsernameOrEmail("alice")
		require.NoError(t, err)
		assert.Equal(t, refreshToken, user.RefreshToken, "refresh token must be persisted")
	})

	t.Run("by email", func(t *testing.T) {
		env := newTestEnv(t)
		registerTestAccount(t, env, "alice", "a@x.com", "pw123")

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/accounts/login",
			strings.NewReader(`{"email":"A@x.com","password":"pw123"}`))
		req.Header.Set("Content-Type", "application/json")
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("wrong password and unknown user are indistinguishable", func(t *testing.T) {
		env := newTestEnv(t)
		registerTestAccount(t, env, "alice", "a@x.com", "pw123")

		w1 := httptest.NewRecorder()
		req1 := httptest.NewRequest(http.MethodPost, "/v1/accounts/login",
			strings.NewReader(`{"username":"alice","password":"wrong"}`))
		req1.Header.Set("Content-Type", "application/json")
		env.router.ServeHTTP(w1, req1)

		w2 := httptest.NewRecorder()
		req2 := httptest.NewRequest(http.MethodPost, "/v1/accounts/login",
			strings.NewReader(`{"username":"nobody","password":"pw123"}`))
		req2.Header.Set("Content-Type", "application/json")
		env.router.ServeHTTP(w2, req2)

		assert.Equal(t, http.StatusUnauthorized, w1.Code)
		assert.Equal(t, http.StatusUnauthorized, w2.Code)
		assert.Equal(t, w1.Body.String(), w2.Body.String())
	})

	t.Run("missing credentials", func(t *testing.T) {
		env := newTestEnv(t)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/accounts/login",
			strings.NewReader(`{"password":"pw123"}`))
		req.Header.Set("Content-Type", "application/json")
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRenewAccessToken(t *testing.T) {
	t.Run("with current refresh token", func(t *testing.T) {
		env := newTestEnv(t)
		registerTestAccount(t, env, "alice", "a@x.com", "pw123")
		_, refreshToken := loginTestAccount(t, env, "alice", "pw123")

		w := renewWithToken(t, env, refreshToken)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "accessToken")

		user, err := env.store.GetUserByUsernameOrEmail("alice")
		require.NoError(t, err)
		assert.Equal(t, refreshToken, user.RefreshToken, "refresh token is not rotated on renew")
	})

	t.Run("superseded by a later login", func(t *testing.T) {
		env := newTestEnv(t)
		registerTestAccount(t, env, "alice", "a@x.com", "pw123")

		_, firstRefresh := loginTestAccount(t, env, "alice", "pw123")
		_, secondRefresh := loginTestAccount(t, env, "alice", "pw123")
		require.NotEqual(t, firstRefresh, secondRefresh)

		assert.Equal(t, http.StatusUnauthorized, renewWithToken(t, env, firstRefresh).Code)
		assert.Equal(t, http.StatusOK, renewWithToken(t, env, secondRefresh).Code)
	})

	t.Run("missing token", func(t *testing.T) {
		env := newTestEnv(t)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/accounts/token/renew", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		env := newTestEnv(t)
		assert.Equal(t, http.StatusUnauthorized, renewWithToken(t, env, "not-a-jwt").Code)
	})
}

func TestLogout(t *testing.T) {
	t.Run("clears the stored refresh token", func(t *testing.T) {
		env := newTestEnv(t)
		registerTestAccount(t, env, "alice", "a@x.com", "pw123")
		accessToken, refreshToken := loginTestAccount(t, env, "alice", "pw123")

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/accounts/logout", nil)
		req.Header.Set("Authorization", "Bearer "+accessToken)
		env.router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		user, err := env.store.GetUserByUsernameOrEmail("alice")
		require.NoError(t, err)
		assert.Empty(t, user.RefreshToken)

		assert.Equal(t, http.StatusUnauthorized, renewWithToken(t, env, refreshToken).Code)
	})

	t.Run("is idempotent", func(t *testing.T) {
		env := newTestEnv(t)
		registerTestAccount(t, env, "alice", "a@x.com", "pw123")
		accessToken, _ := loginTestAccount(t, env, "alice", "pw123")

		for i := 0; i < 2; i++ {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/v1/accounts/logout", nil)
			req.Header.Set("Authorization", "Bearer "+accessToken)
			env.router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code)
		}
	})

	t.Run("requires authentication", func(t *testing.T) {
		env := newTestEnv(t)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/accounts/logout", nil)
		env.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestProfileAndDelete(t *testing.T) {
	t.Run("profile returns the authenticated account", func(t *testing.T) {
		env := newTestEnv(t)
		registerTestAccount(t, env, "alice", "a@x.com", "pw123")
		accessToken, _ := loginTestAccount(t, env, "alice", "pw123")

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/accounts/me", nil)
		req.Header.Set("Authorization", "Bearer "+accessToken)
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"alice"`)
		assert.NotContains(t, w.Body.String(), "passwordHash")
	})

	t.Run("delete removes account and avatar", func(t *testing.T) {
		env := newTestEnv(t)
		registerTestAccount(t, env, "alice", "a@x.com", "pw123")
		accessToken, _ := loginTestAccount(t, env, "alice", "pw123")

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/v1/accounts/me", nil)
		req.Header.Set("Authorization", "Bearer "+accessToken)
		env.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		_, err := env.store.GetUserByUsernameOrEmail("alice")
		assert.Error(t, err)
		assert.Len(t, env.avatarStore.removed, 1)
	})
}

func TestEndToEndFlow(t *testing.T) {
	env := newTestEnv(t)

	// register
	registerTestAccount(t, env, "alice", "a@x.com", "pw123")

	// login
	accessToken, refreshToken := loginTestAccount(t, env, "alice", "pw123")
	user, err := env.store.GetUserByUsernameOrEmail("alice")
	require.NoError(t, err)
	require.Equal(t, refreshToken, user.RefreshToken)

	// login with wrong password
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/accounts/login",
		strings.NewReader(`{"username":"alice","password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "invalid credentials")

	// logout
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/v1/accounts/logout", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	user, err = env.store.GetUserByUsernameOrEmail("alice")
	require.NoError(t, err)
	require.Empty(t, user.RefreshToken)
}
