package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coltrade/backend/internal/application/identity"
	"github.com/coltrade/backend/internal/infrastructure/auth"
	"github.com/coltrade/backend/internal/infrastructure/config"
	"github.com/coltrade/backend/internal/interfaces/http/middleware"
	"github.com/coltrade/backend/internal/interfaces/http/router"
)

const usersFile = "usuarios.json"

func newAuthEngine(t *testing.T) *gin.Engine {
	t.Helper()
	store := newStore(t, map[string]string{
		usersFile: `[{"username": "juli", "email": "juli@example.com", "name": "Julian", "password": "secreto"}]`,
	})
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		RefreshSecret:          "test-refresh-secret-key-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 150 * time.Minute,
		Issuer:                 "test-issuer",
	})
	blocklist := auth.NewInMemoryTokenBlocklist()
	svc := identity.NewAuthService(auth.NewUserDirectory(store, usersFile), jwtService, blocklist, zap.NewNop())
	h := NewAuthHandler(svc, config.CookieConfig{Path: "/", SameSite: "lax"})

	protected := router.NewDomainGroup("protected", "").
		Use(middleware.JWTAuthMiddleware(middleware.DefaultJWTConfig(jwtService, blocklist))).
		Add(router.NewDomainGroup("api", "/api").Add(h.Routes()))
	return newEngine(h.PublicRoutes(), protected)
}

func send(engine http.Handler, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func cookieNamed(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func msgOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	msg, _ := body["msg"].(string)
	return msg
}

func login(t *testing.T, engine http.Handler) (access, refresh *http.Cookie) {
	t.Helper()
	w := send(engine, http.MethodPost, "/api/login", `{"email": "juli@example.com", "password": "secreto"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	access = cookieNamed(w, middleware.AccessCookieName)
	refresh = cookieNamed(w, middleware.RefreshCookieName)
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	return access, refresh
}

func TestAuthHandler_Login(t *testing.T) {
	engine := newAuthEngine(t)

	w := send(engine, http.MethodPost, "/api/login", `{"user": "JULI", "password": "secreto"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body struct {
		Msg  string         `json:"msg"`
		User auth.UserClaim `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "login correcto", body.Msg)
	assert.Equal(t, "Julian", body.User.Name)

	access := cookieNamed(w, middleware.AccessCookieName)
	require.NotNil(t, access)
	assert.True(t, access.HttpOnly)
	assert.Equal(t, "/", access.Path)
	assert.Equal(t, http.SameSiteLaxMode, access.SameSite)

	refresh := cookieNamed(w, middleware.RefreshCookieName)
	require.NotNil(t, refresh)
	assert.Equal(t, middleware.RefreshCookiePath, refresh.Path)
}

func TestAuthHandler_LoginFailures(t *testing.T) {
	engine := newAuthEngine(t)

	w := send(engine, http.MethodPost, "/api/login", `{"user": "juli", "password": "otra"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "credenciales inválidas", msgOf(t, w))

	w = send(engine, http.MethodPost, "/api/login", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "usuario y contraseña requeridos", msgOf(t, w))

	w = send(engine, http.MethodPost, "/api/login", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_UserRequiresSession(t *testing.T) {
	engine := newAuthEngine(t)

	w := send(engine, http.MethodGet, "/api/user", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, `Missing cookie "access_token_cookie"`, msgOf(t, w))

	access, _ := login(t, engine)
	w = send(engine, http.MethodGet, "/api/user", "", access)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user": {"email": "juli@example.com", "username": "juli", "name": "Julian"}}`, w.Body.String())
}

func TestAuthHandler_Refresh(t *testing.T) {
	engine := newAuthEngine(t)
	_, refresh := login(t, engine)

	w := send(engine, http.MethodPost, "/api/refresh", "", refresh)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "access refreshed", msgOf(t, w))
	assert.NotNil(t, cookieNamed(w, middleware.AccessCookieName))

	w = send(engine, http.MethodPost, "/api/refresh", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_Logout(t *testing.T) {
	engine := newAuthEngine(t)
	access, refresh := login(t, engine)

	w := send(engine, http.MethodPost, "/api/logout", "", access, refresh)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "logout successful", msgOf(t, w))

	cleared := cookieNamed(w, middleware.AccessCookieName)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)

	w = send(engine, http.MethodGet, "/api/user", "", access)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Token revocado", msgOf(t, w))

	w = send(engine, http.MethodPost, "/api/refresh", "", refresh)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
