package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/coltrade/backend/internal/application/identity"
	"github.com/coltrade/backend/internal/domain/shared"
	"github.com/coltrade/backend/internal/infrastructure/config"
	"github.com/coltrade/backend/internal/interfaces/http/dto"
	"github.com/coltrade/backend/internal/interfaces/http/middleware"
	"github.com/coltrade/backend/internal/interfaces/http/router"
)

// LoginRequest accepts the login under any of user, email or username
type LoginRequest struct {
	User     string `json:"user"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r LoginRequest) login() string {
	for _, v := range []string{r.User, r.Email, r.Username} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// AuthHandler serves the cookie session endpoints. Every reply is a bare
// {"msg": ...} body.
type AuthHandler struct {
	BaseHandler
	authService *identity.AuthService
	cookies     config.CookieConfig
	now         func() time.Time
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *identity.AuthService, cookies config.CookieConfig) *AuthHandler {
	return &AuthHandler{authService: authService, cookies: cookies, now: time.Now}
}

// Login handles POST /api/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, dto.Message{Msg: "usuario y contraseña requeridos"})
		return
	}

	result, err := h.authService.Login(c.Request.Context(), identity.LoginInput{
		Login:    req.login(),
		Password: req.Password,
		IP:       c.ClientIP(),
	})
	if err != nil {
		h.message(c, err)
		return
	}

	h.setTokenCookies(c, result.Tokens)
	c.JSON(http.StatusOK, gin.H{"msg": "login correcto", "user": result.User})
}

// Refresh handles POST /api/refresh with the refresh cookie
func (h *AuthHandler) Refresh(c *gin.Context) {
	token, err := c.Cookie(middleware.RefreshCookieName)
	if err != nil || token == "" {
		c.JSON(http.StatusUnauthorized, dto.Message{Msg: `Missing cookie "` + middleware.RefreshCookieName + `"`})
		return
	}

	tokens, err := h.authService.Refresh(c.Request.Context(), token)
	if err != nil {
		h.message(c, err)
		return
	}

	h.setTokenCookies(c, *tokens)
	c.JSON(http.StatusOK, dto.Message{Msg: "access refreshed"})
}

// Logout handles POST /api/logout. The access token id and the refresh
// cookie are blocklisted and both cookies cleared.
func (h *AuthHandler) Logout(c *gin.Context) {
	input := identity.LogoutInput{}
	if claims := middleware.GetJWTClaims(c); claims != nil {
		input.AccessJTI = claims.ID
		input.AccessTTL = claims.GetRemainingTTL()
	}
	input.RefreshToken, _ = c.Cookie(middleware.RefreshCookieName)

	if err := h.authService.Logout(c.Request.Context(), input); err != nil {
		h.message(c, err)
		return
	}

	h.clearCookies(c)
	c.JSON(http.StatusOK, dto.Message{Msg: "logout successful"})
}

// User handles GET /api/user
func (h *AuthHandler) User(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		c.JSON(http.StatusInternalServerError, dto.Message{Msg: "no se pudo obtener usuario"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": claims.User})
}

// PublicRoutes returns the /api routes reachable without a session
func (h *AuthHandler) PublicRoutes() *router.DomainGroup {
	return router.NewDomainGroup("auth", "/api").
		POST("/login", h.Login).
		POST("/refresh", h.Refresh)
}

// Routes returns the session routes that need a valid access token,
// relative to /api
func (h *AuthHandler) Routes() *router.DomainGroup {
	return router.NewDomainGroup("session", "").
		POST("/logout", h.Logout).
		GET("/user", h.User)
}

func (h *AuthHandler) message(c *gin.Context, err error) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		c.JSON(dto.GetHTTPStatus(dto.NormalizeErrorCode(domainErr.Code)), dto.Message{Msg: domainErr.Message})
		return
	}
	h.HandleError(c, err)
}

func (h *AuthHandler) setTokenCookies(c *gin.Context, t identity.Tokens) {
	now := h.now()
	h.setCookie(c, middleware.AccessCookieName, t.AccessToken, h.cookies.Path, t.AccessTokenExpiresAt.Sub(now))
	h.setCookie(c, middleware.RefreshCookieName, t.RefreshToken, middleware.RefreshCookiePath, t.RefreshTokenExpiresAt.Sub(now))
}

func (h *AuthHandler) clearCookies(c *gin.Context) {
	h.setCookie(c, middleware.AccessCookieName, "", h.cookies.Path, -time.Second)
	h.setCookie(c, middleware.RefreshCookieName, "", middleware.RefreshCookiePath, -time.Second)
}

func (h *AuthHandler) setCookie(c *gin.Context, name, value, path string, ttl time.Duration) {
	c.SetSameSite(sameSite(h.cookies.SameSite))
	c.SetCookie(name, value, int(ttl.Seconds()), path, h.cookies.Domain, h.cookies.Secure, true)
}

func sameSite(mode string) http.SameSite {
	switch strings.ToLower(mode) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
