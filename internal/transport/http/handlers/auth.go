package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sweetworks/sweetshop-api/internal/core/domain"
	"github.com/sweetworks/sweetshop-api/internal/infra/config"
	"github.com/sweetworks/sweetshop-api/internal/transport/http/middleware"
	"github.com/sweetworks/sweetshop-api/internal/usecase"
)

// RefreshTokenCookie is the HttpOnly cookie carrying the refresh token for
// browser clients. Scoped to the auth endpoints so it is not replayed on
// every request.
const RefreshTokenCookie = "refresh_token"

const refreshCookiePath = "/api/v1/auth"

// AuthHandler exposes the authentication endpoints.
type AuthHandler struct {
	auth       *usecase.AuthService
	cookies    config.CookieSettings
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(auth *usecase.AuthService, cookies config.CookieSettings, accessTTL, refreshTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		auth:       auth,
		cookies:    cookies,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// RegisterRoutes binds authentication routes, applying optional middleware
// ahead of the login handler.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, authMiddleware gin.HandlerFunc, loginMiddlewares ...gin.HandlerFunc) {
	r.POST("/register", h.register)

	chain := append([]gin.HandlerFunc{}, loginMiddlewares...)
	chain = append(chain, h.login)
	r.POST("/login", chain...)

	r.POST("/refresh", h.refresh)
	// Logout stays reachable without a valid access token so a client can
	// always revoke its refresh token; the access token is verified
	// best-effort inside the handler.
	r.POST("/logout", h.logout)
	r.POST("/logout-all", authMiddleware, h.logoutAll)
	r.GET("/me", authMiddleware, h.me)
}

func (h *AuthHandler) sameSite() http.SameSite {
	switch strings.ToLower(h.cookies.SameSite) {
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteStrictMode
	}
}

func (h *AuthHandler) setAuthCookies(c *gin.Context, pair *usecase.TokenPair) {
	c.SetSameSite(h.sameSite())
	c.SetCookie(middleware.AccessTokenCookie, pair.AccessToken,
		int(h.accessTTL.Seconds()), "/", h.cookies.Domain, h.cookies.Secure, true)
	c.SetCookie(RefreshTokenCookie, pair.RefreshToken,
		int(h.refreshTTL.Seconds()), refreshCookiePath, h.cookies.Domain, h.cookies.Secure, true)
}

func (h *AuthHandler) clearAuthCookies(c *gin.Context) {
	c.SetSameSite(h.sameSite())
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", h.cookies.Domain, h.cookies.Secure, true)
	c.SetCookie(RefreshTokenCookie, "", -1, refreshCookiePath, h.cookies.Domain, h.cookies.Secure, true)
}

func clientContext(c *gin.Context) domain.ClientContext {
	return domain.ClientContext{
		UserAgent: c.Request.UserAgent(),
		IP:        c.ClientIP(),
	}
}

func (h *AuthHandler) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid registration payload"))
		return
	}

	pair, user, err := h.auth.Register(c.Request.Context(), usecase.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}, clientContext(c))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidEmail, Status: http.StatusBadRequest, Message: "invalid email address"},
			{Err: usecase.ErrWeakPassword, Status: http.StatusBadRequest, Message: "password must be at least 8 characters"},
			{Err: usecase.ErrEmailTaken, Status: http.StatusConflict, Message: "email already registered"},
		}, http.StatusInternalServerError, "registration failed")
		return
	}

	h.setAuthCookies(c, pair)

	c.JSON(http.StatusCreated, gin.H{
		"user": newUserResponse(user),
		"tokens": TokenResponse{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
			TokenType:    "Bearer",
			ExpiresIn:    pair.ExpiresIn,
		},
	})
}

func (h *AuthHandler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid login payload"))
		return
	}

	pair, _, err := h.auth.Login(c.Request.Context(), req.Email, req.Password, clientContext(c))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid credentials"},
		}, http.StatusInternalServerError, "login failed")
		return
	}

	h.setAuthCookies(c, pair)

	c.JSON(http.StatusOK, TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    pair.ExpiresIn,
	})
}

func (h *AuthHandler) refresh(c *gin.Context) {
	var req RefreshRequest
	_ = c.ShouldBindJSON(&req)

	secret := strings.TrimSpace(req.RefreshToken)
	if secret == "" {
		if cookie, err := c.Cookie(RefreshTokenCookie); err == nil {
			secret = strings.TrimSpace(cookie)
		}
	}
	if secret == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "missing refresh token"))
		return
	}

	pair, err := h.auth.Refresh(c.Request.Context(), secret, clientContext(c))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidRefreshToken, Status: http.StatusUnauthorized, Message: "invalid refresh token"},
			{Err: usecase.ErrExpiredRefreshToken, Status: http.StatusUnauthorized, Message: "refresh token expired"},
		}, http.StatusInternalServerError, "token refresh failed")
		return
	}

	h.setAuthCookies(c, pair)

	c.JSON(http.StatusOK, TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    pair.ExpiresIn,
	})
}

func (h *AuthHandler) logout(c *gin.Context) {
	var req LogoutRequest
	_ = c.ShouldBindJSON(&req)

	secret := strings.TrimSpace(req.RefreshToken)
	if secret == "" {
		if cookie, err := c.Cookie(RefreshTokenCookie); err == nil {
			secret = strings.TrimSpace(cookie)
		}
	}

	if err := h.auth.LogoutWithTokens(c.Request.Context(), middleware.ExtractAccessToken(c), secret); err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "logout failed"))
		return
	}

	h.clearAuthCookies(c)

	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *AuthHandler) logoutAll(c *gin.Context) {
	claims := middleware.GetClaims(c)

	revoked, err := h.auth.LogoutAll(c.Request.Context(), claims)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "logout failed"))
		return
	}

	h.clearAuthCookies(c)

	c.JSON(http.StatusOK, gin.H{
		"message":          "all sessions revoked",
		"sessions_revoked": revoked,
	})
}

func (h *AuthHandler) me(c *gin.Context) {
	user := middleware.GetUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	c.JSON(http.StatusOK, newUserResponse(user))
}
