package authn

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-reviewer/internal/sessions"
	"resume-reviewer/internal/shared/auth"
	"resume-reviewer/internal/shared/server/middleware"
	"resume-reviewer/internal/shared/server/respond"
	"resume-reviewer/internal/upstream"
)

// PublicPaths are reachable without a bearer token.
var PublicPaths = []string{
	"/api/v1/auth/login",
	"/api/v1/auth/signup",
	"/api/v1/auth/logout",
	"/api/v1/auth/session",
}

// Registrar creates accounts with the review service.
type Registrar interface {
	Signup(ctx context.Context, req upstream.SignupRequest) error
}

// Handler wires HTTP handlers to the session service.
type Handler struct {
	Sessions  *sessions.Service
	Registrar Registrar
}

// NewHandler constructs a Handler.
func NewHandler(svc *sessions.Service, registrar Registrar) *Handler {
	return &Handler{Sessions: svc, Registrar: registrar}
}

// RegisterRoutes attaches auth routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/login", h.login)
	rg.POST("/auth/signup", h.signup)
	rg.POST("/auth/logout", h.logout)
	rg.GET("/auth/session", h.session)
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	session, err := h.Sessions.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.loginError(c, err)
		return
	}

	token, err := auth.SignJWT(auth.Claims{
		Sub: session.Username,
		Sid: session.ID,
		Iat: session.CreatedAt.Unix(),
		Exp: session.ExpiresAt.Unix(),
	})
	if err != nil {
		_ = h.Sessions.Logout(c.Request.Context(), session.ID)
		respond.Error(c, http.StatusInternalServerError, "internal", "failed to issue token", nil)
		return
	}

	respond.OK(c, LoginResponse{
		Token:     token,
		TokenType: "Bearer",
		Username:  session.Username,
		ExpiresAt: session.ExpiresAt,
	})
}

func (h *Handler) loginError(c *gin.Context, err error) {
	var se *upstream.StatusError
	switch {
	case errors.Is(err, sessions.ErrMissingCredentials):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, upstream.ErrNoToken):
		respond.Error(c, http.StatusBadGateway, "no_token", "No token received from the server", nil)
	case errors.As(err, &se) && se.Status >= 400 && se.Status < 500:
		message := se.Message
		if message == "" {
			message = "Failed to sign in. Please check your credentials and try again."
		}
		respond.Error(c, http.StatusUnauthorized, "invalid_credentials", message, nil)
	default:
		respond.Error(c, http.StatusBadGateway, "upstream_error", "Sign-in failed. Please try again.", nil)
	}
}

func (h *Handler) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if problem := req.problem(); problem != "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", problem, nil)
		return
	}

	err := h.Registrar.Signup(c.Request.Context(), upstream.SignupRequest{
		Email:    req.Email,
		Password: req.Password,
		UserName: req.userName(),
	})
	if err != nil {
		var se *upstream.StatusError
		if errors.As(err, &se) && se.Status < 500 {
			message := se.Message
			if message == "" {
				message = "Sign-up failed. Please try again."
			}
			respond.Error(c, se.Status, "signup_failed", message, nil)
			return
		}
		respond.Error(c, http.StatusBadGateway, "upstream_error", "Sign-up failed. Please check your connection and try again.", nil)
		return
	}

	respond.Created(c, gin.H{
		"message": "Signed up successfully! Please check your email for verification.",
	})
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.Sessions.Logout(c.Request.Context(), middleware.SessionIDFromContext(c)); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal", "failed to end session", nil)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) session(c *gin.Context) {
	session, err := h.Sessions.Current(c.Request.Context(), middleware.SessionIDFromContext(c))
	if err != nil {
		if errors.Is(err, sessions.ErrNotFound) || errors.Is(err, sessions.ErrExpired) {
			respond.OK(c, SessionResponse{Authenticated: false})
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal", "failed to load session", nil)
		return
	}
	expires := session.ExpiresAt
	respond.OK(c, SessionResponse{
		Authenticated: true,
		Username:      session.Username,
		ExpiresAt:     &expires,
	})
}
