package handlers

import (
	"github.com/dimitrije/pod-console/internal/middleware"
	"github.com/dimitrije/pod-console/internal/services"
	"github.com/dimitrije/pod-console/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type AuthHandler struct {
	authService AuthServiceInterface
}

func NewAuthHandler(authService AuthServiceInterface) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func tokenResponse(res *services.LoginResult) dto.TokenResponse {
	return dto.TokenResponse{
		AccessToken: res.Token.Token,
		ExpiresIn:   res.Token.ExpiresIn,
		SessionID:   res.SessionID,
		Admin:       res.Admin,
	}
}

func (h *AuthHandler) Login(c *drift.Context) {
	var req dto.LoginRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if err := dto.Validate(req); err != nil {
		c.BadRequest(err.Error())
		return
	}

	res, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err, "failed to sign in")
		return
	}

	_ = c.JSON(200, tokenResponse(res))
}

func (h *AuthHandler) SetupPassword(c *drift.Context) {
	var req dto.SetupPasswordRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if err := dto.Validate(req); err != nil {
		c.BadRequest(err.Error())
		return
	}

	if err := h.authService.SetupPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		respondError(c, err, "failed to set password")
		return
	}

	_ = c.JSON(200, dto.MessageResponse{Message: "password set, you can sign in now"})
}

func (h *AuthHandler) Logout(c *drift.Context) {
	sessionID := middleware.GetSessionID(c)
	if sessionID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	if err := h.authService.Logout(c.Request.Context(), sessionID); err != nil {
		respondError(c, err, "failed to sign out")
		return
	}

	_ = c.JSON(200, dto.MessageResponse{Message: "signed out"})
}

func (h *AuthHandler) Me(c *drift.Context) {
	sessionID := middleware.GetSessionID(c)
	if sessionID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	admin, err := h.authService.Me(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, err, "failed to load profile")
		return
	}

	_ = c.JSON(200, admin)
}

// Refresh renews the upstream token now and issues a fresh console token.
func (h *AuthHandler) Refresh(c *drift.Context) {
	sessionID := middleware.GetSessionID(c)
	if sessionID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	res, err := h.authService.Refresh(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, err, "failed to refresh session")
		return
	}

	_ = c.JSON(200, tokenResponse(res))
}
