package handlers

import (
	"net/http"
	"time"

	"wardrobe/internal/identity"
	"wardrobe/internal/middleware"
	"wardrobe/internal/models"
	"wardrobe/internal/wardrobe"

	"github.com/gin-gonic/gin"
)

type sessionResponse struct {
	Token     string              `json:"token"`
	ExpiresAt string              `json:"expiresAt"`
	User      *models.UserProfile `json:"user"`
}

func (h *Handler) startSession(c *gin.Context, status int, sess *identity.Session) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.SessionCookie, sess.Token, int(h.svc.SessionDuration().Seconds()), "/", "", !h.cfg.IsDevelopment(), true)

	c.JSON(status, sessionResponse{
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt.UTC().Format(time.RFC3339),
		User:      sess.Profile,
	})
}

func (h *Handler) handleRegister(c *gin.Context) {
	var req wardrobe.Registration
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed JSON body")
		return
	}

	sess, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	h.startSession(c, http.StatusCreated, sess)
}

func (h *Handler) handleLogin(c *gin.Context) {
	var req wardrobe.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed JSON body")
		return
	}

	sess, err := h.svc.SignIn(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	h.startSession(c, http.StatusOK, sess)
}

type googleLoginRequest struct {
	IDToken string `json:"idToken"`
}

func (h *Handler) handleGoogleLogin(c *gin.Context) {
	var req googleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed JSON body")
		return
	}

	sess, err := h.svc.SignInWithGoogle(c.Request.Context(), req.IDToken)
	if err != nil {
		respondError(c, err)
		return
	}
	h.startSession(c, http.StatusOK, sess)
}

func (h *Handler) handleLogout(c *gin.Context) {
	if err := h.svc.SignOut(c.Request.Context(), middleware.SessionToken(c)); err != nil {
		respondError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", !h.cfg.IsDevelopment(), true)
	c.Status(http.StatusNoContent)
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

// handleRequestPasswordReset always answers 202 so the endpoint cannot be
// used to probe for registered addresses.
func (h *Handler) handleRequestPasswordReset(c *gin.Context) {
	var req passwordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		badRequest(c, "email is required")
		return
	}

	if err := h.svc.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "If the address is registered, a reset link has been sent"})
}

func (h *Handler) handleResetPassword(c *gin.Context) {
	var req wardrobe.PasswordReset
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed JSON body")
		return
	}

	if err := h.svc.ResetPassword(c.Request.Context(), req); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
