package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmbarbier/blueprint/internal/services"
)

// AuthHandler exchanges API keys for bearer tokens.
type AuthHandler struct {
	auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{
		auth: auth,
	}
}

type TokenRequest struct {
	ClientID string `json:"client_id" binding:"required"`
	APIKey   string `json:"api_key" binding:"required"`
}

type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// Token authenticates a configured client and issues a JWT.
func (h *AuthHandler) Token(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "client_id and api_key are required")
		return
	}

	if err := h.auth.Authenticate(req.ClientID, req.APIKey); err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			RespondError(c, http.StatusUnauthorized, err.Error())
			return
		}
		RespondError(c, http.StatusInternalServerError, "failed to authenticate client")
		return
	}

	token, expiresAt, err := h.auth.IssueToken(req.ClientID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "failed to issue token")
		return
	}

	RespondData(c, TokenResponse{
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	})
}
