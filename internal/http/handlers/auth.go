package handlers

import (
	"net/http"

	"github.com/eventlyhq/evently/internal/security"
	"github.com/gin-gonic/gin"
)

// TokenIssuer mints access tokens after a successful login.
type TokenIssuer interface {
	GenerateAccessToken(email, role string) (string, error)
}

// AuthHandler authenticates the single static admin identity from
// config against a bcrypt hash and hands back a bearer token.
type AuthHandler struct {
	jwt          TokenIssuer
	adminEmail   string
	passwordHash string
}

func NewAuthHandler(jwt TokenIssuer, adminEmail, passwordHash string) *AuthHandler {
	return &AuthHandler{
		jwt:          jwt,
		adminEmail:   adminEmail,
		passwordHash: passwordHash,
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req loginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if h.adminEmail == "" || h.passwordHash == "" {
		RespondUnauthorized(ctx, "login_disabled", "Admin login is not configured")
		return
	}

	// Same error for wrong email and wrong password, no oracle.
	if req.Email != h.adminEmail || security.CheckPassword(h.passwordHash, req.Password) != nil {
		RespondUnauthorized(ctx, "invalid_credentials", "Invalid email or password")
		return
	}

	token, err := h.jwt.GenerateAccessToken(req.Email, "admin")

	if err != nil {
		RespondInternal(ctx, "Could not issue token")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"accessToken": token,
		"tokenType":   "Bearer",
	})
}
