package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/snaplink/snaplink/internal/service"
)

type AuthHandler struct {
	svc    service.AuthService
	logger *zap.Logger
}

func NewAuthHandler(svc service.AuthService) *AuthHandler {
	return &AuthHandler{
		svc:    svc,
		logger: zap.L().With(zap.String("component", "AuthHandler")),
	}
}

// DTOs
type AuthRequest struct {
	Username string `json:"username" binding:"required,username"`
	Password string `json:"password" binding:"required,min=5,max=32"`
}

type AuthResponse struct {
	AccessToken string `json:"accessToken"`
}

// Register creates a new account. 201 on success with an empty body.
func (h *AuthHandler) Register(c *gin.Context) {
	var req AuthRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.svc.Register(c.Request.Context(), req.Username, req.Password); err != nil {
		handleError(c, err)
		return
	}

	c.Status(http.StatusCreated)
}

// Login exchanges credentials for an access token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req AuthRequest
	if !bindJSON(c, &req) {
		return
	}

	accessToken, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, AuthResponse{AccessToken: accessToken})
}
