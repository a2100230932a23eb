package handlers

import (
	"net/http"

	"github.com/campusnet/campusnet/backend/go-services/internal/auth"
	"github.com/campusnet/campusnet/backend/go-services/pkg/middleware"
	"github.com/campusnet/campusnet/backend/go-services/pkg/response"
	"github.com/gin-gonic/gin"
)

// AuthHandler exposes the credential endpoints.
type AuthHandler struct {
	svc *auth.Service
}

func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Register routes directly under /api
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/register", h.SignUp)
	rg.POST("/login", h.Login)
	rg.POST("/refresh-token", h.Refresh)
	rg.POST("/logout", h.Logout)
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var in auth.RegisterInput
	if !bind(c, &in) {
		return
	}
	u, token, err := h.svc.Register(c.Request.Context(), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "user registered", "token": token, "user": u})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var in auth.LoginInput
	if !bind(c, &in) {
		return
	}
	res, err := h.svc.Login(c.Request.Context(), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      "login successful",
		"accessToken":  res.AccessToken,
		"refreshToken": res.RefreshToken,
		"user":         res.User,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Refresh accepts a refresh token and returns a new access token
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	_ = c.ShouldBindJSON(&req)
	access, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accessToken": access})
}

// Logout ends the session of the refresh token and revokes the bearer access token if one is sent.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	_ = c.ShouldBindJSON(&req)
	if err := h.svc.Logout(c.Request.Context(), req.RefreshToken, middleware.BearerToken(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "logged out")
}
