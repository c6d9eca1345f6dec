package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chennai-transit/service-pass/internal/application"
	"github.com/chennai-transit/service-pass/internal/pkg/auth"
	"github.com/chennai-transit/service-pass/internal/pkg/middleware"
	"github.com/chennai-transit/service-pass/internal/pkg/response"
)

// AuthHandler handles HTTP requests for rider accounts.
type AuthHandler struct {
	service *application.RiderService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service *application.RiderService) *AuthHandler {
	return &AuthHandler{service: service}
}

// RegisterRoutes registers account routes on the given router group.
// Register and login are public; profile routes require a token.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authGroup := r.Group("/api/v1/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
	}

	riders := r.Group("/api/v1/riders")
	riders.Use(middleware.AuthMiddleware(jwtManager))
	{
		riders.GET("/me", h.GetProfile)
		riders.PATCH("/me", h.UpdateProfile)
	}
}

// Register handles POST /api/v1/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req application.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req application.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetProfile handles GET /api/v1/riders/me.
func (h *AuthHandler) GetProfile(c *gin.Context) {
	riderID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.GetProfile(c.Request.Context(), riderID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateProfile handles PATCH /api/v1/riders/me.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	riderID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateProfile(c.Request.Context(), riderID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
