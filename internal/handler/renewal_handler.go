package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/chennai-transit/service-pass/internal/application"
	"github.com/chennai-transit/service-pass/internal/pkg/auth"
	"github.com/chennai-transit/service-pass/internal/pkg/middleware"
	"github.com/chennai-transit/service-pass/internal/pkg/response"
)

// RenewalHandler handles HTTP requests for pass renewals.
type RenewalHandler struct {
	service *application.RenewalService
}

// NewRenewalHandler creates a new RenewalHandler.
func NewRenewalHandler(service *application.RenewalService) *RenewalHandler {
	return &RenewalHandler{service: service}
}

// RegisterRoutes registers renewal routes on the given router group.
func (h *RenewalHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	renewals := r.Group("/api/v1/renewals")
	renewals.Use(middleware.AuthMiddleware(jwtManager))
	{
		renewals.POST("", h.RequestRenewal)
		renewals.GET("/:id", h.GetRenewal)
	}
}

// RequestRenewal handles POST /api/v1/renewals.
func (h *RenewalHandler) RequestRenewal(c *gin.Context) {
	riderID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.RequestRenewalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.Request(c.Request.Context(), riderID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// GetRenewal handles GET /api/v1/renewals/:id.
func (h *RenewalHandler) GetRenewal(c *gin.Context) {
	renewalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid renewal ID")
		return
	}

	riderID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.GetRenewal(c.Request.Context(), riderID, renewalID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
