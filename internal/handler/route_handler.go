package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chennai-transit/service-pass/internal/application"
	"github.com/chennai-transit/service-pass/internal/pkg/auth"
	"github.com/chennai-transit/service-pass/internal/pkg/middleware"
	"github.com/chennai-transit/service-pass/internal/pkg/response"
)

// RouteHandler handles HTTP requests for route selection and fare quoting.
type RouteHandler struct {
	service *application.RouteService
}

// NewRouteHandler creates a new RouteHandler.
func NewRouteHandler(service *application.RouteService) *RouteHandler {
	return &RouteHandler{service: service}
}

// RegisterRoutes registers route selection routes on the given router group.
func (h *RouteHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	routes := r.Group("/api/v1/route")
	routes.Use(middleware.AuthMiddleware(jwtManager))
	{
		routes.GET("/selection", h.GetSelection)
		routes.POST("/selection", h.SelectByText)
		routes.POST("/selection/points", h.PickPoint)
		routes.DELETE("/selection", h.ResetSelection)
		routes.POST("/quote", h.Quote)
		routes.GET("/geometry", h.Geometry)
	}
}

// GetSelection handles GET /api/v1/route/selection.
func (h *RouteHandler) GetSelection(c *gin.Context) {
	riderID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	response.Success(c, h.service.GetSelection(riderID))
}

// SelectByText handles POST /api/v1/route/selection.
func (h *RouteHandler) SelectByText(c *gin.Context) {
	riderID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.SelectByTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.SelectByText(c.Request.Context(), riderID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// PickPoint handles POST /api/v1/route/selection/points.
func (h *RouteHandler) PickPoint(c *gin.Context) {
	riderID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.PickPointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.PickPoint(riderID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ResetSelection handles DELETE /api/v1/route/selection.
func (h *RouteHandler) ResetSelection(c *gin.Context) {
	riderID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	response.Success(c, h.service.Reset(riderID))
}

// Quote handles POST /api/v1/route/quote.
func (h *RouteHandler) Quote(c *gin.Context) {
	riderID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.Quote(riderID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Geometry handles GET /api/v1/route/geometry.
func (h *RouteHandler) Geometry(c *gin.Context) {
	riderID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	points, err := h.service.RouteGeometry(c.Request.Context(), riderID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"points": points})
}
