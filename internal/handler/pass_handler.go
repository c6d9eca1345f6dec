package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/chennai-transit/service-pass/internal/application"
	"github.com/chennai-transit/service-pass/internal/pkg/auth"
	"github.com/chennai-transit/service-pass/internal/pkg/middleware"
	"github.com/chennai-transit/service-pass/internal/pkg/response"
)

// PassHandler handles HTTP requests for pass applications.
type PassHandler struct {
	service   *application.PassService
	documents *application.DocumentService
}

// NewPassHandler creates a new PassHandler.
func NewPassHandler(service *application.PassService, documents *application.DocumentService) *PassHandler {
	return &PassHandler{service: service, documents: documents}
}

// RegisterRoutes registers pass routes on the given router group.
func (h *PassHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	passes := r.Group("/api/v1/passes")
	passes.Use(middleware.AuthMiddleware(jwtManager))
	{
		passes.POST("", h.Apply)
		passes.GET("", h.ListPasses)
		passes.GET("/status", h.GetStatus)
		passes.GET("/:id", h.GetPass)
		passes.POST("/:id/documents", h.UploadDocument)
		passes.GET("/:id/documents", h.ListDocuments)
	}
}

// Apply handles POST /api/v1/passes.
func (h *PassHandler) Apply(c *gin.Context) {
	riderID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.Apply(c.Request.Context(), riderID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListPasses handles GET /api/v1/passes.
func (h *PassHandler) ListPasses(c *gin.Context) {
	riderID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	page, limit := parsePagination(c)

	result, err := h.service.GetRiderPasses(c.Request.Context(), riderID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetStatus handles GET /api/v1/passes/status. Returns the rider's
// current application status, with a live renewal taking precedence
// over the pass it extends.
func (h *PassHandler) GetStatus(c *gin.Context) {
	riderID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.GetStatusProjection(c.Request.Context(), riderID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetPass handles GET /api/v1/passes/:id.
func (h *PassHandler) GetPass(c *gin.Context) {
	passID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid pass ID")
		return
	}

	riderID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.GetPass(c.Request.Context(), riderID, passID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UploadDocument handles POST /api/v1/passes/:id/documents.
func (h *PassHandler) UploadDocument(c *gin.Context) {
	passID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid pass ID")
		return
	}

	riderID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.UploadDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.documents.UploadDocument(c.Request.Context(), passID, riderID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListDocuments handles GET /api/v1/passes/:id/documents.
func (h *PassHandler) ListDocuments(c *gin.Context) {
	passID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid pass ID")
		return
	}

	riderID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.documents.GetPassDocuments(c.Request.Context(), passID, riderID, false)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// parsePagination extracts page and limit query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}
