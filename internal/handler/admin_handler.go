package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/chennai-transit/service-pass/internal/application"
	passDomain "github.com/chennai-transit/service-pass/internal/domain/pass"
	"github.com/chennai-transit/service-pass/internal/pkg/auth"
	"github.com/chennai-transit/service-pass/internal/pkg/middleware"
	"github.com/chennai-transit/service-pass/internal/pkg/response"
)

// AdminHandler handles admin HTTP requests for pass management.
type AdminHandler struct {
	passes    *application.PassService
	renewals  *application.RenewalService
	documents *application.DocumentService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	passes *application.PassService,
	renewals *application.RenewalService,
	documents *application.DocumentService,
) *AdminHandler {
	return &AdminHandler{passes: passes, renewals: renewals, documents: documents}
}

// RegisterRoutes registers admin routes.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	adminRole := middleware.RequireRole(auth.RoleAdmin)

	admin := r.Group("/api/v1/admin")
	admin.Use(authMW, adminRole)
	{
		admin.GET("/passes", h.ListPasses)
		admin.POST("/passes/:id/approve", h.ApprovePass)
		admin.POST("/passes/:id/reject", h.RejectPass)
		admin.GET("/passes/:id/documents", h.ListPassDocuments)
		admin.GET("/renewals", h.ListRenewals)
		admin.POST("/renewals/:id/approve", h.ApproveRenewal)
		admin.POST("/renewals/:id/reject", h.RejectRenewal)
		admin.GET("/stats/passes", h.PassStats)
	}
}

// decisionBody carries the optional reviewer note on approve/reject.
type decisionBody struct {
	Note string `json:"note"`
}

// ListPasses handles GET /api/v1/admin/passes. An optional status
// query parameter filters the list.
func (h *AdminHandler) ListPasses(c *gin.Context) {
	page, limit := parsePagination(c)

	if raw := c.Query("status"); raw != "" {
		status, err := passDomain.ParseStatus(raw)
		if err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		passes, total, err := h.passes.ListPassesByStatus(c.Request.Context(), status, page, limit)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Paginated(c, passes, total, page, limit)
		return
	}

	passes, total, err := h.passes.ListAllPasses(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, passes, total, page, limit)
}

// ApprovePass handles POST /api/v1/admin/passes/:id/approve.
func (h *AdminHandler) ApprovePass(c *gin.Context) {
	passID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid pass ID")
		return
	}

	var body decisionBody
	_ = c.ShouldBindJSON(&body)

	result, err := h.passes.Approve(c.Request.Context(), passID, body.Note)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// RejectPass handles POST /api/v1/admin/passes/:id/reject.
func (h *AdminHandler) RejectPass(c *gin.Context) {
	passID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid pass ID")
		return
	}

	var body decisionBody
	_ = c.ShouldBindJSON(&body)

	result, err := h.passes.Reject(c.Request.Context(), passID, body.Note)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListPassDocuments handles GET /api/v1/admin/passes/:id/documents.
func (h *AdminHandler) ListPassDocuments(c *gin.Context) {
	passID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid pass ID")
		return
	}

	result, err := h.documents.GetPassDocuments(c.Request.Context(), passID, uuid.Nil, true)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ListRenewals handles GET /api/v1/admin/renewals. Renewals are
// reviewed per queue, so an absent status defaults to pending.
func (h *AdminHandler) ListRenewals(c *gin.Context) {
	page, limit := parsePagination(c)

	status, err := passDomain.ParseStatus(c.DefaultQuery("status", "pending"))
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	renewals, total, err := h.renewals.ListRenewalsByStatus(c.Request.Context(), status, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, renewals, total, page, limit)
}

// ApproveRenewal handles POST /api/v1/admin/renewals/:id/approve.
func (h *AdminHandler) ApproveRenewal(c *gin.Context) {
	renewalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid renewal ID")
		return
	}

	var body decisionBody
	_ = c.ShouldBindJSON(&body)

	result, err := h.renewals.Approve(c.Request.Context(), renewalID, body.Note)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// RejectRenewal handles POST /api/v1/admin/renewals/:id/reject.
func (h *AdminHandler) RejectRenewal(c *gin.Context) {
	renewalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid renewal ID")
		return
	}

	var body decisionBody
	_ = c.ShouldBindJSON(&body)

	result, err := h.renewals.Reject(c.Request.Context(), renewalID, body.Note)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// PassStats handles GET /api/v1/admin/stats/passes.
func (h *AdminHandler) PassStats(c *gin.Context) {
	stats, err := h.passes.GetPassStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}
