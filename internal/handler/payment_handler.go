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

// PaymentHandler handles HTTP requests for pass and renewal payments.
type PaymentHandler struct {
	service *application.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(service *application.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// RegisterRoutes registers payment routes on the given router group.
func (h *PaymentHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	passes := r.Group("/api/v1/passes")
	passes.Use(authMW)
	{
		passes.POST("/:id/payment/order", h.CreatePassOrder)
		passes.POST("/:id/payment/verify", h.VerifyPassPayment)
	}

	renewals := r.Group("/api/v1/renewals")
	renewals.Use(authMW)
	{
		renewals.POST("/:id/payment/order", h.CreateRenewalOrder)
		renewals.POST("/:id/payment/verify", h.VerifyRenewalPayment)
	}
}

// CreatePassOrder handles POST /api/v1/passes/:id/payment/order.
func (h *PaymentHandler) CreatePassOrder(c *gin.Context) {
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

	result, err := h.service.CreatePassOrder(c.Request.Context(), riderID, passID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// VerifyPassPayment handles POST /api/v1/passes/:id/payment/verify.
func (h *PaymentHandler) VerifyPassPayment(c *gin.Context) {
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

	var req application.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.service.VerifyPassPayment(c.Request.Context(), riderID, passID, req); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"verified": true})
}

// CreateRenewalOrder handles POST /api/v1/renewals/:id/payment/order.
func (h *PaymentHandler) CreateRenewalOrder(c *gin.Context) {
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

	result, err := h.service.CreateRenewalOrder(c.Request.Context(), riderID, renewalID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// VerifyRenewalPayment handles POST /api/v1/renewals/:id/payment/verify.
func (h *PaymentHandler) VerifyRenewalPayment(c *gin.Context) {
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

	var req application.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.service.VerifyRenewalPayment(c.Request.Context(), riderID, renewalID, req); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"verified": true})
}
