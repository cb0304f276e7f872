package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"social-publisher/domain/dto"
	"social-publisher/usecase"
)

type IAnalyticsHandler interface {
	Sync(ctx *gin.Context)
	SyncStatus(ctx *gin.Context)
}

type AnalyticsHandler struct {
	analyticsUsecase usecase.IAnalyticsUsecase
}

func NewAnalyticsHandler(uc usecase.IAnalyticsUsecase) IAnalyticsHandler {
	return &AnalyticsHandler{analyticsUsecase: uc}
}

func (h *AnalyticsHandler) Sync(ctx *gin.Context) {
	var req dto.SyncRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if !requireTenantScope(ctx, req.TenantID) {
		return
	}
	result, err := h.analyticsUsecase.SyncTenant(ctx.Request.Context(), req.TenantID, req.CardIDs)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, result)
}

func (h *AnalyticsHandler) SyncStatus(ctx *gin.Context) {
	tenantID := ctx.Query("tenantId")
	if !requireTenantScope(ctx, tenantID) {
		return
	}
	status, ok, err := h.analyticsUsecase.SyncStatus(ctx.Request.Context(), tenantID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !ok {
		ctx.JSON(http.StatusOK, gin.H{"synced_ever": false})
		return
	}
	ctx.JSON(http.StatusOK, status)
}
