package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"social-publisher/domain/dto"
	"social-publisher/domain/model"
	"social-publisher/infrastructure/audit"
	"social-publisher/usecase"
)

type IPublishHandler interface {
	Publish(ctx *gin.Context)
	History(ctx *gin.Context)
}

type PublishHandler struct {
	publishUsecase usecase.IPublishUsecase
	auditLog       *audit.Logger
}

func NewPublishHandler(uc usecase.IPublishUsecase, auditLog *audit.Logger) IPublishHandler {
	return &PublishHandler{publishUsecase: uc, auditLog: auditLog}
}

func (h *PublishHandler) Publish(ctx *gin.Context) {
	var req dto.PublishRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if !requireTenantScope(ctx, req.TenantID) {
		return
	}
	if req.ConnectionID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "connectionId is required"})
		return
	}
	res, err := h.publishUsecase.Publish(ctx.Request.Context(), &req, ctx.GetString("user_id"))
	if err != nil {
		if errors.Is(err, usecase.ErrConnectionNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.auditLog.Log(audit.Entry{
		Event:    "publish",
		TenantID: req.TenantID,
		UserID:   ctx.GetString("user_id"),
		Detail:   req.ConnectionID,
	})
	// Provider failures come back as {ok:false}; the request itself
	// succeeded, so the status stays 200.
	ctx.JSON(http.StatusOK, res)
}

func (h *PublishHandler) History(ctx *gin.Context) {
	tenantID := ctx.Query("tenantId")
	if !requireTenantScope(ctx, tenantID) {
		return
	}
	limit := 0
	if raw := ctx.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = parsed
	}
	records, err := h.publishUsecase.History(ctx.Request.Context(), tenantID, limit)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if records == nil {
		records = []*model.PublishRecord{}
	}
	ctx.JSON(http.StatusOK, gin.H{"history": records})
}
