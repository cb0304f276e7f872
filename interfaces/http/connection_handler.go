package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"social-publisher/domain/dto"
	"social-publisher/domain/model"
	"social-publisher/infrastructure/audit"
	"social-publisher/infrastructure/logger"
	"social-publisher/usecase"
)

type IConnectionHandler interface {
	List(ctx *gin.Context)
	Upsert(ctx *gin.Context)
	Test(ctx *gin.Context)
	Delete(ctx *gin.Context)
}

type ConnectionHandler struct {
	connUsecase usecase.IConnectionUsecase
	auditLog    *audit.Logger
}

func NewConnectionHandler(uc usecase.IConnectionUsecase, auditLog *audit.Logger) IConnectionHandler {
	return &ConnectionHandler{connUsecase: uc, auditLog: auditLog}
}

// requireTenantScope matches the requested tenant against the token's
// claim. 403 here means the caller is authenticated but reaching across
// tenants.
func requireTenantScope(ctx *gin.Context, tenantID string) bool {
	if tenantID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "tenantId is required"})
		return false
	}
	if claim := ctx.GetString("tenant_id"); claim != tenantID {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "tenant scope mismatch"})
		return false
	}
	return true
}

func (h *ConnectionHandler) List(ctx *gin.Context) {
	tenantID := ctx.Query("tenantId")
	if !requireTenantScope(ctx, tenantID) {
		return
	}
	conns, err := h.connUsecase.List(ctx.Request.Context(), tenantID)
	if err != nil {
		logger.GetLogger().WithField("tenant_id", tenantID).WithField("error", err.Error()).Error("list connections failed")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if conns == nil {
		conns = []*model.SocialConnection{}
	}
	ctx.JSON(http.StatusOK, gin.H{"connections": conns})
}

func (h *ConnectionHandler) Upsert(ctx *gin.Context) {
	var req dto.UpsertConnectionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if !requireTenantScope(ctx, req.TenantID) {
		return
	}
	if !req.Platform.IsValid() {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "unknown platform: " + string(req.Platform)})
		return
	}
	conn, err := h.connUsecase.Upsert(ctx.Request.Context(), &req, ctx.GetString("user_id"))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.auditLog.Log(audit.Entry{
		Event:    "connection_upsert",
		TenantID: req.TenantID,
		UserID:   ctx.GetString("user_id"),
		Detail:   string(req.Platform) + ":" + conn.ID,
	})
	ctx.JSON(http.StatusOK, gin.H{"connection": conn})
}

func (h *ConnectionHandler) Test(ctx *gin.Context) {
	var req dto.TestConnectionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if !requireTenantScope(ctx, req.TenantID) {
		return
	}
	res, err := h.connUsecase.TestConnection(ctx.Request.Context(), req.TenantID, req.ConnectionID)
	if err != nil {
		if errors.Is(err, usecase.ErrConnectionNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, res)
}

func (h *ConnectionHandler) Delete(ctx *gin.Context) {
	tenantID := ctx.Param("tenantId")
	connID := ctx.Param("connId")
	if !requireTenantScope(ctx, tenantID) {
		return
	}
	if err := h.connUsecase.Delete(ctx.Request.Context(), tenantID, connID); err != nil {
		if errors.Is(err, usecase.ErrConnectionNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.auditLog.Log(audit.Entry{
		Event:    "connection_delete",
		TenantID: tenantID,
		UserID:   ctx.GetString("user_id"),
		Detail:   connID,
	})
	ctx.JSON(http.StatusOK, gin.H{"deleted": connID})
}
