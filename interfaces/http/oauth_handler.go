package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"social-publisher/domain/dto"
	"social-publisher/infrastructure/audit"
	"social-publisher/infrastructure/logger"
	"social-publisher/usecase"
)

type IOAuthHandler interface {
	Start(ctx *gin.Context)
	Callback(ctx *gin.Context)
}

type OAuthHandler struct {
	oauthUsecase usecase.IOAuthUsecase
	auditLog     *audit.Logger
}

func NewOAuthHandler(uc usecase.IOAuthUsecase, auditLog *audit.Logger) IOAuthHandler {
	return &OAuthHandler{oauthUsecase: uc, auditLog: auditLog}
}

func (h *OAuthHandler) Start(ctx *gin.Context) {
	var req dto.OAuthStartRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if !requireTenantScope(ctx, req.TenantID) {
		return
	}
	res, err := h.oauthUsecase.Start(ctx.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, usecase.ErrOAuthUnsupported) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.auditLog.Log(audit.Entry{
		Event:    "oauth_start",
		TenantID: req.TenantID,
		UserID:   ctx.GetString("user_id"),
		Detail:   string(req.Platform),
	})
	ctx.JSON(http.StatusOK, res)
}

// Callback is unauthenticated by design; the single-use state token carries
// all the trust. It lands in a browser popup, so frontend=1 renders a
// self-closing page that messages the opener.
func (h *OAuthHandler) Callback(ctx *gin.Context) {
	code := ctx.Query("code")
	state := ctx.Query("state")
	if denied := ctx.Query("error"); denied != "" {
		h.respond(ctx, false, "", "", "authorization was denied: "+denied)
		return
	}

	result, err := h.oauthUsecase.Callback(ctx.Request.Context(), code, state)
	if err != nil {
		logger.GetLogger().WithField("error", err.Error()).Warn("oauth callback failed")
		h.respond(ctx, false, "", "", err.Error())
		return
	}
	h.auditLog.Log(audit.Entry{
		Event:  "oauth_callback",
		Detail: fmt.Sprintf("%s:%s", result.Platform, result.ConnectionID),
	})
	h.respond(ctx, true, result.ConnectionID, result.DisplayName, "")
}

func (h *OAuthHandler) respond(ctx *gin.Context, connected bool, connectionID, displayName, errMsg string) {
	if ctx.Query("frontend") == "1" {
		ctx.Header("Content-Type", "text/html; charset=utf-8")
		_, _ = ctx.Writer.Write([]byte(fmt.Sprintf(
			`<!DOCTYPE html><html><head><title>Account Connected</title></head><body><script>if (window.opener){window.opener.postMessage({source:'social-oauth',connected:%t,connection_id:%q,display_name:%q,error:%q},'*');window.close();}else{document.write(%q);}</script></body></html>`,
			connected, connectionID, displayName, errMsg, popupFallbackText(connected, displayName, errMsg))))
		return
	}
	if !connected {
		status := http.StatusBadRequest
		ctx.JSON(status, gin.H{"connected": false, "error": errMsg})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"connected": true, "connection_id": connectionID, "display_name": displayName})
}

func popupFallbackText(connected bool, displayName, errMsg string) string {
	if connected {
		return "Connected: " + displayName
	}
	return "Connection failed: " + errMsg
}
