package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	httpHandler "social-publisher/interfaces/http"
	"social-publisher/interfaces/middleware"
)

// InitiateRouter wires the social publishing surface. Everything under
// /social requires a tenant-scoped JWT except the OAuth callback, which a
// provider redirect hits without credentials.
func InitiateRouter(
	connectionHandler httpHandler.IConnectionHandler,
	publishHandler httpHandler.IPublishHandler,
	oauthHandler httpHandler.IOAuthHandler,
	analyticsHandler httpHandler.IAnalyticsHandler,
	limiter *middleware.RateLimiter,
	secretKey string,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:4200", "http://localhost:4201", "https://localhost:4200", "https://localhost:4201"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Provider redirect target; trust is carried by the single-use state.
	router.GET("/social/oauth/callback", oauthHandler.Callback)

	social := router.Group("/social")
	social.Use(middleware.Auth(secretKey))
	{
		social.GET("/connections", connectionHandler.List)
		social.POST("/connections", connectionHandler.Upsert)
		social.POST("/connections/test", connectionHandler.Test)
		social.DELETE("/connections/:tenantId/:connId", connectionHandler.Delete)

		social.POST("/publish", limiter.Limit("social_publish", 30, time.Minute), publishHandler.Publish)
		social.GET("/history", publishHandler.History)

		social.POST("/analytics/sync", analyticsHandler.Sync)
		social.GET("/analytics/sync-status", analyticsHandler.SyncStatus)

		social.POST("/oauth/start", limiter.Limit("oauth_start", 10, time.Minute), oauthHandler.Start)
	}

	return router
}
