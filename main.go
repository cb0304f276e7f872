package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/audit"
	"social-publisher/infrastructure/cache"
	"social-publisher/infrastructure/clients"
	"social-publisher/infrastructure/configuration"
	"social-publisher/infrastructure/logger"
	"social-publisher/infrastructure/persistence"
	httpHandler "social-publisher/interfaces/http"
	"social-publisher/interfaces/middleware"
	"social-publisher/server"
	"social-publisher/usecase"

	"golang.org/x/sync/errgroup"
)

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	// Load env from files (non-destructive; OS env still has precedence)
	configuration.LoadEnvFromFile("config.env", ".env")
	cfg := configuration.C

	// Key/value store: Redis in production, in-memory fallback when it is
	// unreachable (connections and history then live only for the process).
	var kv repository.KeyValue
	redisKV, err := cache.NewRedisKV(
		ctx,
		fmt.Sprintf("%s:%s", cfg.RedisClient.Host, cfg.RedisClient.Port),
		cfg.RedisClient.Username,
		cfg.RedisClient.Password,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Redis not available - falling back to in-memory store")
		kv = cache.NewMemoryKV()
	} else {
		logger.GetLogger().Info("Redis client initialized successfully.")
		kv = redisKV
	}

	// Content card store is optional; without it analytics sync is disabled
	// but connections and publishing keep working.
	var contentRepo repository.IContentCard
	psqlDb, err := persistence.NewPostgreSQLDB()
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("PostgreSQL not available - analytics sync disabled")
		contentRepo = unavailableContentStore{}
	} else {
		logger.GetLogger().WithField("PSQLDb", psqlDb.Ping()).Info("Database connected.")
		contentRepo = persistence.NewContentCardRepository(psqlDb)
	}

	connRepo := persistence.NewConnectionRepository(kv)
	historyRepo := persistence.NewHistoryRepository(kv)
	stateRepo := persistence.NewOAuthStateRepository(kv)
	statusRepo := persistence.NewSyncStatusRepository(kv)

	registry := clients.NewRegistry(cfg.Social.HTTPTimeout())
	auditLog := audit.NewLogger(kv)

	connUsecase := usecase.NewConnectionUsecase(connRepo, registry)
	publishUsecase := usecase.NewPublishUsecase(connUsecase, historyRepo, registry)
	oauthUsecase := usecase.NewOAuthUsecase(stateRepo, connRepo, cfg.OAuth, &http.Client{Timeout: cfg.Social.HTTPTimeout()})
	analyticsUsecase := usecase.NewAnalyticsUsecase(connRepo, historyRepo, contentRepo, statusRepo, registry, cfg.Social.SyncConcurrency)

	connectionHandler := httpHandler.NewConnectionHandler(connUsecase, auditLog)
	publishHandler := httpHandler.NewPublishHandler(publishUsecase, auditLog)
	oauthHandler := httpHandler.NewOAuthHandler(oauthUsecase, auditLog)
	analyticsHandler := httpHandler.NewAnalyticsHandler(analyticsUsecase)
	limiter := middleware.NewRateLimiter()

	router := server.InitiateRouter(connectionHandler, publishHandler, oauthHandler, analyticsHandler, limiter, cfg.App.SecretKey)

	// Audit drain loop; entries flush on the interval and once at shutdown.
	g.Go(func() error {
		return auditLog.Run(ctx, time.Duration(cfg.Social.AuditFlushSeconds)*time.Second)
	})

	port := cfg.App.Port
	logger.GetLogger().WithField("port", port).Info("Starting application")
	g.Go(func() error {
		httpServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		}
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if httpServer != nil {
		_ = httpServer.Shutdown(shutdownCtx)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}

// unavailableContentStore stands in when PostgreSQL is not configured.
type unavailableContentStore struct{}

func (unavailableContentStore) ListPublished(ctx context.Context, tenantID string, cardIDs []string) ([]*model.ContentCard, error) {
	return nil, errors.New("content store unavailable: PostgreSQL is not configured")
}

func (unavailableContentStore) UpdateEngagement(ctx context.Context, tenantID, cardID string, data *model.EngagementData) error {
	return errors.New("content store unavailable: PostgreSQL is not configured")
}
