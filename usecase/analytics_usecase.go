package usecase

import (
	"context"
	"fmt"
	"time"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/logger"

	"golang.org/x/sync/errgroup"
)

type IAnalyticsUsecase interface {
	SyncTenant(ctx context.Context, tenantID string, cardIDs []string) (*model.SyncResult, error)
	SyncStatus(ctx context.Context, tenantID string) (*model.SyncStatus, bool, error)
}

type analyticsUsecase struct {
	connRepo    repository.IConnectionRepository
	history     repository.IPublishHistory
	contentRepo repository.IContentCard
	statusRepo  repository.ISyncStatus
	registry    repository.IAdapterRegistry
	concurrency int
}

func NewAnalyticsUsecase(connRepo repository.IConnectionRepository, history repository.IPublishHistory, contentRepo repository.IContentCard, statusRepo repository.ISyncStatus, registry repository.IAdapterRegistry, concurrency int) IAnalyticsUsecase {
	if concurrency < 1 {
		concurrency = 1
	}
	return &analyticsUsecase{
		connRepo:    connRepo,
		history:     history,
		contentRepo: contentRepo,
		statusRepo:  statusRepo,
		registry:    registry,
		concurrency: concurrency,
	}
}

// SyncTenant refreshes engagement for a tenant's published cards. Per-card
// failures are accumulated, never fatal; the run always completes and the
// summary is persisted.
func (u *analyticsUsecase) SyncTenant(ctx context.Context, tenantID string, cardIDs []string) (*model.SyncResult, error) {
	log := logger.GetLogger().WithField("tenant_id", tenantID)

	conns, err := u.connRepo.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	result := &model.SyncResult{Details: []model.SyncDetail{}}
	if len(conns) == 0 {
		// Nothing to fetch with; skip the content store entirely.
		log.Info("analytics sync skipped, tenant has no connections")
		return result, nil
	}

	byPlatform := make(map[model.Platform]*model.SocialConnection, len(conns))
	for _, conn := range conns {
		if _, exists := byPlatform[conn.Platform]; !exists {
			byPlatform[conn.Platform] = conn
		}
	}

	cards, err := u.contentRepo.ListPublished(ctx, tenantID, cardIDs)
	if err != nil {
		return nil, err
	}

	records, err := u.history.List(ctx, tenantID, 0)
	if err != nil {
		log.WithField("error", err).Warn("publish history unavailable, post URLs cannot be recovered")
		records = nil
	}

	details := make([]model.SyncDetail, len(cards))
	if u.concurrency > 1 {
		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(u.concurrency)
		for i, card := range cards {
			i, card := i, card
			group.Go(func() error {
				details[i] = u.syncCard(groupCtx, card, byPlatform, records)
				return nil
			})
		}
		_ = group.Wait()
	} else {
		for i, card := range cards {
			details[i] = u.syncCard(ctx, card, byPlatform, records)
		}
	}

	for _, detail := range details {
		result.Details = append(result.Details, detail)
		if detail.Status == "synced" {
			result.Synced++
		} else {
			result.Errors++
		}
	}

	status := &model.SyncStatus{
		LastSyncAt: time.Now().UTC(),
		Synced:     result.Synced,
		Errors:     result.Errors,
		TotalCards: len(cards),
	}
	if err := u.statusRepo.Save(ctx, tenantID, status); err != nil {
		log.WithField("error", err).Error("failed to persist sync status")
	}
	log.WithField("synced", result.Synced).WithField("errors", result.Errors).Info("analytics sync completed")
	return result, nil
}

func (u *analyticsUsecase) syncCard(ctx context.Context, card *model.ContentCard, byPlatform map[model.Platform]*model.SocialConnection, records []*model.PublishRecord) model.SyncDetail {
	conn, ok := byPlatform[card.Platform]
	if !ok {
		return model.SyncDetail{CardID: card.ID, Status: "error", Error: fmt.Sprintf("no connection for platform %s", card.Platform)}
	}
	postURL := latestPostURL(records, card)
	if postURL == "" {
		return model.SyncDetail{CardID: card.ID, Status: "error", Error: "no post URL recorded for this card"}
	}

	adapter, err := u.registry.ForConnection(conn)
	if err != nil {
		return model.SyncDetail{CardID: card.ID, Status: "error", Error: err.Error()}
	}
	res := adapter.FetchEngagement(ctx, postURL)
	if !res.OK {
		return model.SyncDetail{CardID: card.ID, Status: "error", Error: res.Error}
	}

	data := &model.EngagementData{
		Metrics:   res.Metrics,
		UpdatedAt: time.Now().UTC(),
		Source:    "api_sync",
	}
	if err := u.contentRepo.UpdateEngagement(ctx, card.TenantID, card.ID, data); err != nil {
		return model.SyncDetail{CardID: card.ID, Status: "error", Error: err.Error()}
	}
	return model.SyncDetail{CardID: card.ID, Status: "synced"}
}

// latestPostURL recovers the most recent successful post URL for the card's
// platform from the publish ledger. Records are stored newest-first so the
// first match wins. A title match is preferred over a platform-only match.
func latestPostURL(records []*model.PublishRecord, card *model.ContentCard) string {
	platformOnly := ""
	for _, rec := range records {
		if rec.Platform != card.Platform || rec.Status != model.PublishStatusSuccess || rec.PostURL == "" {
			continue
		}
		if rec.CardTitle == card.Title {
			return rec.PostURL
		}
		if platformOnly == "" {
			platformOnly = rec.PostURL
		}
	}
	return platformOnly
}

func (u *analyticsUsecase) SyncStatus(ctx context.Context, tenantID string) (*model.SyncStatus, bool, error) {
	return u.statusRepo.Get(ctx, tenantID)
}
