package usecase

import (
	"context"
	"time"

	"social-publisher/domain/dto"
	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/logger"

	"github.com/google/uuid"
)

type IPublishUsecase interface {
	Publish(ctx context.Context, req *dto.PublishRequest, userID string) (repository.PublishResult, error)
	History(ctx context.Context, tenantID string, limit int) ([]*model.PublishRecord, error)
}

type publishUsecase struct {
	connUsecase IConnectionUsecase
	history     repository.IPublishHistory
	registry    repository.IAdapterRegistry
}

func NewPublishUsecase(connUsecase IConnectionUsecase, history repository.IPublishHistory, registry repository.IAdapterRegistry) IPublishUsecase {
	return &publishUsecase{connUsecase: connUsecase, history: history, registry: registry}
}

// Publish makes at most one provider attempt and appends the outcome to
// the tenant ledger strictly after the provider call resolves, success or
// not. Retries are the caller's responsibility.
func (u *publishUsecase) Publish(ctx context.Context, req *dto.PublishRequest, userID string) (repository.PublishResult, error) {
	conn, err := u.connUsecase.Resolve(ctx, req.TenantID, req.ConnectionID)
	if err != nil {
		return repository.PublishResult{}, err
	}
	adapter, err := u.registry.ForConnection(conn)
	if err != nil {
		return repository.PublishResult{}, err
	}

	result := adapter.Publish(ctx, repository.PublishInput{
		Caption:   req.Caption,
		Hashtags:  req.Hashtags,
		MediaURL:  req.MediaURL,
		MediaType: req.MediaType,
	})

	rec := &model.PublishRecord{
		ID:             uuid.NewString(),
		CardTitle:      req.CardTitle,
		Platform:       conn.Platform,
		ConnectionName: conn.DisplayName,
		Status:         model.PublishStatusSuccess,
		PublishedAt:    time.Now().UTC(),
		PublishedBy:    userID,
		PostURL:        result.PostURL,
	}
	if !result.OK {
		rec.Status = model.PublishStatusError
		rec.ErrorMessage = result.Error
	}
	if err := u.history.Append(ctx, req.TenantID, rec); err != nil {
		// The provider call already happened; a ledger failure must not
		// turn a successful publish into an error for the caller.
		logger.GetLogger().WithField("error", err).WithField("tenant_id", req.TenantID).Warn("failed to append publish history")
	}
	return result, nil
}

func (u *publishUsecase) History(ctx context.Context, tenantID string, limit int) ([]*model.PublishRecord, error) {
	return u.history.List(ctx, tenantID, limit)
}
