package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"social-publisher/domain/dto"
	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/logger"

	"github.com/google/uuid"
)

var ErrConnectionNotFound = errors.New("connection not found")

type IConnectionUsecase interface {
	List(ctx context.Context, tenantID string) ([]*model.SocialConnection, error)
	Upsert(ctx context.Context, req *dto.UpsertConnectionRequest, userID string) (*model.SocialConnection, error)
	Delete(ctx context.Context, tenantID, connectionID string) error
	TestConnection(ctx context.Context, tenantID, connectionID string) (repository.TestResult, error)
	// Resolve returns the unmasked connection for internal dispatch.
	Resolve(ctx context.Context, tenantID, connectionID string) (*model.SocialConnection, error)
}

type connectionUsecase struct {
	connRepo repository.IConnectionRepository
	registry repository.IAdapterRegistry
}

func NewConnectionUsecase(connRepo repository.IConnectionRepository, registry repository.IAdapterRegistry) IConnectionUsecase {
	return &connectionUsecase{connRepo: connRepo, registry: registry}
}

// List returns the tenant's connections with every secret-classified
// credential masked. This is the only read path handlers may use.
func (u *connectionUsecase) List(ctx context.Context, tenantID string) ([]*model.SocialConnection, error) {
	conns, err := u.connRepo.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	masked := make([]*model.SocialConnection, 0, len(conns))
	for _, c := range conns {
		masked = append(masked, c.MaskSecrets())
	}
	return masked, nil
}

// Upsert creates or merges a connection. An empty submitted value for a
// secret field keeps the stored value; everything else overwrites.
// Concurrent upserts to the same tenant race on the list read-modify-write;
// there is no optimistic-concurrency token.
func (u *connectionUsecase) Upsert(ctx context.Context, req *dto.UpsertConnectionRequest, userID string) (*model.SocialConnection, error) {
	if !req.Platform.IsValid() {
		return nil, fmt.Errorf("unsupported platform: %s", req.Platform)
	}
	conns, err := u.connRepo.List(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}

	incoming := &model.SocialConnection{
		ID:          req.ID,
		Platform:    req.Platform,
		DisplayName: req.DisplayName,
		Credentials: map[string]string{},
		ConnectedAt: time.Now().UTC(),
		ConnectedBy: userID,
	}
	for k, v := range req.Credentials {
		incoming.Credentials[k] = v
	}
	if incoming.ID == "" {
		incoming.ID = uuid.NewString()
	}

	replaced := false
	for i, existing := range conns {
		if existing.ID != incoming.ID {
			continue
		}
		for _, field := range model.SecretFields(incoming.Platform) {
			if incoming.Credentials[field] == "" {
				if stored := existing.Credentials[field]; stored != "" {
					incoming.Credentials[field] = stored
				}
			}
		}
		incoming.ConnectedAt = existing.ConnectedAt
		incoming.ConnectedBy = existing.ConnectedBy
		incoming.LastTestedAt = existing.LastTestedAt
		incoming.LastTestStatus = existing.LastTestStatus
		incoming.LastTestError = existing.LastTestError
		conns[i] = incoming
		replaced = true
		break
	}
	if !replaced {
		conns = append(conns, incoming)
	}

	if err := u.connRepo.Save(ctx, req.TenantID, conns); err != nil {
		return nil, err
	}
	return incoming.MaskSecrets(), nil
}

func (u *connectionUsecase) Delete(ctx context.Context, tenantID, connectionID string) error {
	conns, err := u.connRepo.List(ctx, tenantID)
	if err != nil {
		return err
	}
	kept := conns[:0]
	found := false
	for _, c := range conns {
		if c.ID == connectionID {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return ErrConnectionNotFound
	}
	return u.connRepo.Save(ctx, tenantID, kept)
}

func (u *connectionUsecase) Resolve(ctx context.Context, tenantID, connectionID string) (*model.SocialConnection, error) {
	conns, err := u.connRepo.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	for _, c := range conns {
		if c.ID == connectionID {
			return c, nil
		}
	}
	return nil, ErrConnectionNotFound
}

// TestConnection dispatches the adapter's minimal authenticated read and
// persists the outcome on the connection record.
func (u *connectionUsecase) TestConnection(ctx context.Context, tenantID, connectionID string) (repository.TestResult, error) {
	conns, err := u.connRepo.List(ctx, tenantID)
	if err != nil {
		return repository.TestResult{}, err
	}
	var target *model.SocialConnection
	for _, c := range conns {
		if c.ID == connectionID {
			target = c
			break
		}
	}
	if target == nil {
		return repository.TestResult{}, ErrConnectionNotFound
	}

	adapter, err := u.registry.ForConnection(target)
	if err != nil {
		return repository.TestResult{}, err
	}
	result := adapter.Test(ctx)

	now := time.Now().UTC()
	target.LastTestedAt = &now
	if result.OK {
		target.LastTestStatus = model.TestStatusOK
		target.LastTestError = ""
	} else {
		target.LastTestStatus = model.TestStatusError
		target.LastTestError = result.Error
	}
	if err := u.connRepo.Save(ctx, tenantID, conns); err != nil {
		logger.GetLogger().WithField("error", err).WithField("connection_id", connectionID).Warn("failed to persist test result")
	}
	return result, nil
}
