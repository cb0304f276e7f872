package repository

import (
	"context"

	"social-publisher/domain/model"
)

// KeyValue is the tenant-scoped key/value store backing connections,
// history, OAuth state and sync status. Implemented by Redis in production
// and by an in-memory map in tests and degraded deployments.
type KeyValue interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// GetDelete atomically reads and removes a key; the single-use
	// primitive behind OAuth state consumption.
	GetDelete(ctx context.Context, key string) (string, bool, error)
}

// IConnectionRepository persists a tenant's connection list verbatim.
// Secret masking and merge-on-empty happen in the usecase layer; this
// layer stores whatever it is given.
type IConnectionRepository interface {
	List(ctx context.Context, tenantID string) ([]*model.SocialConnection, error)
	Save(ctx context.Context, tenantID string, conns []*model.SocialConnection) error
}

// IPublishHistory is the bounded, append-only per-tenant publish ledger.
type IPublishHistory interface {
	Append(ctx context.Context, tenantID string, rec *model.PublishRecord) error
	List(ctx context.Context, tenantID string, limit int) ([]*model.PublishRecord, error)
}

// IOAuthState stores single-use OAuth state payloads.
type IOAuthState interface {
	Save(ctx context.Context, state string, payload *model.OAuthStatePayload) error
	// Consume returns the payload and unconditionally deletes it; a second
	// consume of the same state reports not-found.
	Consume(ctx context.Context, state string) (*model.OAuthStatePayload, bool, error)
}

// ISyncStatus persists the latest analytics summary per tenant.
type ISyncStatus interface {
	Save(ctx context.Context, tenantID string, status *model.SyncStatus) error
	Get(ctx context.Context, tenantID string) (*model.SyncStatus, bool, error)
}

// IContentCard is the boundary to the external relational content store.
// The engine reads published cards and merges engagement data back; it
// never changes card status or ownership.
type IContentCard interface {
	ListPublished(ctx context.Context, tenantID string, cardIDs []string) ([]*model.ContentCard, error)
	UpdateEngagement(ctx context.Context, tenantID, cardID string, data *model.EngagementData) error
}
