package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
)

func syncStatusKey(tenantID string) string {
	return fmt.Sprintf("analytics_sync_status:%s", tenantID)
}

// SyncStatusRepository overwrites the latest analytics summary per tenant.
type SyncStatusRepository struct {
	kv repository.KeyValue
}

func NewSyncStatusRepository(kv repository.KeyValue) *SyncStatusRepository {
	return &SyncStatusRepository{kv: kv}
}

func (r *SyncStatusRepository) Save(ctx context.Context, tenantID string, status *model.SyncStatus) error {
	raw, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("encode sync status: %w", err)
	}
	if err := r.kv.Set(ctx, syncStatusKey(tenantID), string(raw)); err != nil {
		return fmt.Errorf("save sync status: %w", err)
	}
	return nil
}

func (r *SyncStatusRepository) Get(ctx context.Context, tenantID string) (*model.SyncStatus, bool, error) {
	raw, ok, err := r.kv.Get(ctx, syncStatusKey(tenantID))
	if err != nil {
		return nil, false, fmt.Errorf("load sync status: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	status := &model.SyncStatus{}
	if err := json.Unmarshal([]byte(raw), status); err != nil {
		return nil, false, fmt.Errorf("decode sync status: %w", err)
	}
	return status, true, nil
}

var _ repository.ISyncStatus = (*SyncStatusRepository)(nil)
