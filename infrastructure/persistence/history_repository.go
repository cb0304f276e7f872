package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
)

func historyKey(tenantID string) string {
	return fmt.Sprintf("social_history:%s", tenantID)
}

// HistoryRepository keeps the per-tenant publish ledger as one JSON array,
// newest-first, silently trimmed to model.HistoryCap entries.
type HistoryRepository struct {
	kv repository.KeyValue
}

func NewHistoryRepository(kv repository.KeyValue) *HistoryRepository {
	return &HistoryRepository{kv: kv}
}

func (r *HistoryRepository) Append(ctx context.Context, tenantID string, rec *model.PublishRecord) error {
	existing, err := r.load(ctx, tenantID)
	if err != nil {
		return err
	}
	list := append([]*model.PublishRecord{rec}, existing...)
	if len(list) > model.HistoryCap {
		list = list[:model.HistoryCap]
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := r.kv.Set(ctx, historyKey(tenantID), string(raw)); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

func (r *HistoryRepository) List(ctx context.Context, tenantID string, limit int) ([]*model.PublishRecord, error) {
	list, err := r.load(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list, nil
}

func (r *HistoryRepository) load(ctx context.Context, tenantID string) ([]*model.PublishRecord, error) {
	raw, ok, err := r.kv.Get(ctx, historyKey(tenantID))
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if !ok {
		return []*model.PublishRecord{}, nil
	}
	var list []*model.PublishRecord
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return list, nil
}

var _ repository.IPublishHistory = (*HistoryRepository)(nil)
