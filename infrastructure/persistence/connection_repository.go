package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
)

func connectionsKey(tenantID string) string {
	return fmt.Sprintf("social_connections:%s", tenantID)
}

// ConnectionRepository stores each tenant's connection list as one JSON
// document. Concurrent upserts to the same tenant are a known
// read-modify-write race; there is no optimistic-concurrency token.
type ConnectionRepository struct {
	kv repository.KeyValue
}

func NewConnectionRepository(kv repository.KeyValue) *ConnectionRepository {
	return &ConnectionRepository{kv: kv}
}

func (r *ConnectionRepository) List(ctx context.Context, tenantID string) ([]*model.SocialConnection, error) {
	raw, ok, err := r.kv.Get(ctx, connectionsKey(tenantID))
	if err != nil {
		return nil, fmt.Errorf("load connections: %w", err)
	}
	if !ok {
		return []*model.SocialConnection{}, nil
	}
	var conns []*model.SocialConnection
	if err := json.Unmarshal([]byte(raw), &conns); err != nil {
		return nil, fmt.Errorf("decode connections: %w", err)
	}
	return conns, nil
}

func (r *ConnectionRepository) Save(ctx context.Context, tenantID string, conns []*model.SocialConnection) error {
	raw, err := json.Marshal(conns)
	if err != nil {
		return fmt.Errorf("encode connections: %w", err)
	}
	if err := r.kv.Set(ctx, connectionsKey(tenantID), string(raw)); err != nil {
		return fmt.Errorf("save connections: %w", err)
	}
	return nil
}

var _ repository.IConnectionRepository = (*ConnectionRepository)(nil)
