package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
)

func oauthStateKey(state string) string {
	return fmt.Sprintf("oauth_state:%s", state)
}

// OAuthStateRepository stores single-use OAuth state payloads. Consume
// deletes on first read so a replayed callback finds nothing.
type OAuthStateRepository struct {
	kv repository.KeyValue
}

func NewOAuthStateRepository(kv repository.KeyValue) *OAuthStateRepository {
	return &OAuthStateRepository{kv: kv}
}

func (r *OAuthStateRepository) Save(ctx context.Context, state string, payload *model.OAuthStatePayload) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode oauth state: %w", err)
	}
	if err := r.kv.Set(ctx, oauthStateKey(state), string(raw)); err != nil {
		return fmt.Errorf("save oauth state: %w", err)
	}
	return nil
}

func (r *OAuthStateRepository) Consume(ctx context.Context, state string) (*model.OAuthStatePayload, bool, error) {
	raw, ok, err := r.kv.GetDelete(ctx, oauthStateKey(state))
	if err != nil {
		return nil, false, fmt.Errorf("consume oauth state: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	payload := &model.OAuthStatePayload{}
	if err := json.Unmarshal([]byte(raw), payload); err != nil {
		return nil, false, fmt.Errorf("decode oauth state: %w", err)
	}
	return payload, true, nil
}

var _ repository.IOAuthState = (*OAuthStateRepository)(nil)
