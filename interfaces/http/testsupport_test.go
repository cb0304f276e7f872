package http_test

import (
	"context"
	"errors"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/configuration"
)

// noopRegistry satisfies route wiring in tests that never reach a provider.
type noopRegistry struct{}

func (noopRegistry) ForConnection(conn *model.SocialConnection) (repository.ISocialPlatform, error) {
	return noopAdapter{}, nil
}

type noopAdapter struct{}

func (noopAdapter) Test(ctx context.Context) repository.TestResult {
	return repository.TestResult{OK: true}
}

func (noopAdapter) Publish(ctx context.Context, in repository.PublishInput) repository.PublishResult {
	return repository.PublishResult{OK: true}
}

func (noopAdapter) FetchEngagement(ctx context.Context, postURL string) repository.EngagementResult {
	return repository.EngagementResult{OK: true}
}

type failingContent struct{}

func (failingContent) ListPublished(ctx context.Context, tenantID string, cardIDs []string) ([]*model.ContentCard, error) {
	return nil, errors.New("content store unavailable")
}

func (failingContent) UpdateEngagement(ctx context.Context, tenantID, cardID string, data *model.EngagementData) error {
	return errors.New("content store unavailable")
}

func oauthConfig() configuration.OAuth {
	return configuration.OAuth{
		Facebook:  configuration.OAuthClient{ClientID: "fb", ClientSecret: "fbs", RedirectURI: "http://localhost/cb"},
		Instagram: configuration.OAuthClient{ClientID: "ig", ClientSecret: "igs", RedirectURI: "http://localhost/cb"},
	}
}
