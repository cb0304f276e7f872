package repository

import (
	"context"

	"social-publisher/domain/model"
)

// PublishInput is the uniform publish payload handed to every adapter.
type PublishInput struct {
	Caption   string
	Hashtags  []string
	MediaURL  string
	MediaType string // image | video
}

// TestResult reports a minimal authenticated read against the provider.
// Provider failures land in Error; adapters never return Go errors for them.
type TestResult struct {
	OK    bool   `json:"ok"`
	Info  string `json:"info,omitempty"`
	Error string `json:"error,omitempty"`
}

// PublishResult reports one publish attempt. PostURL is best-effort; an
// underivable URL is not an error.
type PublishResult struct {
	OK      bool   `json:"ok"`
	PostURL string `json:"postUrl,omitempty"`
	Error   string `json:"error,omitempty"`
}

// EngagementResult reports normalized engagement metrics where the
// platform supports them.
type EngagementResult struct {
	OK      bool                    `json:"ok"`
	Metrics model.EngagementMetrics `json:"metrics"`
	Error   string                  `json:"error,omitempty"`
}

// ISocialPlatform is the capability set every platform adapter implements.
// All provider-API failures are caught inside the adapter and reported as
// {OK:false, Error} results.
type ISocialPlatform interface {
	Test(ctx context.Context) TestResult
	Publish(ctx context.Context, in PublishInput) PublishResult
	FetchEngagement(ctx context.Context, postURL string) EngagementResult
}

// IAdapterRegistry resolves the adapter for a connection's platform.
type IAdapterRegistry interface {
	ForConnection(conn *model.SocialConnection) (ISocialPlatform, error)
}
