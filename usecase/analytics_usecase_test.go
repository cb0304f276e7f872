package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"social-publisher/domain/dto"
	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/cache"
	"social-publisher/infrastructure/persistence"
	"social-publisher/usecase"
)

type MockContentCard struct {
	mock.Mock
}

func (m *MockContentCard) ListPublished(ctx context.Context, tenantID string, cardIDs []string) ([]*model.ContentCard, error) {
	args := m.Called(ctx, tenantID, cardIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.ContentCard), args.Error(1)
}

func (m *MockContentCard) UpdateEngagement(ctx context.Context, tenantID, cardID string, data *model.EngagementData) error {
	args := m.Called(ctx, tenantID, cardID, data)
	return args.Error(0)
}

type analyticsFixture struct {
	uc       usecase.IAnalyticsUsecase
	connUC   usecase.IConnectionUsecase
	history  repository.IPublishHistory
	content  *MockContentCard
	status   repository.ISyncStatus
	registry *MockRegistry
}

func newAnalyticsFixture(concurrency int) *analyticsFixture {
	kv := cache.NewMemoryKV()
	connRepo := persistence.NewConnectionRepository(kv)
	history := persistence.NewHistoryRepository(kv)
	status := persistence.NewSyncStatusRepository(kv)
	content := new(MockContentCard)
	registry := new(MockRegistry)
	return &analyticsFixture{
		uc:       usecase.NewAnalyticsUsecase(connRepo, history, content, status, registry, concurrency),
		connUC:   usecase.NewConnectionUsecase(connRepo, registry),
		history:  history,
		content:  content,
		status:   status,
		registry: registry,
	}
}

func (f *analyticsFixture) addConnection(t *testing.T, platform model.Platform, creds map[string]string) {
	_, err := f.connUC.Upsert(context.Background(), &dto.UpsertConnectionRequest{
		TenantID:    "t1",
		Platform:    platform,
		Credentials: creds,
	}, "user-1")
	assert.NoError(t, err)
}

func TestSyncTenant_NoConnectionsSkipsContentStore(t *testing.T) {
	f := newAnalyticsFixture(1)
	// No expectations set; any content store call fails the test.

	result, err := f.uc.SyncTenant(context.Background(), "t1", nil)
	assert.NoError(t, err)
	assert.Equal(t, 0, result.Synced)
	assert.Equal(t, 0, result.Errors)
	assert.Empty(t, result.Details)
	f.content.AssertNotCalled(t, "ListPublished", mock.Anything, mock.Anything, mock.Anything)
}

func TestSyncTenant_PartialFailuresAccumulate(t *testing.T) {
	f := newAnalyticsFixture(1)
	ctx := context.Background()
	f.addConnection(t, model.PlatformFacebook, map[string]string{"pageAccessToken": "x", "pageId": "5"})

	// Card A has a recorded post URL and a healthy provider; card B is on a
	// platform with no connection; card C's provider call fails.
	assert.NoError(t, f.history.Append(ctx, "t1", &model.PublishRecord{
		ID:       "r1",
		Platform: model.PlatformFacebook,
		Status:   model.PublishStatusSuccess,
		PostURL:  "https://www.facebook.com/5/posts/100",
	}))

	f.content.On("ListPublished", mock.Anything, "t1", []string(nil)).Return([]*model.ContentCard{
		{ID: "a", TenantID: "t1", Title: "A", Platform: model.PlatformFacebook, Status: "published"},
		{ID: "b", TenantID: "t1", Title: "B", Platform: model.PlatformTwitter, Status: "published"},
	}, nil)
	f.content.On("UpdateEngagement", mock.Anything, "t1", "a", mock.Anything).Return(nil)

	adapter := new(MockAdapter)
	adapter.On("FetchEngagement", mock.Anything, "https://www.facebook.com/5/posts/100").
		Return(repository.EngagementResult{OK: true, Metrics: model.EngagementMetrics{Likes: 7}})
	f.registry.On("ForConnection", mock.Anything).Return(adapter, nil)

	result, err := f.uc.SyncTenant(ctx, "t1", nil)
	assert.NoError(t, err)
	assert.Equal(t, 1, result.Synced)
	assert.Equal(t, 1, result.Errors)
	assert.Len(t, result.Details, 2)
	assert.Equal(t, "synced", result.Details[0].Status)
	assert.Equal(t, "error", result.Details[1].Status)
	assert.Contains(t, result.Details[1].Error, "no connection for platform twitter")

	// Engagement payload carries the api_sync source marker.
	call := f.content.Calls[len(f.content.Calls)-1]
	data := call.Arguments.Get(3).(*model.EngagementData)
	assert.Equal(t, "api_sync", data.Source)
	assert.Equal(t, int64(7), data.Metrics.Likes)

	// Summary persisted for the status endpoint.
	status, ok, err := f.uc.SyncStatus(ctx, "t1")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, status.Synced)
	assert.Equal(t, 1, status.Errors)
	assert.Equal(t, 2, status.TotalCards)
	assert.False(t, status.LastSyncAt.IsZero())
}

func TestSyncTenant_MissingPostURL(t *testing.T) {
	f := newAnalyticsFixture(1)
	f.addConnection(t, model.PlatformFacebook, map[string]string{"pageAccessToken": "x", "pageId": "5"})

	f.content.On("ListPublished", mock.Anything, "t1", []string(nil)).Return([]*model.ContentCard{
		{ID: "a", TenantID: "t1", Title: "A", Platform: model.PlatformFacebook, Status: "published"},
	}, nil)

	result, err := f.uc.SyncTenant(context.Background(), "t1", nil)
	assert.NoError(t, err)
	assert.Equal(t, 1, result.Errors)
	assert.Contains(t, result.Details[0].Error, "no post URL recorded")
}

func TestSyncTenant_ContentStoreFailurePropagates(t *testing.T) {
	f := newAnalyticsFixture(1)
	f.addConnection(t, model.PlatformFacebook, map[string]string{"pageAccessToken": "x", "pageId": "5"})

	f.content.On("ListPublished", mock.Anything, "t1", []string(nil)).
		Return(nil, errors.New("content store unavailable"))

	_, err := f.uc.SyncTenant(context.Background(), "t1", nil)
	assert.Error(t, err)
}

func TestSyncTenant_ConcurrentFanOut(t *testing.T) {
	f := newAnalyticsFixture(4)
	ctx := context.Background()
	f.addConnection(t, model.PlatformFacebook, map[string]string{"pageAccessToken": "x", "pageId": "5"})

	assert.NoError(t, f.history.Append(ctx, "t1", &model.PublishRecord{
		ID:       "r1",
		Platform: model.PlatformFacebook,
		Status:   model.PublishStatusSuccess,
		PostURL:  "https://www.facebook.com/5/posts/100",
	}))

	cards := make([]*model.ContentCard, 10)
	for i := range cards {
		cards[i] = &model.ContentCard{ID: string(rune('a' + i)), TenantID: "t1", Platform: model.PlatformFacebook, Status: "published"}
	}
	f.content.On("ListPublished", mock.Anything, "t1", []string(nil)).Return(cards, nil)
	f.content.On("UpdateEngagement", mock.Anything, "t1", mock.Anything, mock.Anything).Return(nil)

	adapter := new(MockAdapter)
	adapter.On("FetchEngagement", mock.Anything, mock.Anything).
		Return(repository.EngagementResult{OK: true})
	f.registry.On("ForConnection", mock.Anything).Return(adapter, nil)

	result, err := f.uc.SyncTenant(ctx, "t1", nil)
	assert.NoError(t, err)
	assert.Equal(t, 10, result.Synced)
	assert.Equal(t, 0, result.Errors)
	assert.Len(t, result.Details, 10)
}
