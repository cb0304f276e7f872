package usecase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/oauth2"

	"social-publisher/domain/dto"
	"social-publisher/domain/model"
	"social-publisher/infrastructure/cache"
	"social-publisher/infrastructure/configuration"
	"social-publisher/infrastructure/persistence"
)

func oauthTestConfig() configuration.OAuth {
	return configuration.OAuth{
		Facebook: configuration.OAuthClient{
			ClientID:     "fb-client",
			ClientSecret: "fb-secret",
			RedirectURI:  "http://localhost/social/oauth/callback",
		},
		Instagram: configuration.OAuthClient{
			ClientID:     "ig-client",
			ClientSecret: "ig-secret",
			RedirectURI:  "http://localhost/social/oauth/callback",
		},
	}
}

func newOAuthFixture(srv *httptest.Server) (*oauthUsecase, *persistence.OAuthStateRepository, *persistence.ConnectionRepository) {
	kv := cache.NewMemoryKV()
	stateRepo := persistence.NewOAuthStateRepository(kv)
	connRepo := persistence.NewConnectionRepository(kv)
	uc := NewOAuthUsecase(stateRepo, connRepo, oauthTestConfig(), srv.Client()).(*oauthUsecase)
	uc.endpoint = oauth2.Endpoint{
		AuthURL:  srv.URL + "/dialog/oauth",
		TokenURL: srv.URL + "/token",
	}
	uc.graphBaseURL = srv.URL
	return uc, stateRepo, connRepo
}

func fakeGraphServer(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"short-tok","token_type":"bearer"}`))
		case "/oauth/access_token":
			assert.Equal(t, "fb_exchange_token", r.URL.Query().Get("grant_type"))
			assert.Equal(t, "short-tok", r.URL.Query().Get("fb_exchange_token"))
			w.Write([]byte(`{"access_token":"long-tok"}`))
		case "/me/accounts":
			w.Write([]byte(`{"data":[
				{"id":"p1","name":"First Page","access_token":"page-tok","instagram_business_account":{"id":"ig9"}},
				{"id":"p2","name":"Second Page","access_token":"page-tok-2"}
			]}`))
		case "/ig9":
			w.Write([]byte(`{"username":"brandaccount"}`))
		default:
			t.Fatalf("unexpected graph call %s", r.URL.Path)
		}
	}))
}

func TestStart_IssuesStateAndAuthURL(t *testing.T) {
	srv := fakeGraphServer(t)
	defer srv.Close()
	uc, stateRepo, _ := newOAuthFixture(srv)

	res, err := uc.Start(context.Background(), &dto.OAuthStartRequest{
		TenantID: "t1",
		Platform: model.PlatformFacebook,
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, res.State)
	assert.Contains(t, res.AuthURL, "client_id=fb-client")
	assert.Contains(t, res.AuthURL, "state="+res.State)
	assert.Contains(t, res.AuthURL, "pages_manage_posts")

	payload, ok, err := stateRepo.Consume(context.Background(), res.State)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "t1", payload.TenantID)
	assert.Equal(t, model.PlatformFacebook, payload.Platform)
}

func TestStart_RejectsNonOAuthPlatform(t *testing.T) {
	srv := fakeGraphServer(t)
	defer srv.Close()
	uc, _, _ := newOAuthFixture(srv)

	_, err := uc.Start(context.Background(), &dto.OAuthStartRequest{
		TenantID: "t1",
		Platform: model.PlatformTwitter,
	})
	assert.ErrorIs(t, err, ErrOAuthUnsupported)
}

func TestCallback_FacebookSelectsFirstPage(t *testing.T) {
	srv := fakeGraphServer(t)
	defer srv.Close()
	uc, stateRepo, connRepo := newOAuthFixture(srv)
	ctx := context.Background()

	assert.NoError(t, stateRepo.Save(ctx, "st1", &model.OAuthStatePayload{
		TenantID: "t1",
		Platform: model.PlatformFacebook,
		IssuedAt: time.Now().UTC(),
	}))

	result, err := uc.Callback(ctx, "auth-code", "st1")
	assert.NoError(t, err)
	assert.Equal(t, model.PlatformFacebook, result.Platform)
	assert.Equal(t, "First Page", result.DisplayName)

	conns, err := connRepo.List(ctx, "t1")
	assert.NoError(t, err)
	assert.Len(t, conns, 1)
	assert.Equal(t, "page-tok", conns[0].Credentials["pageAccessToken"])
	assert.Equal(t, "p1", conns[0].Credentials["pageId"])
	assert.Equal(t, model.TestStatusOK, conns[0].LastTestStatus)
	assert.Equal(t, "oauth", conns[0].ConnectedBy)
}

func TestCallback_InstagramResolvesBusinessAccount(t *testing.T) {
	srv := fakeGraphServer(t)
	defer srv.Close()
	uc, stateRepo, connRepo := newOAuthFixture(srv)
	ctx := context.Background()

	assert.NoError(t, stateRepo.Save(ctx, "st2", &model.OAuthStatePayload{
		TenantID: "t1",
		Platform: model.PlatformInstagram,
		IssuedAt: time.Now().UTC(),
	}))

	result, err := uc.Callback(ctx, "auth-code", "st2")
	assert.NoError(t, err)
	assert.Equal(t, "@brandaccount", result.DisplayName)

	conns, _ := connRepo.List(ctx, "t1")
	assert.Len(t, conns, 1)
	assert.Equal(t, "ig9", conns[0].Credentials["igUserId"])
	assert.Equal(t, "long-tok", conns[0].Credentials["accessToken"])
	assert.Equal(t, "brandaccount", conns[0].Credentials["username"])
}

func TestCallback_StateIsSingleUse(t *testing.T) {
	srv := fakeGraphServer(t)
	defer srv.Close()
	uc, stateRepo, _ := newOAuthFixture(srv)
	ctx := context.Background()

	assert.NoError(t, stateRepo.Save(ctx, "st3", &model.OAuthStatePayload{
		TenantID: "t1",
		Platform: model.PlatformFacebook,
		IssuedAt: time.Now().UTC(),
	}))

	_, err := uc.Callback(ctx, "auth-code", "st3")
	assert.NoError(t, err)

	_, err = uc.Callback(ctx, "auth-code", "st3")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCallback_ExpiredState(t *testing.T) {
	srv := fakeGraphServer(t)
	defer srv.Close()
	uc, stateRepo, _ := newOAuthFixture(srv)
	ctx := context.Background()

	assert.NoError(t, stateRepo.Save(ctx, "st4", &model.OAuthStatePayload{
		TenantID: "t1",
		Platform: model.PlatformFacebook,
		IssuedAt: time.Now().UTC().Add(-20 * time.Minute),
	}))

	_, err := uc.Callback(ctx, "auth-code", "st4")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestCallback_MissingCode(t *testing.T) {
	srv := fakeGraphServer(t)
	defer srv.Close()
	uc, _, _ := newOAuthFixture(srv)

	_, err := uc.Callback(context.Background(), "", "whatever")
	assert.ErrorIs(t, err, ErrMissingCode)
}

func TestCallback_ExistingConnectionIDReused(t *testing.T) {
	srv := fakeGraphServer(t)
	defer srv.Close()
	uc, stateRepo, connRepo := newOAuthFixture(srv)
	ctx := context.Background()

	assert.NoError(t, connRepo.Save(ctx, "t1", []*model.SocialConnection{{
		ID:       "conn-1",
		Platform: model.PlatformFacebook,
	}}))
	assert.NoError(t, stateRepo.Save(ctx, "st5", &model.OAuthStatePayload{
		TenantID:     "t1",
		Platform:     model.PlatformFacebook,
		ConnectionID: "conn-1",
		IssuedAt:     time.Now().UTC(),
	}))

	result, err := uc.Callback(ctx, "auth-code", "st5")
	assert.NoError(t, err)
	assert.Equal(t, "conn-1", result.ConnectionID)

	conns, _ := connRepo.List(ctx, "t1")
	assert.Len(t, conns, 1, "reconnect replaces, never duplicates")
	assert.Equal(t, "page-tok", conns[0].Credentials["pageAccessToken"])
}
