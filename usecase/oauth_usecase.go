package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"social-publisher/domain/dto"
	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/configuration"
	"social-publisher/infrastructure/logger"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	oauthfacebook "golang.org/x/oauth2/facebook"
)

var (
	ErrInvalidState      = errors.New("invalid or expired state")
	ErrOAuthUnsupported  = errors.New("platform does not support OAuth connection")
	ErrNoPagesAvailable  = errors.New("no pages available for this account")
	ErrNoBusinessAccount = errors.New("no instagram business account linked to any page")
	ErrMissingCode       = errors.New("missing authorization code")
	ErrTokenExchange     = errors.New("token exchange failed")
)

var facebookScopes = []string{
	"pages_show_list", "pages_read_engagement", "pages_manage_posts", "public_profile",
}

var instagramScopes = []string{
	"instagram_basic", "instagram_content_publish", "pages_show_list", "business_management",
}

// CallbackResult is what the HTTP layer renders back into the popup.
type CallbackResult struct {
	Platform     model.Platform
	ConnectionID string
	DisplayName  string
}

type IOAuthUsecase interface {
	Start(ctx context.Context, req *dto.OAuthStartRequest) (*dto.OAuthStartResponse, error)
	Callback(ctx context.Context, code, state string) (*CallbackResult, error)
}

type oauthUsecase struct {
	stateRepo repository.IOAuthState
	connRepo  repository.IConnectionRepository

	facebookClient  configuration.OAuthClient
	instagramClient configuration.OAuthClient

	httpClient *http.Client

	// endpoint and graphBaseURL default to the live Graph API; tests
	// point them at local fakes.
	endpoint     oauth2.Endpoint
	graphBaseURL string
}

func NewOAuthUsecase(stateRepo repository.IOAuthState, connRepo repository.IConnectionRepository, oauthCfg configuration.OAuth, httpClient *http.Client) IOAuthUsecase {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &oauthUsecase{
		stateRepo:       stateRepo,
		connRepo:        connRepo,
		facebookClient:  oauthCfg.Facebook,
		instagramClient: oauthCfg.Instagram,
		httpClient:      httpClient,
		endpoint:        oauthfacebook.Endpoint,
		graphBaseURL:    "https://graph.facebook.com/v19.0",
	}
}

func (u *oauthUsecase) config(platform model.Platform, redirectURI string) (*oauth2.Config, error) {
	var client configuration.OAuthClient
	var scopes []string
	switch platform {
	case model.PlatformFacebook:
		client, scopes = u.facebookClient, facebookScopes
	case model.PlatformInstagram:
		client, scopes = u.instagramClient, instagramScopes
	default:
		return nil, ErrOAuthUnsupported
	}
	if client.ClientID == "" || client.ClientSecret == "" {
		return nil, fmt.Errorf("oauth client for %s is not configured", platform)
	}
	if redirectURI == "" {
		redirectURI = client.RedirectURI
	}
	return &oauth2.Config{
		ClientID:     client.ClientID,
		ClientSecret: client.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       scopes,
		Endpoint:     u.endpoint,
	}, nil
}

// Start issues a single-use state token and the provider authorization URL.
func (u *oauthUsecase) Start(ctx context.Context, req *dto.OAuthStartRequest) (*dto.OAuthStartResponse, error) {
	cfg, err := u.config(req.Platform, req.RedirectURI)
	if err != nil {
		return nil, err
	}
	state := uuid.NewString()
	payload := &model.OAuthStatePayload{
		TenantID:     req.TenantID,
		Platform:     req.Platform,
		ConnectionID: req.ConnectionID,
		IssuedAt:     time.Now().UTC(),
	}
	if err := u.stateRepo.Save(ctx, state, payload); err != nil {
		return nil, err
	}
	return &dto.OAuthStartResponse{
		AuthURL: cfg.AuthCodeURL(state),
		State:   state,
	}, nil
}

// Callback consumes the state (first read deletes it; a replay fails),
// exchanges the code, resolves account identity and upserts the
// connection with a passing test status.
func (u *oauthUsecase) Callback(ctx context.Context, code, state string) (*CallbackResult, error) {
	if code == "" {
		return nil, ErrMissingCode
	}
	payload, ok, err := u.stateRepo.Consume(ctx, state)
	if err != nil {
		return nil, err
	}
	if !ok || payload.Expired(time.Now().UTC()) {
		return nil, ErrInvalidState
	}

	cfg, err := u.config(payload.Platform, "")
	if err != nil {
		return nil, err
	}
	exchangeCtx := context.WithValue(ctx, oauth2.HTTPClient, u.httpClient)
	token, err := cfg.Exchange(exchangeCtx, code)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("oauth code exchange failed")
		return nil, fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}

	longLived, err := u.exchangeLongLived(ctx, cfg, token.AccessToken)
	if err != nil {
		return nil, err
	}

	var conn *model.SocialConnection
	switch payload.Platform {
	case model.PlatformFacebook:
		conn, err = u.resolveFacebookIdentity(ctx, longLived)
	case model.PlatformInstagram:
		conn, err = u.resolveInstagramIdentity(ctx, longLived)
	default:
		err = ErrOAuthUnsupported
	}
	if err != nil {
		return nil, err
	}

	conn.ID = payload.ConnectionID
	if conn.ID == "" {
		conn.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	conn.ConnectedAt = now
	conn.ConnectedBy = "oauth"
	conn.LastTestedAt = &now
	conn.LastTestStatus = model.TestStatusOK

	if err := u.upsert(ctx, payload.TenantID, conn); err != nil {
		return nil, err
	}
	return &CallbackResult{
		Platform:     payload.Platform,
		ConnectionID: conn.ID,
		DisplayName:  conn.DisplayName,
	}, nil
}

// exchangeLongLived swaps a short-lived user token for a long-lived one.
func (u *oauthUsecase) exchangeLongLived(ctx context.Context, cfg *oauth2.Config, shortToken string) (string, error) {
	endpoint := fmt.Sprintf("%s/oauth/access_token?grant_type=fb_exchange_token&client_id=%s&client_secret=%s&fb_exchange_token=%s",
		u.graphBaseURL, url.QueryEscape(cfg.ClientID), url.QueryEscape(cfg.ClientSecret), url.QueryEscape(shortToken))
	raw, err := u.graphGet(ctx, endpoint)
	if err != nil {
		return "", fmt.Errorf("%w: long-lived exchange: %v", ErrTokenExchange, err)
	}
	var data struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(raw, &data); err != nil || data.AccessToken == "" {
		return "", fmt.Errorf("%w: long-lived exchange returned no token", ErrTokenExchange)
	}
	return data.AccessToken, nil
}

type graphPage struct {
	ID                       string `json:"id"`
	Name                     string `json:"name"`
	AccessToken              string `json:"access_token"`
	InstagramBusinessAccount *struct {
		ID string `json:"id"`
	} `json:"instagram_business_account"`
}

func (u *oauthUsecase) listPages(ctx context.Context, userToken, fields string) ([]graphPage, error) {
	endpoint := fmt.Sprintf("%s/me/accounts?fields=%s&access_token=%s",
		u.graphBaseURL, url.QueryEscape(fields), url.QueryEscape(userToken))
	raw, err := u.graphGet(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	var pages struct {
		Data []graphPage `json:"data"`
	}
	if err := json.Unmarshal(raw, &pages); err != nil {
		return nil, fmt.Errorf("parse pages list: %w", err)
	}
	return pages.Data, nil
}

// resolveFacebookIdentity picks the first page the user manages; its page
// token is what the adapter posts with.
func (u *oauthUsecase) resolveFacebookIdentity(ctx context.Context, userToken string) (*model.SocialConnection, error) {
	pages, err := u.listPages(ctx, userToken, "id,name,access_token")
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, ErrNoPagesAvailable
	}
	page := pages[0]
	return &model.SocialConnection{
		Platform:    model.PlatformFacebook,
		DisplayName: page.Name,
		Credentials: map[string]string{
			"pageAccessToken": page.AccessToken,
			"pageId":          page.ID,
			"pageName":        page.Name,
		},
	}, nil
}

func (u *oauthUsecase) resolveInstagramIdentity(ctx context.Context, userToken string) (*model.SocialConnection, error) {
	pages, err := u.listPages(ctx, userToken, "id,name,access_token,instagram_business_account")
	if err != nil {
		return nil, err
	}
	for _, page := range pages {
		if page.InstagramBusinessAccount == nil {
			continue
		}
		igID := page.InstagramBusinessAccount.ID
		username := ""
		endpoint := fmt.Sprintf("%s/%s?fields=username&access_token=%s",
			u.graphBaseURL, url.PathEscape(igID), url.QueryEscape(userToken))
		if raw, err := u.graphGet(ctx, endpoint); err == nil {
			var account struct {
				Username string `json:"username"`
			}
			_ = json.Unmarshal(raw, &account)
			username = account.Username
		}
		display := "@" + username
		if username == "" {
			display = page.Name
		}
		return &model.SocialConnection{
			Platform:    model.PlatformInstagram,
			DisplayName: display,
			Credentials: map[string]string{
				"accessToken": userToken,
				"igUserId":    igID,
				"username":    username,
			},
		}, nil
	}
	return nil, ErrNoBusinessAccount
}

func (u *oauthUsecase) upsert(ctx context.Context, tenantID string, conn *model.SocialConnection) error {
	conns, err := u.connRepo.List(ctx, tenantID)
	if err != nil {
		return err
	}
	replaced := false
	for i, existing := range conns {
		if existing.ID == conn.ID {
			conns[i] = conn
			replaced = true
			break
		}
	}
	if !replaced {
		conns = append(conns, conn)
	}
	return u.connRepo.Save(ctx, tenantID, conns)
}

func (u *oauthUsecase) graphGet(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := u.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		var envelope struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(raw, &envelope) == nil && envelope.Error.Message != "" {
			return nil, errors.New(envelope.Error.Message)
		}
		return nil, fmt.Errorf("graph api returned status %d", resp.StatusCode)
	}
	return raw, nil
}
