package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"

	"social-publisher/domain/model"
	"social-publisher/infrastructure/audit"
	"social-publisher/infrastructure/cache"
	"social-publisher/infrastructure/persistence"
	httpHandler "social-publisher/interfaces/http"
	"social-publisher/interfaces/middleware"
	"social-publisher/server"
	"social-publisher/usecase"
)

const testSecret = "router-test-secret"

type fixture struct {
	router *gin.Engine
	kv     *cache.MemoryKV
}

func newFixture() *fixture {
	gin.SetMode(gin.TestMode)
	kv := cache.NewMemoryKV()
	connRepo := persistence.NewConnectionRepository(kv)
	historyRepo := persistence.NewHistoryRepository(kv)
	stateRepo := persistence.NewOAuthStateRepository(kv)
	statusRepo := persistence.NewSyncStatusRepository(kv)
	auditLog := audit.NewLogger(kv)

	registry := noopRegistry{}
	connUC := usecase.NewConnectionUsecase(connRepo, registry)
	publishUC := usecase.NewPublishUsecase(connUC, historyRepo, registry)
	oauthUC := usecase.NewOAuthUsecase(stateRepo, connRepo, oauthConfig(), nil)
	analyticsUC := usecase.NewAnalyticsUsecase(connRepo, historyRepo, failingContent{}, statusRepo, registry, 1)

	router := server.InitiateRouter(
		httpHandler.NewConnectionHandler(connUC, auditLog),
		httpHandler.NewPublishHandler(publishUC, auditLog),
		httpHandler.NewOAuthHandler(oauthUC, auditLog),
		httpHandler.NewAnalyticsHandler(analyticsUC),
		middleware.NewRateLimiter(),
		testSecret,
	)
	return &fixture{router: router, kv: kv}
}

func token(t *testing.T, tenantID string) string {
	claims := model.UserClaims{
		UserName: "alice",
		TenantID: tenantID,
		StandardClaims: jwt.StandardClaims{
			Issuer:    "user-1",
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	assert.NoError(t, err)
	return signed
}

func (f *fixture) do(t *testing.T, method, path, tenantID string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		assert.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if tenantID != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, tenantID))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestConnections_RequireAuth(t *testing.T) {
	f := newFixture()
	w := f.do(t, http.MethodGet, "/social/connections?tenantId=t1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestConnections_TenantScopeEnforced(t *testing.T) {
	f := newFixture()
	w := f.do(t, http.MethodGet, "/social/connections?tenantId=other", "t1", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "tenant scope mismatch")
}

func TestConnections_UpsertThenListMasked(t *testing.T) {
	f := newFixture()

	w := f.do(t, http.MethodPost, "/social/connections", "t1", map[string]interface{}{
		"tenantId":    "t1",
		"platform":    "telegram",
		"displayName": "News bot",
		"credentials": map[string]string{"botToken": "super-secret", "chatId": "42"},
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "super-secret")

	w = f.do(t, http.MethodGet, "/social/connections?tenantId=t1", "t1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var listed struct {
		Connections []*model.SocialConnection `json:"connections"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Len(t, listed.Connections, 1)
	assert.Equal(t, "", listed.Connections[0].Credentials["botToken"])
	assert.Equal(t, "42", listed.Connections[0].Credentials["chatId"])
}

func TestConnections_UpsertRejectsUnknownPlatform(t *testing.T) {
	f := newFixture()
	w := f.do(t, http.MethodPost, "/social/connections", "t1", map[string]interface{}{
		"tenantId": "t1",
		"platform": "myspace",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConnections_DeleteUnknownIs404(t *testing.T) {
	f := newFixture()
	w := f.do(t, http.MethodDelete, "/social/connections/t1/missing", "t1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOAuthStart_UnsupportedPlatform(t *testing.T) {
	f := newFixture()
	w := f.do(t, http.MethodPost, "/social/oauth/start", "t1", map[string]interface{}{
		"tenantId": "t1",
		"platform": "telegram",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "does not support OAuth")
}

func TestOAuthCallback_UnknownStateIsPublicButRejected(t *testing.T) {
	f := newFixture()
	// No Authorization header on purpose; the callback route is public.
	w := f.do(t, http.MethodGet, "/social/oauth/callback?code=abc&state=bogus", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid or expired state")
}

func TestHealthz(t *testing.T) {
	f := newFixture()
	w := f.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
