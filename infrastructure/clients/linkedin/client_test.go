package linkedin_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"social-publisher/domain/repository"
	"social-publisher/infrastructure/clients/linkedin"
)

func newClient(srv *httptest.Server) *linkedin.Client {
	return linkedin.New(map[string]string{
		"accessToken": "tok",
		"authorUrn":   "urn:li:person:abc",
	}, srv.Client(), srv.URL)
}

func TestPublish_TextShare(t *testing.T) {
	var payload map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/ugcPosts", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "2.0.0", r.Header.Get("X-Restli-Protocol-Version"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"urn:li:ugcPost:123"}`))
	}))
	defer srv.Close()

	res := newClient(srv).Publish(context.Background(), repository.PublishInput{
		Caption:  "Hiring",
		Hashtags: []string{"jobs"},
	})
	assert.True(t, res.OK)
	assert.Equal(t, "https://www.linkedin.com/feed/update/urn:li:ugcPost:123", res.PostURL)
	assert.Equal(t, "urn:li:person:abc", payload["author"])

	content := payload["specificContent"].(map[string]interface{})["com.linkedin.ugc.ShareContent"].(map[string]interface{})
	assert.Equal(t, "NONE", content["shareMediaCategory"])
	commentary := content["shareCommentary"].(map[string]interface{})
	assert.Equal(t, "Hiring\n\n#jobs", commentary["text"])
}

func TestPublish_MediaBecomesArticle(t *testing.T) {
	var payload map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.Write([]byte(`{"id":"urn:li:ugcPost:9"}`))
	}))
	defer srv.Close()

	res := newClient(srv).Publish(context.Background(), repository.PublishInput{
		Caption:  "see this",
		MediaURL: "https://example.com/i.jpg",
	})
	assert.True(t, res.OK)
	content := payload["specificContent"].(map[string]interface{})["com.linkedin.ugc.ShareContent"].(map[string]interface{})
	assert.Equal(t, "ARTICLE", content["shareMediaCategory"])
	media := content["media"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "https://example.com/i.jpg", media["originalUrl"])
}

func TestPublish_MissingAuthorURN(t *testing.T) {
	client := linkedin.New(map[string]string{"accessToken": "t"}, http.DefaultClient, "http://never-called")
	res := client.Publish(context.Background(), repository.PublishInput{Caption: "x"})
	assert.False(t, res.OK)
	assert.Contains(t, res.Error, "authorUrn is required")
}

func TestFetchEngagement_SocialActions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/socialActions/urn:li:ugcPost:123", r.URL.Path)
		w.Write([]byte(`{"likesSummary":{"totalLikes":17},"commentsSummary":{"aggregatedTotalComments":6}}`))
	}))
	defer srv.Close()

	res := newClient(srv).FetchEngagement(context.Background(), "https://www.linkedin.com/feed/update/urn:li:ugcPost:123")
	assert.True(t, res.OK)
	assert.Equal(t, int64(17), res.Metrics.Likes)
	assert.Equal(t, int64(6), res.Metrics.Comments)
}

func TestFetchEngagement_BadURL(t *testing.T) {
	client := linkedin.New(map[string]string{"accessToken": "t"}, http.DefaultClient, "http://never-called")
	res := client.FetchEngagement(context.Background(), "https://www.linkedin.com/in/someone")
	assert.False(t, res.OK)
	assert.Contains(t, res.Error, "cannot derive a share URN")
}

func TestPublish_ProviderErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Expired access token","status":401}`))
	}))
	defer srv.Close()

	res := newClient(srv).Publish(context.Background(), repository.PublishInput{Caption: "x"})
	assert.False(t, res.OK)
	assert.Contains(t, res.Error, "Expired access token")
}
