package facebook_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"social-publisher/domain/repository"
	"social-publisher/infrastructure/clients/facebook"
)

func newClient(srv *httptest.Server) *facebook.Client {
	return facebook.New(map[string]string{
		"pageAccessToken": "pagetok",
		"pageId":          "555",
	}, srv.Client(), srv.URL)
}

func TestPublish_FeedPostWithCompositeID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/555/feed", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "Big news\n\n#launch", r.PostForm.Get("message"))
		assert.Equal(t, "pagetok", r.PostForm.Get("access_token"))
		w.Write([]byte(`{"id":"555_999"}`))
	}))
	defer srv.Close()

	res := newClient(srv).Publish(context.Background(), repository.PublishInput{
		Caption:  "Big news",
		Hashtags: []string{"launch"},
	})
	assert.True(t, res.OK)
	assert.Equal(t, "https://www.facebook.com/555/posts/999", res.PostURL)
}

func TestPublish_PhotoPrefersPostID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/555/photos", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "https://example.com/p.jpg", r.PostForm.Get("url"))
		w.Write([]byte(`{"id":"photo1","post_id":"555_1000"}`))
	}))
	defer srv.Close()

	res := newClient(srv).Publish(context.Background(), repository.PublishInput{
		Caption:  "pic",
		MediaURL: "https://example.com/p.jpg",
	})
	assert.True(t, res.OK)
	assert.Equal(t, "https://www.facebook.com/555/posts/1000", res.PostURL)
}

func TestPublish_NonCompositeIDFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"12345"}`))
	}))
	defer srv.Close()

	res := newClient(srv).Publish(context.Background(), repository.PublishInput{Caption: "x"})
	assert.True(t, res.OK)
	assert.Equal(t, "https://www.facebook.com/12345", res.PostURL)
}

func TestPublish_GraphErrorPassedThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Invalid OAuth access token."}}`))
	}))
	defer srv.Close()

	res := newClient(srv).Publish(context.Background(), repository.PublishInput{Caption: "x"})
	assert.False(t, res.OK)
	assert.Contains(t, res.Error, "Invalid OAuth access token.")
}

func TestPublish_MissingCredentials(t *testing.T) {
	client := facebook.New(map[string]string{}, http.DefaultClient, "http://never-called")
	res := client.Publish(context.Background(), repository.PublishInput{Caption: "x"})
	assert.False(t, res.OK)
	assert.Contains(t, res.Error, "pageAccessToken is required")
}

func TestFetchEngagement_DerivesPostIDFromPermalink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/555_999", r.URL.Path)
		w.Write([]byte(`{
			"likes":{"summary":{"total_count":12}},
			"comments":{"summary":{"total_count":4}},
			"shares":{"count":3}
		}`))
	}))
	defer srv.Close()

	res := newClient(srv).FetchEngagement(context.Background(), "https://www.facebook.com/555/posts/999")
	assert.True(t, res.OK)
	assert.Equal(t, int64(12), res.Metrics.Likes)
	assert.Equal(t, int64(4), res.Metrics.Comments)
	assert.Equal(t, int64(3), res.Metrics.Shares)
}

func TestFetchEngagement_UnparseableURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no provider call expected")
	}))
	defer srv.Close()

	res := newClient(srv).FetchEngagement(context.Background(), "https://www.facebook.com/12345")
	assert.False(t, res.OK)
	assert.Contains(t, res.Error, "cannot derive a post id")
}
