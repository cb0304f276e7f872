package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"social-publisher/domain/repository"
	"social-publisher/infrastructure/clients/postfmt"
)

const (
	DefaultBaseURL = "https://graph.facebook.com/v19.0"

	captionLimit = 2200

	// Video containers are processed asynchronously; we poll until a
	// terminal status or give up after maxPollAttempts.
	defaultPollInterval = 5 * time.Second
	maxPollAttempts     = 8

	// Recent media aggregated when a permalink cannot be mapped back to a
	// media id.
	recentMediaCount = 5
)

// Client publishes to an Instagram business account via the Graph API's
// container-then-publish protocol.
type Client struct {
	accessToken string
	igUserID    string
	httpClient  *http.Client
	baseURL     string

	// pollInterval is overridable in tests; production keeps the default.
	pollInterval time.Duration
}

func New(credentials map[string]string, httpClient *http.Client, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		accessToken:  credentials["accessToken"],
		igUserID:     credentials["igUserId"],
		httpClient:   httpClient,
		baseURL:      baseURL,
		pollInterval: defaultPollInterval,
	}
}

// WithPollInterval overrides the container status poll interval.
func (c *Client) WithPollInterval(d time.Duration) *Client {
	c.pollInterval = d
	return c
}

func (c *Client) Test(ctx context.Context) repository.TestResult {
	if c.accessToken == "" {
		return repository.TestResult{Error: "instagram: accessToken is required"}
	}
	if c.igUserID == "" {
		return repository.TestResult{Error: "instagram: igUserId is required"}
	}
	raw, err := c.get(ctx, fmt.Sprintf("/%s?fields=username&access_token=%s",
		url.PathEscape(c.igUserID), url.QueryEscape(c.accessToken)))
	if err != nil {
		return repository.TestResult{Error: err.Error()}
	}
	var account struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(raw, &account); err != nil {
		return repository.TestResult{Error: "instagram: unexpected response shape"}
	}
	return repository.TestResult{OK: true, Info: "@" + account.Username}
}

func (c *Client) Publish(ctx context.Context, in repository.PublishInput) repository.PublishResult {
	if c.accessToken == "" {
		return repository.PublishResult{Error: "instagram: accessToken is required"}
	}
	if c.igUserID == "" {
		return repository.PublishResult{Error: "instagram: igUserId is required"}
	}
	if in.MediaURL == "" {
		return repository.PublishResult{Error: "instagram: publishing requires an image or video URL"}
	}

	caption := postfmt.ComposeLimited(in.Caption, in.Hashtags, captionLimit)
	isVideo := in.MediaType == "video"

	// Step 1: create the media container.
	params := url.Values{}
	params.Set("caption", caption)
	params.Set("access_token", c.accessToken)
	if isVideo {
		params.Set("video_url", in.MediaURL)
		params.Set("media_type", "REELS")
	} else {
		params.Set("image_url", in.MediaURL)
	}
	raw, err := c.post(ctx, fmt.Sprintf("/%s/media", url.PathEscape(c.igUserID)), params)
	if err != nil {
		return repository.PublishResult{Error: err.Error()}
	}
	var container struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &container); err != nil || container.ID == "" {
		return repository.PublishResult{Error: "instagram: container creation returned no id"}
	}

	// Step 2: video containers process asynchronously; wait for a
	// terminal status before publishing.
	if isVideo {
		if err := c.awaitContainer(ctx, container.ID); err != nil {
			return repository.PublishResult{Error: err.Error()}
		}
	}

	// Step 3: publish the container.
	publishParams := url.Values{}
	publishParams.Set("creation_id", container.ID)
	publishParams.Set("access_token", c.accessToken)
	raw, err = c.post(ctx, fmt.Sprintf("/%s/media_publish", url.PathEscape(c.igUserID)), publishParams)
	if err != nil {
		return repository.PublishResult{Error: err.Error()}
	}
	var published struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &published); err != nil {
		return repository.PublishResult{Error: "instagram: unexpected publish response shape"}
	}

	// Step 4: best-effort permalink; a failure here only omits the URL.
	postURL := ""
	if published.ID != "" {
		if raw, err := c.get(ctx, fmt.Sprintf("/%s?fields=permalink&access_token=%s",
			url.PathEscape(published.ID), url.QueryEscape(c.accessToken))); err == nil {
			var media struct {
				Permalink string `json:"permalink"`
			}
			if json.Unmarshal(raw, &media) == nil {
				postURL = media.Permalink
			}
		}
	}
	return repository.PublishResult{OK: true, PostURL: postURL}
}

// awaitContainer polls the container status every pollInterval, up to
// maxPollAttempts, failing fast on ERROR and timing out otherwise.
func (c *Client) awaitContainer(ctx context.Context, containerID string) error {
	for attempt := 0; attempt < maxPollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("instagram: media processing cancelled: %w", ctx.Err())
		case <-time.After(c.pollInterval):
		}
		raw, err := c.get(ctx, fmt.Sprintf("/%s?fields=status_code&access_token=%s",
			url.PathEscape(containerID), url.QueryEscape(c.accessToken)))
		if err != nil {
			return err
		}
		var status struct {
			StatusCode string `json:"status_code"`
		}
		if err := json.Unmarshal(raw, &status); err != nil {
			return fmt.Errorf("instagram: unexpected container status shape")
		}
		switch status.StatusCode {
		case "FINISHED":
			return nil
		case "ERROR":
			return fmt.Errorf("instagram: media processing failed")
		}
	}
	return fmt.Errorf("instagram: media processing timed out after %d checks", maxPollAttempts)
}

// FetchEngagement aggregates the account's most recent media. Permalink
// short-codes do not map back to a media id without an extra lookup, so
// this is a documented approximation over the latest posts rather than
// exact per-post metrics.
func (c *Client) FetchEngagement(ctx context.Context, postURL string) repository.EngagementResult {
	if c.accessToken == "" {
		return repository.EngagementResult{Error: "instagram: accessToken is required"}
	}
	if c.igUserID == "" {
		return repository.EngagementResult{Error: "instagram: igUserId is required"}
	}
	path := fmt.Sprintf("/%s/media?fields=like_count,comments_count&limit=%d&access_token=%s",
		url.PathEscape(c.igUserID), recentMediaCount, url.QueryEscape(c.accessToken))
	raw, err := c.get(ctx, path)
	if err != nil {
		return repository.EngagementResult{Error: err.Error()}
	}
	var media struct {
		Data []struct {
			LikeCount     int64 `json:"like_count"`
			CommentsCount int64 `json:"comments_count"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &media); err != nil {
		return repository.EngagementResult{Error: "instagram: unexpected response shape"}
	}
	res := repository.EngagementResult{OK: true}
	for _, m := range media.Data {
		res.Metrics.Likes += m.LikeCount
		res.Metrics.Comments += m.CommentsCount
	}
	return res
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("instagram: build request: %w", err)
	}
	return c.do(req)
}

func (c *Client) post(ctx context.Context, path string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("instagram: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("instagram: request failed: %w", err)
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
			return nil, fmt.Errorf("instagram: %s", envelope.Error.Message)
		}
		return nil, fmt.Errorf("instagram: provider returned status %d", resp.StatusCode)
	}
	return raw, nil
}

var _ repository.ISocialPlatform = (*Client)(nil)
