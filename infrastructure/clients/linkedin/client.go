package linkedin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"social-publisher/domain/repository"
	"social-publisher/infrastructure/clients/postfmt"
)

const (
	DefaultBaseURL = "https://api.linkedin.com"

	textLimit = 3000
)

// Client posts UGC shares for a member or organization URN.
type Client struct {
	accessToken string
	authorURN   string
	httpClient  *http.Client
	baseURL     string
}

func New(credentials map[string]string, httpClient *http.Client, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		accessToken: credentials["accessToken"],
		authorURN:   credentials["authorUrn"],
		httpClient:  httpClient,
		baseURL:     baseURL,
	}
}

func (c *Client) Test(ctx context.Context) repository.TestResult {
	if c.accessToken == "" {
		return repository.TestResult{Error: "linkedin: accessToken is required"}
	}
	raw, err := c.do(ctx, http.MethodGet, "/v2/userinfo", nil)
	if err != nil {
		return repository.TestResult{Error: err.Error()}
	}
	var profile struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(raw, &profile); err != nil {
		return repository.TestResult{Error: "linkedin: unexpected response shape"}
	}
	info := profile.Name
	if profile.Email != "" {
		info = fmt.Sprintf("%s (%s)", profile.Name, profile.Email)
	}
	return repository.TestResult{OK: true, Info: info}
}

func (c *Client) Publish(ctx context.Context, in repository.PublishInput) repository.PublishResult {
	if c.accessToken == "" {
		return repository.PublishResult{Error: "linkedin: accessToken is required"}
	}
	if c.authorURN == "" {
		return repository.PublishResult{Error: "linkedin: authorUrn is required"}
	}

	text := postfmt.ComposeLimited(in.Caption, in.Hashtags, textLimit)
	shareContent := map[string]interface{}{
		"shareCommentary":    map[string]string{"text": text},
		"shareMediaCategory": "NONE",
	}
	if in.MediaURL != "" {
		// Remote media cannot be uploaded by URL; attach it as an article
		// link so the share still carries the media.
		shareContent["shareMediaCategory"] = "ARTICLE"
		shareContent["media"] = []map[string]interface{}{
			{"status": "READY", "originalUrl": in.MediaURL},
		}
	}
	payload := map[string]interface{}{
		"author":         c.authorURN,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]interface{}{
			"com.linkedin.ugc.ShareContent": shareContent,
		},
		"visibility": map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return repository.PublishResult{Error: fmt.Sprintf("linkedin: encode share: %v", err)}
	}
	raw, err := c.do(ctx, http.MethodPost, "/v2/ugcPosts", body)
	if err != nil {
		return repository.PublishResult{Error: err.Error()}
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &created); err != nil {
		return repository.PublishResult{Error: "linkedin: unexpected response shape"}
	}
	postURL := ""
	if created.ID != "" {
		postURL = fmt.Sprintf("https://www.linkedin.com/feed/update/%s", created.ID)
	}
	return repository.PublishResult{OK: true, PostURL: postURL}
}

func (c *Client) FetchEngagement(ctx context.Context, postURL string) repository.EngagementResult {
	if c.accessToken == "" {
		return repository.EngagementResult{Error: "linkedin: accessToken is required"}
	}
	urn := urnFromURL(postURL)
	if urn == "" {
		return repository.EngagementResult{Error: "linkedin: cannot derive a share URN from the stored post URL"}
	}
	raw, err := c.do(ctx, http.MethodGet, "/v2/socialActions/"+url.PathEscape(urn), nil)
	if err != nil {
		return repository.EngagementResult{Error: err.Error()}
	}
	var actions struct {
		LikesSummary struct {
			TotalLikes int64 `json:"totalLikes"`
		} `json:"likesSummary"`
		CommentsSummary struct {
			TotalComments int64 `json:"aggregatedTotalComments"`
		} `json:"commentsSummary"`
	}
	if err := json.Unmarshal(raw, &actions); err != nil {
		return repository.EngagementResult{Error: "linkedin: unexpected response shape"}
	}
	res := repository.EngagementResult{OK: true}
	res.Metrics.Likes = actions.LikesSummary.TotalLikes
	res.Metrics.Comments = actions.CommentsSummary.TotalComments
	return res
}

// urnFromURL recovers the share URN from permalinks of the form
// https://www.linkedin.com/feed/update/{urn}.
func urnFromURL(postURL string) string {
	if postURL == "" {
		return ""
	}
	u, err := url.Parse(postURL)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) >= 3 && parts[0] == "feed" && parts[1] == "update" {
		return parts[2]
	}
	return ""
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("linkedin: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("linkedin: request failed: %w", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var envelope struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &envelope) == nil && envelope.Message != "" {
			return nil, fmt.Errorf("linkedin: %s", envelope.Message)
		}
		return nil, fmt.Errorf("linkedin: provider returned status %d", resp.StatusCode)
	}
	return raw, nil
}

var _ repository.ISocialPlatform = (*Client)(nil)
