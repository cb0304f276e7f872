package facebook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"social-publisher/domain/repository"
	"social-publisher/infrastructure/clients/postfmt"

	"github.com/google/go-querystring/query"
)

// DefaultBaseURL is the Graph API root; pinned to the same version the
// rest of the engine uses.
const DefaultBaseURL = "https://graph.facebook.com/v19.0"

// Client posts to a Facebook page using a page access token.
type Client struct {
	pageAccessToken string
	pageID          string
	httpClient      *http.Client
	baseURL         string
}

func New(credentials map[string]string, httpClient *http.Client, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		pageAccessToken: credentials["pageAccessToken"],
		pageID:          credentials["pageId"],
		httpClient:      httpClient,
		baseURL:         baseURL,
	}
}

func (c *Client) Test(ctx context.Context) repository.TestResult {
	if c.pageAccessToken == "" {
		return repository.TestResult{Error: "facebook: pageAccessToken is required"}
	}
	raw, err := c.get(ctx, fmt.Sprintf("/me?fields=id,name&access_token=%s", url.QueryEscape(c.pageAccessToken)))
	if err != nil {
		return repository.TestResult{Error: err.Error()}
	}
	var me struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &me); err != nil {
		return repository.TestResult{Error: "facebook: unexpected response shape"}
	}
	return repository.TestResult{OK: true, Info: fmt.Sprintf("Page %s (%s)", me.Name, me.ID)}
}

type feedParams struct {
	Message     string `url:"message,omitempty"`
	URL         string `url:"url,omitempty"`      // photos
	Caption     string `url:"caption,omitempty"`  // photos
	FileURL     string `url:"file_url,omitempty"` // videos
	Description string `url:"description,omitempty"`
	AccessToken string `url:"access_token"`
}

func (c *Client) Publish(ctx context.Context, in repository.PublishInput) repository.PublishResult {
	if c.pageAccessToken == "" {
		return repository.PublishResult{Error: "facebook: pageAccessToken is required"}
	}
	if c.pageID == "" {
		return repository.PublishResult{Error: "facebook: pageId is required"}
	}

	// Facebook enforces no practical length limit server-side.
	message := postfmt.Compose(in.Caption, in.Hashtags)
	var (
		edge   string
		params feedParams
	)
	switch {
	case in.MediaURL == "":
		edge = "feed"
		params = feedParams{Message: message, AccessToken: c.pageAccessToken}
	case in.MediaType == "video":
		edge = "videos"
		params = feedParams{FileURL: in.MediaURL, Description: message, AccessToken: c.pageAccessToken}
	default:
		edge = "photos"
		params = feedParams{URL: in.MediaURL, Caption: message, AccessToken: c.pageAccessToken}
	}

	values, err := query.Values(params)
	if err != nil {
		return repository.PublishResult{Error: fmt.Sprintf("facebook: encode params: %v", err)}
	}
	endpoint := fmt.Sprintf("%s/%s/%s", c.baseURL, url.PathEscape(c.pageID), edge)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return repository.PublishResult{Error: fmt.Sprintf("facebook: build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return repository.PublishResult{Error: fmt.Sprintf("facebook: request failed: %v", err)}
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return repository.PublishResult{Error: graphError(raw, resp.StatusCode)}
	}
	var created struct {
		ID     string `json:"id"`
		PostID string `json:"post_id"`
	}
	if err := json.Unmarshal(raw, &created); err != nil {
		return repository.PublishResult{Error: "facebook: unexpected response shape"}
	}
	id := created.PostID
	if id == "" {
		id = created.ID
	}
	return repository.PublishResult{OK: true, PostURL: c.postURL(id)}
}

// postURL turns a composite pageId_postId into a user-facing permalink.
// IDs without the separator fall back to a generic object URL.
func (c *Client) postURL(id string) string {
	if id == "" {
		return ""
	}
	if owner, post, ok := strings.Cut(id, "_"); ok {
		return fmt.Sprintf("https://www.facebook.com/%s/posts/%s", owner, post)
	}
	return fmt.Sprintf("https://www.facebook.com/%s", id)
}

func (c *Client) FetchEngagement(ctx context.Context, postURL string) repository.EngagementResult {
	if c.pageAccessToken == "" {
		return repository.EngagementResult{Error: "facebook: pageAccessToken is required"}
	}
	postID := c.postIDFromURL(postURL)
	if postID == "" {
		return repository.EngagementResult{Error: "facebook: cannot derive a post id from the stored post URL"}
	}
	path := fmt.Sprintf("/%s?fields=likes.summary(true),comments.summary(true),shares&access_token=%s",
		url.PathEscape(postID), url.QueryEscape(c.pageAccessToken))
	raw, err := c.get(ctx, path)
	if err != nil {
		return repository.EngagementResult{Error: err.Error()}
	}
	var post struct {
		Likes struct {
			Summary struct {
				TotalCount int64 `json:"total_count"`
			} `json:"summary"`
		} `json:"likes"`
		Comments struct {
			Summary struct {
				TotalCount int64 `json:"total_count"`
			} `json:"summary"`
		} `json:"comments"`
		Shares struct {
			Count int64 `json:"count"`
		} `json:"shares"`
	}
	if err := json.Unmarshal(raw, &post); err != nil {
		return repository.EngagementResult{Error: "facebook: unexpected response shape"}
	}
	res := repository.EngagementResult{OK: true}
	res.Metrics.Likes = post.Likes.Summary.TotalCount
	res.Metrics.Comments = post.Comments.Summary.TotalCount
	res.Metrics.Shares = post.Shares.Count
	return res
}

// postIDFromURL recovers the composite pageId_postId from a permalink of
// the form https://www.facebook.com/{pageId}/posts/{postId}.
func (c *Client) postIDFromURL(postURL string) string {
	if postURL == "" {
		return ""
	}
	u, err := url.Parse(postURL)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) == 3 && parts[1] == "posts" {
		return parts[0] + "_" + parts[2]
	}
	return ""
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("facebook: build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("facebook: request failed: %w", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s", graphError(raw, resp.StatusCode))
	}
	return raw, nil
}

func graphError(raw []byte, status int) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &envelope) == nil && envelope.Error.Message != "" {
		return "facebook: " + envelope.Error.Message
	}
	return fmt.Sprintf("facebook: provider returned status %d", status)
}

var _ repository.ISocialPlatform = (*Client)(nil)
