package twitter

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
)

const (
	DefaultBaseURL = "https://api.twitter.com"

	statusLimit = 280
)

// Client talks to the v1.1 REST API; every call is OAuth 1.0a signed.
type Client struct {
	signer     *Signer
	httpClient *http.Client
	baseURL    string
}

func New(credentials map[string]string, httpClient *http.Client, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		signer: NewSigner(
			credentials["apiKey"],
			credentials["apiSecret"],
			credentials["accessToken"],
			credentials["accessTokenSecret"],
		),
		httpClient: httpClient,
		baseURL:    baseURL,
	}
}

func (c *Client) missingCredential() string {
	switch {
	case c.signer.APIKey == "":
		return "twitter: apiKey is required"
	case c.signer.APISecret == "":
		return "twitter: apiSecret is required"
	case c.signer.AccessToken == "":
		return "twitter: accessToken is required"
	case c.signer.AccessTokenSecret == "":
		return "twitter: accessTokenSecret is required"
	}
	return ""
}

func (c *Client) Test(ctx context.Context) repository.TestResult {
	if msg := c.missingCredential(); msg != "" {
		return repository.TestResult{Error: msg}
	}
	raw, err := c.signedCall(ctx, http.MethodGet, "/1.1/account/verify_credentials.json", nil)
	if err != nil {
		return repository.TestResult{Error: err.Error()}
	}
	var account struct {
		ScreenName string `json:"screen_name"`
		Name       string `json:"name"`
	}
	if err := json.Unmarshal(raw, &account); err != nil {
		return repository.TestResult{Error: "twitter: unexpected response shape"}
	}
	return repository.TestResult{OK: true, Info: fmt.Sprintf("@%s (%s)", account.ScreenName, account.Name)}
}

func (c *Client) Publish(ctx context.Context, in repository.PublishInput) repository.PublishResult {
	if msg := c.missingCredential(); msg != "" {
		return repository.PublishResult{Error: msg}
	}
	params := url.Values{}
	params.Set("status", postfmt.ComposeLimited(in.Caption, in.Hashtags, statusLimit))
	raw, err := c.signedCall(ctx, http.MethodPost, "/1.1/statuses/update.json", params)
	if err != nil {
		return repository.PublishResult{Error: err.Error()}
	}
	var tweet struct {
		IDStr string `json:"id_str"`
		User  struct {
			ScreenName string `json:"screen_name"`
		} `json:"user"`
	}
	if err := json.Unmarshal(raw, &tweet); err != nil {
		return repository.PublishResult{Error: "twitter: unexpected response shape"}
	}
	postURL := ""
	if tweet.IDStr != "" && tweet.User.ScreenName != "" {
		postURL = fmt.Sprintf("https://twitter.com/%s/status/%s", tweet.User.ScreenName, tweet.IDStr)
	}
	return repository.PublishResult{OK: true, PostURL: postURL}
}

func (c *Client) FetchEngagement(ctx context.Context, postURL string) repository.EngagementResult {
	if msg := c.missingCredential(); msg != "" {
		return repository.EngagementResult{Error: msg}
	}
	statusID := statusIDFromURL(postURL)
	if statusID == "" {
		return repository.EngagementResult{Error: "twitter: cannot derive a status id from the stored post URL"}
	}
	params := url.Values{}
	params.Set("id", statusID)
	raw, err := c.signedCall(ctx, http.MethodGet, "/1.1/statuses/show.json", params)
	if err != nil {
		return repository.EngagementResult{Error: err.Error()}
	}
	var tweet struct {
		FavoriteCount int64 `json:"favorite_count"`
		RetweetCount  int64 `json:"retweet_count"`
	}
	if err := json.Unmarshal(raw, &tweet); err != nil {
		return repository.EngagementResult{Error: "twitter: unexpected response shape"}
	}
	res := repository.EngagementResult{OK: true}
	res.Metrics.Likes = tweet.FavoriteCount
	res.Metrics.Shares = tweet.RetweetCount
	return res
}

// statusIDFromURL pulls the trailing id out of .../status/{id} permalinks.
func statusIDFromURL(postURL string) string {
	if postURL == "" {
		return ""
	}
	u, err := url.Parse(postURL)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, p := range parts {
		if p == "status" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}

// signedCall signs and executes one request. Every call gets a fresh nonce
// and timestamp from the signer.
func (c *Client) signedCall(ctx context.Context, method, path string, params url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	if params == nil {
		params = url.Values{}
	}
	auth := c.signer.AuthorizationHeader(method, endpoint, params)

	var req *http.Request
	var err error
	if method == http.MethodGet {
		full := endpoint
		if encoded := params.Encode(); encoded != "" {
			full += "?" + encoded
		}
		req, err = http.NewRequestWithContext(ctx, method, full, nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, endpoint, strings.NewReader(params.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return nil, fmt.Errorf("twitter: build request: %w", err)
	}
	req.Header.Set("Authorization", auth)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("twitter: request failed: %w", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		var envelope struct {
			Errors []struct {
				Message string `json:"message"`
			} `json:"errors"`
		}
		if json.Unmarshal(raw, &envelope) == nil && len(envelope.Errors) > 0 {
			return nil, fmt.Errorf("twitter: %s", envelope.Errors[0].Message)
		}
		return nil, fmt.Errorf("twitter: provider returned status %d", resp.StatusCode)
	}
	return raw, nil
}

var _ repository.ISocialPlatform = (*Client)(nil)
