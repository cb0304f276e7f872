package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"social-publisher/domain/repository"
	"social-publisher/infrastructure/clients/postfmt"
)

const (
	DefaultBaseURL = "https://graph.facebook.com/v19.0"

	textLimit    = 4096
	captionLimit = 1024
)

// Client talks to the WhatsApp Business Cloud API for one connection.
type Client struct {
	accessToken    string
	phoneNumberID  string
	recipientPhone string
	httpClient     *http.Client
	baseURL        string
}

func New(credentials map[string]string, httpClient *http.Client, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		accessToken:    credentials["accessToken"],
		phoneNumberID:  credentials["phoneNumberId"],
		recipientPhone: credentials["recipientPhone"],
		httpClient:     httpClient,
		baseURL:        baseURL,
	}
}

func (c *Client) Test(ctx context.Context) repository.TestResult {
	if c.accessToken == "" {
		return repository.TestResult{Error: "whatsapp: accessToken is required"}
	}
	if c.phoneNumberID == "" {
		return repository.TestResult{Error: "whatsapp: phoneNumberId is required"}
	}
	endpoint := fmt.Sprintf("%s/%s?fields=verified_name,display_phone_number", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return repository.TestResult{Error: fmt.Sprintf("whatsapp: build request: %v", err)}
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return repository.TestResult{Error: fmt.Sprintf("whatsapp: request failed: %v", err)}
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return repository.TestResult{Error: graphError(raw, resp.StatusCode)}
	}
	var info struct {
		VerifiedName       string `json:"verified_name"`
		DisplayPhoneNumber string `json:"display_phone_number"`
	}
	if err := json.Unmarshal(raw, &info); err != nil {
		return repository.TestResult{Error: "whatsapp: unexpected response shape"}
	}
	return repository.TestResult{OK: true, Info: fmt.Sprintf("%s (%s)", info.VerifiedName, info.DisplayPhoneNumber)}
}

func (c *Client) Publish(ctx context.Context, in repository.PublishInput) repository.PublishResult {
	if c.accessToken == "" {
		return repository.PublishResult{Error: "whatsapp: accessToken is required"}
	}
	if c.phoneNumberID == "" {
		return repository.PublishResult{Error: "whatsapp: phoneNumberId is required"}
	}
	if c.recipientPhone == "" {
		return repository.PublishResult{Error: "whatsapp: recipientPhone is required"}
	}

	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                c.recipientPhone,
	}
	if in.MediaURL == "" {
		payload["type"] = "text"
		payload["text"] = map[string]interface{}{
			"body": postfmt.ComposeLimited(in.Caption, in.Hashtags, textLimit),
		}
	} else {
		caption := postfmt.ComposeLimited(in.Caption, in.Hashtags, captionLimit)
		mediaType := "image"
		if in.MediaType == "video" {
			mediaType = "video"
		}
		payload["type"] = mediaType
		payload[mediaType] = map[string]interface{}{
			"link":    in.MediaURL,
			"caption": caption,
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return repository.PublishResult{Error: fmt.Sprintf("whatsapp: encode message: %v", err)}
	}
	endpoint := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return repository.PublishResult{Error: fmt.Sprintf("whatsapp: build request: %v", err)}
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return repository.PublishResult{Error: fmt.Sprintf("whatsapp: request failed: %v", err)}
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return repository.PublishResult{Error: graphError(raw, resp.StatusCode)}
	}
	// Message IDs are private to the conversation; there is no public URL.
	return repository.PublishResult{OK: true}
}

func (c *Client) FetchEngagement(ctx context.Context, postURL string) repository.EngagementResult {
	return repository.EngagementResult{Error: "whatsapp: the Cloud API exposes no engagement metrics for messages"}
}

func graphError(raw []byte, status int) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &envelope) == nil && envelope.Error.Message != "" {
		return "whatsapp: " + envelope.Error.Message
	}
	return fmt.Sprintf("whatsapp: provider returned status %d", status)
}

var _ repository.ISocialPlatform = (*Client)(nil)
