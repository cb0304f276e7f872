package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"social-publisher/domain/repository"
	"social-publisher/infrastructure/clients/postfmt"

	"github.com/google/go-querystring/query"
)

const (
	DefaultBaseURL = "https://api.telegram.org"

	textLimit    = 4096
	captionLimit = 1024
)

// Client talks to the Telegram Bot API on behalf of one connection.
type Client struct {
	botToken        string
	chatID          string
	channelUsername string
	httpClient      *http.Client
	baseURL         string
}

func New(credentials map[string]string, httpClient *http.Client, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		botToken:        credentials["botToken"],
		chatID:          credentials["chatId"],
		channelUsername: credentials["channelUsername"],
		httpClient:      httpClient,
		baseURL:         baseURL,
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

func (c *Client) Test(ctx context.Context) repository.TestResult {
	if c.botToken == "" {
		return repository.TestResult{Error: "telegram: botToken is required"}
	}
	var me struct {
		Username  string `json:"username"`
		FirstName string `json:"first_name"`
	}
	if err := c.call(ctx, "getMe", nil, &me); err != nil {
		return repository.TestResult{Error: err.Error()}
	}
	return repository.TestResult{OK: true, Info: fmt.Sprintf("Bot @%s (%s)", me.Username, me.FirstName)}
}

type sendMessageParams struct {
	ChatID string `url:"chat_id"`
	Text   string `url:"text"`
}

type sendMediaParams struct {
	ChatID  string `url:"chat_id"`
	Photo   string `url:"photo,omitempty"`
	Video   string `url:"video,omitempty"`
	Caption string `url:"caption,omitempty"`
}

func (c *Client) Publish(ctx context.Context, in repository.PublishInput) repository.PublishResult {
	if c.botToken == "" {
		return repository.PublishResult{Error: "telegram: botToken is required"}
	}
	if c.chatID == "" {
		return repository.PublishResult{Error: "telegram: chatId is required"}
	}

	var (
		method string
		params interface{}
	)
	if in.MediaURL == "" {
		method = "sendMessage"
		params = sendMessageParams{
			ChatID: c.chatID,
			Text:   postfmt.ComposeLimited(in.Caption, in.Hashtags, textLimit),
		}
	} else {
		caption := postfmt.ComposeLimited(in.Caption, in.Hashtags, captionLimit)
		if in.MediaType == "video" {
			method = "sendVideo"
			params = sendMediaParams{ChatID: c.chatID, Video: in.MediaURL, Caption: caption}
		} else {
			method = "sendPhoto"
			params = sendMediaParams{ChatID: c.chatID, Photo: in.MediaURL, Caption: caption}
		}
	}

	var sent struct {
		MessageID int64 `json:"message_id"`
	}
	if err := c.call(ctx, method, params, &sent); err != nil {
		return repository.PublishResult{Error: err.Error()}
	}
	// A public channel handle makes the message linkable; otherwise the
	// post has no derivable URL, which is fine.
	postURL := ""
	if c.channelUsername != "" {
		postURL = fmt.Sprintf("https://t.me/%s/%d", strings.TrimPrefix(c.channelUsername, "@"), sent.MessageID)
	}
	return repository.PublishResult{OK: true, PostURL: postURL}
}

func (c *Client) FetchEngagement(ctx context.Context, postURL string) repository.EngagementResult {
	return repository.EngagementResult{Error: "telegram: the Bot API exposes no engagement metrics for channel posts"}
}

func (c *Client) call(ctx context.Context, method string, params interface{}, out interface{}) error {
	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.botToken, method)
	var body io.Reader
	if params != nil {
		values, err := query.Values(params)
		if err != nil {
			return fmt.Errorf("telegram: encode %s params: %w", method, err)
		}
		body = strings.NewReader(values.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return fmt.Errorf("telegram: build %s request: %w", method, err)
	}
	if params != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: %s request failed: %w", method, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)

	var envelope apiResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("telegram: %s returned status %d", method, resp.StatusCode)
	}
	if !envelope.OK {
		return fmt.Errorf("telegram: %s failed: %s", method, envelope.Description)
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("telegram: decode %s result: %w", method, err)
		}
	}
	return nil
}

var _ repository.ISocialPlatform = (*Client)(nil)
