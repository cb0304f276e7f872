package dto

import "social-publisher/domain/model"

// UpsertConnectionRequest creates or updates a connection. Secret
// credential fields submitted as "" keep their stored value.
type UpsertConnectionRequest struct {
	TenantID    string            `json:"tenantId"`
	ID          string            `json:"id,omitempty"`
	Platform    model.Platform    `json:"platform"`
	DisplayName string            `json:"displayName"`
	Credentials map[string]string `json:"credentials"`
}

type TestConnectionRequest struct {
	TenantID     string `json:"tenantId"`
	ConnectionID string `json:"connectionId"`
}

type PublishRequest struct {
	TenantID     string   `json:"tenantId"`
	ConnectionID string   `json:"connectionId"`
	CardTitle    string   `json:"cardTitle"`
	Caption      string   `json:"caption"`
	Hashtags     []string `json:"hashtags"`
	MediaURL     string   `json:"mediaUrl,omitempty"`
	MediaType    string   `json:"mediaType,omitempty"` // image | video
}

type OAuthStartRequest struct {
	TenantID     string         `json:"tenantId"`
	Platform     model.Platform `json:"platform"`
	ConnectionID string         `json:"connectionId,omitempty"`
	RedirectURI  string         `json:"redirectUri,omitempty"`
}

type OAuthStartResponse struct {
	AuthURL string `json:"auth_url"`
	State   string `json:"state"`
}

type SyncRequest struct {
	TenantID string   `json:"tenantId"`
	CardIDs  []string `json:"cardIds,omitempty"`
}
