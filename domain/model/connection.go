package model

import "time"

// Platform identifies one of the supported social networks.
type Platform string

const (
	PlatformTelegram  Platform = "telegram"
	PlatformWhatsApp  Platform = "whatsapp"
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
	PlatformTwitter   Platform = "twitter"
	PlatformLinkedIn  Platform = "linkedin"
)

// AllPlatforms lists every supported platform in display order.
var AllPlatforms = []Platform{
	PlatformTelegram,
	PlatformWhatsApp,
	PlatformFacebook,
	PlatformInstagram,
	PlatformTwitter,
	PlatformLinkedIn,
}

// IsValid reports whether p is one of the supported platforms.
func (p Platform) IsValid() bool {
	switch p {
	case PlatformTelegram, PlatformWhatsApp, PlatformFacebook, PlatformInstagram, PlatformTwitter, PlatformLinkedIn:
		return true
	}
	return false
}

// secretFields maps each platform to its secret-classified credential keys.
// Values under these keys are never returned to a client and follow
// merge-on-empty semantics on upsert.
var secretFields = map[Platform][]string{
	PlatformTelegram:  {"botToken"},
	PlatformWhatsApp:  {"accessToken"},
	PlatformFacebook:  {"pageAccessToken"},
	PlatformInstagram: {"accessToken"},
	PlatformTwitter:   {"apiKey", "apiSecret", "accessToken", "accessTokenSecret"},
	PlatformLinkedIn:  {"accessToken"},
}

// SecretFields returns the secret-classified credential keys for a platform.
func SecretFields(p Platform) []string {
	return secretFields[p]
}

const (
	TestStatusOK    = "ok"
	TestStatusError = "error"
)

// SocialConnection is one connected account per (tenant, platform instance).
type SocialConnection struct {
	ID             string            `json:"id"`
	Platform       Platform          `json:"platform"`
	DisplayName    string            `json:"displayName"`
	Credentials    map[string]string `json:"credentials"`
	ConnectedAt    time.Time         `json:"connectedAt"`
	ConnectedBy    string            `json:"connectedBy"`
	LastTestedAt   *time.Time        `json:"lastTestedAt,omitempty"`
	LastTestStatus string            `json:"lastTestStatus,omitempty"` // ok | error
	LastTestError  string            `json:"lastTestError,omitempty"`
}

// MaskSecrets returns a copy with every secret-classified credential
// blanked. Callers on the HTTP read path must only ever see masked copies.
func (c *SocialConnection) MaskSecrets() *SocialConnection {
	out := *c
	out.Credentials = make(map[string]string, len(c.Credentials))
	for k, v := range c.Credentials {
		out.Credentials[k] = v
	}
	for _, f := range SecretFields(c.Platform) {
		if _, ok := out.Credentials[f]; ok {
			out.Credentials[f] = ""
		}
	}
	return &out
}
