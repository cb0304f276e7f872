package clients

import (
	"fmt"
	"net/http"
	"time"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/clients/facebook"
	"social-publisher/infrastructure/clients/instagram"
	"social-publisher/infrastructure/clients/linkedin"
	"social-publisher/infrastructure/clients/telegram"
	"social-publisher/infrastructure/clients/twitter"
	"social-publisher/infrastructure/clients/whatsapp"
)

// Registry builds the adapter for a connection's platform. All adapters
// share one HTTP client whose timeout caps every provider call, so a
// stuck provider resolves as an adapter error instead of hanging the
// request.
type Registry struct {
	httpClient *http.Client

	// BaseURLs override provider endpoints, keyed by platform. Left empty
	// in production; tests point them at local fakes.
	BaseURLs map[model.Platform]string
}

func NewRegistry(timeout time.Duration) *Registry {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Registry{
		httpClient: &http.Client{Timeout: timeout},
		BaseURLs:   map[model.Platform]string{},
	}
}

func (r *Registry) ForConnection(conn *model.SocialConnection) (repository.ISocialPlatform, error) {
	creds := conn.Credentials
	base := r.BaseURLs[conn.Platform]
	switch conn.Platform {
	case model.PlatformTelegram:
		return telegram.New(creds, r.httpClient, base), nil
	case model.PlatformWhatsApp:
		return whatsapp.New(creds, r.httpClient, base), nil
	case model.PlatformFacebook:
		return facebook.New(creds, r.httpClient, base), nil
	case model.PlatformInstagram:
		return instagram.New(creds, r.httpClient, base), nil
	case model.PlatformTwitter:
		return twitter.New(creds, r.httpClient, base), nil
	case model.PlatformLinkedIn:
		return linkedin.New(creds, r.httpClient, base), nil
	}
	return nil, fmt.Errorf("unsupported platform: %s", conn.Platform)
}

var _ repository.IAdapterRegistry = (*Registry)(nil)
