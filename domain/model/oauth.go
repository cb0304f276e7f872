package model

import "time"

// OAuthStateTTL bounds how long an issued state token stays redeemable.
// Enforced at consume time; a consumed or expired state is rejected alike.
const OAuthStateTTL = 10 * time.Minute

// OAuthStatePayload binds an authorization request to its callback. It is
// persisted under an opaque random key and deleted on first read.
type OAuthStatePayload struct {
	TenantID     string    `json:"tenantId"`
	Platform     Platform  `json:"platform"`
	ConnectionID string    `json:"connectionId,omitempty"`
	IssuedAt     time.Time `json:"issuedAt"`
}

// Expired reports whether the payload is past its redeemable window.
func (p *OAuthStatePayload) Expired(now time.Time) bool {
	return now.After(p.IssuedAt.Add(OAuthStateTTL))
}
