package model

import "time"

// HistoryCap bounds the per-tenant publish ledger; oldest entries are
// dropped silently once exceeded.
const HistoryCap = 100

const (
	PublishStatusSuccess = "success"
	PublishStatusError   = "error"
)

// PublishRecord is one append-only entry in a tenant's publish ledger,
// stored newest-first.
type PublishRecord struct {
	ID             string    `json:"id"`
	CardTitle      string    `json:"cardTitle"`
	Platform       Platform  `json:"platform"`
	ConnectionName string    `json:"connectionName"`
	Status         string    `json:"status"` // success | error
	ErrorMessage   string    `json:"errorMessage,omitempty"`
	PublishedAt    time.Time `json:"publishedAt"`
	PublishedBy    string    `json:"publishedBy"`
	PostURL        string    `json:"postUrl,omitempty"`
}
