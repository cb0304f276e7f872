package model

import "time"

// EngagementMetrics is the normalized engagement shape across platforms.
type EngagementMetrics struct {
	Likes    int64 `json:"likes"`
	Comments int64 `json:"comments"`
	Shares   int64 `json:"shares"`
	Reach    int64 `json:"reach"`
}

// EngagementData is what the sync engine merges into a content card's
// metadata under the engagementData key.
type EngagementData struct {
	Metrics   EngagementMetrics `json:"metrics"`
	UpdatedAt time.Time         `json:"updatedAt"`
	Source    string            `json:"source"` // api_sync
}

// ContentCard is the external relational entity the analytics engine reads
// from and writes engagement back into. The engine only ever mutates
// metadata.engagementData; status and ownership stay untouched.
type ContentCard struct {
	ID          string                 `json:"id"`
	TenantID    string                 `json:"tenant_id"`
	Title       string                 `json:"title"`
	Platform    Platform               `json:"platform"`
	Status      string                 `json:"status"`
	PublishedAt *time.Time             `json:"published_at,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// SyncStatus is the tenant-level summary persisted after each analytics run.
type SyncStatus struct {
	LastSyncAt time.Time `json:"lastSyncAt"`
	Synced     int       `json:"synced"`
	Errors     int       `json:"errors"`
	TotalCards int       `json:"totalCards"`
}

// SyncDetail reports the outcome for a single content card within a run.
type SyncDetail struct {
	CardID string `json:"cardId"`
	Status string `json:"status"` // synced | error
	Error  string `json:"error,omitempty"`
}

// SyncResult aggregates one analytics run. Partial failures accumulate
// here; the batch always completes.
type SyncResult struct {
	Synced  int          `json:"synced"`
	Errors  int          `json:"errors"`
	Details []SyncDetail `json:"details"`
}
