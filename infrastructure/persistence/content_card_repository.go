package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
)

// ContentCardRepository reads published content cards and merges engagement
// data into their metadata. It never touches card status or ownership.
type ContentCardRepository struct {
	db *sql.DB
}

func NewContentCardRepository(db *sql.DB) *ContentCardRepository {
	return &ContentCardRepository{db: db}
}

func (r *ContentCardRepository) ListPublished(ctx context.Context, tenantID string, cardIDs []string) ([]*model.ContentCard, error) {
	q := `SELECT id, tenant_id, title, platform, status, published_at, metadata
		  FROM content_cards WHERE tenant_id=$1 AND status='published'`
	args := []interface{}{tenantID}
	if len(cardIDs) > 0 {
		placeholders := make([]string, 0, len(cardIDs))
		for i, id := range cardIDs {
			placeholders = append(placeholders, fmt.Sprintf("$%d", i+2))
			args = append(args, id)
		}
		q += fmt.Sprintf(" AND id IN (%s)", strings.Join(placeholders, ","))
	}
	q += ` ORDER BY published_at DESC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list published cards: %w", err)
	}
	defer rows.Close()

	var cards []*model.ContentCard
	for rows.Next() {
		card := &model.ContentCard{}
		var publishedAt sql.NullTime
		var metadata sql.NullString
		if err := rows.Scan(&card.ID, &card.TenantID, &card.Title, &card.Platform, &card.Status, &publishedAt, &metadata); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		if publishedAt.Valid {
			t := publishedAt.Time
			card.PublishedAt = &t
		}
		if metadata.Valid && metadata.String != "" {
			if err := json.Unmarshal([]byte(metadata.String), &card.Metadata); err != nil {
				return nil, fmt.Errorf("decode card metadata: %w", err)
			}
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

func (r *ContentCardRepository) UpdateEngagement(ctx context.Context, tenantID, cardID string, data *model.EngagementData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode engagement: %w", err)
	}
	q := `UPDATE content_cards
		  SET metadata = jsonb_set(COALESCE(metadata, '{}'::jsonb), '{engagementData}', $3::jsonb, true),
		      updated_at = $4
		  WHERE tenant_id=$1 AND id=$2`
	res, err := r.db.ExecContext(ctx, q, tenantID, cardID, string(raw), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update engagement: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("content card %s not found for tenant %s", cardID, tenantID)
	}
	return nil
}

var _ repository.IContentCard = (*ContentCardRepository)(nil)
