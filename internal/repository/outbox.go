package repository

import (
	"context"
	"fmt"
)

func (r *Repository) GetUnsentEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	query := `SELECT id, topic, key, payload, created_at, sent_at
	          FROM outbox WHERE sent_at IS NULL ORDER BY id LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query unsent events: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		event := &OutboxEvent{}
		if err := rows.Scan(&event.ID, &event.Topic, &event.Key, &event.Payload, &event.CreatedAt, &event.SentAt); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return events, nil
}

func (r *Repository) MarkEventSent(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE outbox SET sent_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark event sent: %w", err)
	}
	return nil
}
