package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/oxygen78/BOT.github.io/internal/domain"
)

func (r *Repository) ListItems(ctx context.Context) ([]*domain.Item, error) {
	query := `SELECT id, name, price FROM items ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []*domain.Item
	for rows.Next() {
		item := &domain.Item{}
		if err := rows.Scan(&item.ID, &item.Name, &item.Price); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return items, nil
}

func (r *Repository) GetItemByName(ctx context.Context, name string) (*domain.Item, error) {
	query := `SELECT id, name, price FROM items WHERE name = $1`

	var item domain.Item
	err := r.db.QueryRowContext(ctx, query, name).Scan(&item.ID, &item.Name, &item.Price)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query item by name: %w", err)
	}

	return &item, nil
}
