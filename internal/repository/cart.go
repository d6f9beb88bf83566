package repository

import (
	"context"
	"fmt"

	"github.com/oxygen78/BOT.github.io/internal/domain"
)

// AddCartLine increments the user's line for the item, creating it with
// quantity 1 when absent. The upsert is a single statement, so two
// concurrent adds for the same user cannot duplicate a line or lose an
// increment. Returns the resulting quantity.
func (r *Repository) AddCartLine(ctx context.Context, userID, itemID int64) (int32, error) {
	query := `INSERT INTO cart_lines (user_id, item_id, quantity)
	          VALUES ($1, $2, 1)
	          ON CONFLICT (user_id, item_id)
	          DO UPDATE SET quantity = cart_lines.quantity + 1
	          RETURNING quantity`

	var quantity int32
	if err := r.db.QueryRowContext(ctx, query, userID, itemID).Scan(&quantity); err != nil {
		return 0, fmt.Errorf("upsert cart line: %w", err)
	}
	return quantity, nil
}

// GetCartLines returns the user's cart in insertion order. An empty cart
// yields an empty slice, not an error.
func (r *Repository) GetCartLines(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	query := `SELECT cl.user_id, cl.item_id, i.name, cl.quantity
	          FROM cart_lines cl
	          JOIN items i ON i.id = cl.item_id
	          WHERE cl.user_id = $1
	          ORDER BY cl.id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query cart lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.CartLine
	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(&line.UserID, &line.ItemID, &line.ItemName, &line.Quantity); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return lines, nil
}

func (r *Repository) ClearCart(ctx context.Context, userID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cart_lines WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("clear cart: %w", err)
	}
	return res.RowsAffected()
}

// GetCartWithPrices reads the cart joined to current catalog prices. The
// caller freezes these prices into an order snapshot; AmountMinor is left
// for the caller to fill.
func (r *Repository) GetCartWithPrices(ctx context.Context, userID int64) ([]domain.OrderLine, error) {
	query := `SELECT cl.item_id, i.name, cl.quantity, i.price
	          FROM cart_lines cl
	          JOIN items i ON i.id = cl.item_id
	          WHERE cl.user_id = $1
	          ORDER BY cl.id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query cart with prices: %w", err)
	}
	defer rows.Close()

	var lines []domain.OrderLine
	for rows.Next() {
		var line domain.OrderLine
		if err := rows.Scan(&line.ItemID, &line.ItemName, &line.Quantity, &line.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan priced cart line: %w", err)
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return lines, nil
}
