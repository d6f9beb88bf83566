package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/oxygen78/BOT.github.io/internal/domain"
)

func (r *Repository) InsertOrder(ctx context.Context, order *domain.Order) error {
	linesJSON, err := json.Marshal(order.Lines)
	if err != nil {
		return fmt.Errorf("failed to marshal order lines: %w", err)
	}

	query := `INSERT INTO orders (payload, user_id, line_items, total_minor, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, NOW(), NOW())`

	_, insertErr := r.db.ExecContext(ctx, query,
		order.Payload,
		order.UserID,
		linesJSON,
		order.TotalMinor,
		order.Status)

	if insertErr != nil {
		return fmt.Errorf("insert order: %w", insertErr)
	}
	return nil
}

func (r *Repository) GetOrderByPayload(ctx context.Context, payload string) (*domain.Order, error) {
	query := `SELECT payload, user_id, line_items, total_minor, status, created_at, updated_at
	          FROM orders WHERE payload = $1`

	var order domain.Order
	var linesJSON []byte
	err := r.db.QueryRowContext(ctx, query, payload).Scan(
		&order.Payload,
		&order.UserID,
		&linesJSON,
		&order.TotalMinor,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by payload: %w", err)
	}

	if err := json.Unmarshal(linesJSON, &order.Lines); err != nil {
		return nil, fmt.Errorf("unmarshal order lines: %w", err)
	}

	return &order, nil
}

// TransitionOrder moves an order from one status to another. The WHERE
// clause on the current status makes each edge single-use: the caller that
// loses a race observes false and must treat the token as consumed.
func (r *Repository) TransitionOrder(ctx context.Context, payload string, from, to domain.OrderStatus) (bool, error) {
	query := `UPDATE orders SET status = $1, updated_at = NOW()
	          WHERE payload = $2 AND status = $3`

	res, err := r.db.ExecContext(ctx, query, to, payload, from)
	if err != nil {
		return false, fmt.Errorf("transition order %s -> %s: %w", from, to, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition order rows affected: %w", err)
	}
	return affected == 1, nil
}

// SettleOrder transitions PAYMENT_PENDING -> SETTLED and enqueues the
// order-settled outbox event in the same transaction, so a settlement is
// never recorded without its event or vice versa.
func (r *Repository) SettleOrder(ctx context.Context, payload string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin settle tx: %w", err)
	}
	defer tx.Rollback()

	query := `UPDATE orders SET status = $1, updated_at = NOW()
	          WHERE payload = $2 AND status = $3
	          RETURNING user_id, total_minor`

	var userID, totalMinor int64
	err = tx.QueryRowContext(ctx, query,
		domain.OrderStatusSettled, payload, domain.OrderStatusPaymentPending).
		Scan(&userID, &totalMinor)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("settle order: %w", err)
	}

	event, err := json.Marshal(map[string]any{
		"payload":     payload,
		"user_id":     userID,
		"total_minor": totalMinor,
	})
	if err != nil {
		return false, fmt.Errorf("marshal settled event: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO outbox (topic, key, payload) VALUES ($1, $2, $3)`,
		"order-settled", payload, event)
	if err != nil {
		return false, fmt.Errorf("enqueue settled event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit settle tx: %w", err)
	}
	return true, nil
}

// FinalizeOrder transitions SETTLED -> FINALIZED and deletes the cart lines
// captured in the order snapshot in the same transaction, so a finalized
// order can never leave its paid-for lines behind. Returns the number of
// lines cleared and whether this call performed the transition.
func (r *Repository) FinalizeOrder(ctx context.Context, payload string) (int64, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("begin finalize tx: %w", err)
	}
	defer tx.Rollback()

	query := `UPDATE orders SET status = $1, updated_at = NOW()
	          WHERE payload = $2 AND status = $3
	          RETURNING user_id, line_items`

	var userID int64
	var linesJSON []byte
	err = tx.QueryRowContext(ctx, query,
		domain.OrderStatusFinalized, payload, domain.OrderStatusSettled).
		Scan(&userID, &linesJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("finalize order: %w", err)
	}

	var lines []domain.OrderLine
	if err := json.Unmarshal(linesJSON, &lines); err != nil {
		return 0, false, fmt.Errorf("unmarshal order lines: %w", err)
	}
	itemIDs := make([]int64, 0, len(lines))
	for _, line := range lines {
		itemIDs = append(itemIDs, line.ItemID)
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM cart_lines WHERE user_id = $1 AND item_id = ANY($2)`,
		userID, pq.Array(itemIDs))
	if err != nil {
		return 0, false, fmt.Errorf("clear snapshotted lines: %w", err)
	}
	cleared, err := res.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("clear snapshotted lines rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("commit finalize tx: %w", err)
	}
	return cleared, true, nil
}

// ExpireStaleOrders moves invoiced orders older than the TTL to EXPIRED.
// Orders already consumed by a pre-confirmation are left alone.
func (r *Repository) ExpireStaleOrders(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := `UPDATE orders SET status = $1, updated_at = NOW()
	          WHERE status = $2 AND created_at < NOW() - $3::interval`

	interval := fmt.Sprintf("%d seconds", int64(olderThan.Seconds()))
	res, err := r.db.ExecContext(ctx, query,
		domain.OrderStatusExpired, domain.OrderStatusInvoiced, interval)
	if err != nil {
		return 0, fmt.Errorf("expire stale orders: %w", err)
	}
	return res.RowsAffected()
}
