package cache

import (
	"context"
	"errors"

	"github.com/oxygen78/BOT.github.io/internal/domain"
)

var ErrCacheMiss = errors.New("cart view not in cache")

// CartCache caches the cart view per user. A miss is signalled with
// ErrCacheMiss; any other error means the cache is degraded, not empty.
type CartCache interface {
	Get(ctx context.Context, userID int64) ([]domain.CartLine, error)
	Set(ctx context.Context, userID int64, lines []domain.CartLine) error
	Delete(ctx context.Context, userID int64) error
}
