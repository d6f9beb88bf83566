package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/oxygen78/BOT.github.io/internal/cache"
	"github.com/oxygen78/BOT.github.io/internal/domain"
	"github.com/oxygen78/BOT.github.io/internal/repository"
)

type Finalizer struct {
	repo  repository.Store
	cache cache.CartCache
}

func NewFinalizer(repo repository.Store, cache cache.CartCache) *Finalizer {
	return &Finalizer{repo: repo, cache: cache}
}

// Finalize clears exactly the cart lines captured in the settled order's
// snapshot — not the live cart, which may have gained lines since checkout.
// Replaying a finalized payload is a no-op returning 0.
func (f *Finalizer) Finalize(ctx context.Context, payload string) (int64, error) {
	order, err := f.repo.GetOrderByPayload(ctx, payload)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return 0, ErrUnknownOrder
	}
	if err != nil {
		return 0, fmt.Errorf("load order %s: %w", payload, err)
	}

	switch order.Status {
	case domain.OrderStatusSettled:
		// fall through to the conditional transition below
	case domain.OrderStatusFinalized:
		return 0, nil
	default:
		return 0, ErrUnknownOrder
	}

	// transition and snapshot-line delete happen in one repository
	// transaction: a storage failure rolls both back and leaves the order
	// SETTLED, so a retry can finish the job
	cleared, finalized, err := f.repo.FinalizeOrder(ctx, payload)
	if err != nil {
		return 0, fmt.Errorf("finalize order %s: %w", payload, err)
	}
	if !finalized {
		// a concurrent finalize won the transition and cleared the lines
		return 0, nil
	}

	f.invalidateCache(order.UserID)
	log.Printf("order %s finalized, %d cart lines cleared", payload, cleared)
	return cleared, nil
}

func (f *Finalizer) invalidateCache(userID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := f.cache.Delete(ctx, userID); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}
