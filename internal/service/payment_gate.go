package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/oxygen78/BOT.github.io/internal/domain"
	"github.com/oxygen78/BOT.github.io/internal/repository"
)

type PaymentGate struct {
	repo repository.Store
}

func NewPaymentGate(repo repository.Store) *PaymentGate {
	return &PaymentGate{repo: repo}
}

// ValidatePreConfirmation checks the gateway's pre-payment claim against the
// frozen order. A mismatched amount rejects the order terminally (the cart
// is untouched, the user re-checkouts for a fresh token). Accepting consumes
// the token: the order moves to PAYMENT_PENDING exactly once.
func (g *PaymentGate) ValidatePreConfirmation(ctx context.Context, payload string, claimedAmount int64) error {
	order, err := g.repo.GetOrderByPayload(ctx, payload)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return ErrUnknownOrder
	}
	if err != nil {
		return fmt.Errorf("load order %s: %w", payload, err)
	}

	if order.Status != domain.OrderStatusInvoiced {
		return ErrUnknownOrder
	}

	if claimedAmount != order.TotalMinor {
		ok, errReject := g.repo.TransitionOrder(ctx, payload,
			domain.OrderStatusInvoiced, domain.OrderStatusRejected)
		if errReject != nil {
			return fmt.Errorf("reject order %s: %w", payload, errReject)
		}
		if !ok {
			// token was consumed while we were looking at it
			return ErrUnknownOrder
		}
		log.Printf("order %s rejected: claimed %d, expected %d", payload, claimedAmount, order.TotalMinor)
		return ErrAmountMismatch
	}

	ok, err := g.repo.TransitionOrder(ctx, payload,
		domain.OrderStatusInvoiced, domain.OrderStatusPaymentPending)
	if err != nil {
		return fmt.Errorf("accept order %s: %w", payload, err)
	}
	if !ok {
		return ErrUnknownOrder
	}
	return nil
}

// ConfirmPayment records the gateway's settlement. Only a PAYMENT_PENDING
// order can settle; replays and unknown tokens fail identically.
func (g *PaymentGate) ConfirmPayment(ctx context.Context, payload string) error {
	settled, err := g.repo.SettleOrder(ctx, payload)
	if err != nil {
		return fmt.Errorf("settle order %s: %w", payload, err)
	}
	if !settled {
		return ErrUnknownOrder
	}
	log.Printf("order %s settled", payload)
	return nil
}
