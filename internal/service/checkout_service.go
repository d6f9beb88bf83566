package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/oxygen78/BOT.github.io/internal/domain"
	"github.com/oxygen78/BOT.github.io/internal/repository"
)

const (
	invoiceTitle       = "Order payment"
	invoiceDescription = "CrushW1N store order"
	invoiceCurrency    = "RUB"
)

type CheckoutService struct {
	repo repository.Store
}

func NewCheckoutService(repo repository.Store) *CheckoutService {
	return &CheckoutService{repo: repo}
}

// BuildInvoice snapshots the user's cart into an immutable order and returns
// the invoice to hand to the payment gateway. Catalog prices are frozen into
// the order at this instant; later price changes never alter a pending
// total. Each call issues a fresh payload token, so concurrent checkout
// attempts for one user coexist as independent orders.
func (s *CheckoutService) BuildInvoice(ctx context.Context, userID int64) (*domain.Invoice, error) {
	lines, err := s.repo.GetCartWithPrices(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("read cart snapshot: %w", err)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	var total int64
	for i := range lines {
		lines[i].AmountMinor = domain.MinorUnits(lines[i].UnitPrice, lines[i].Quantity)
		total += lines[i].AmountMinor
	}

	order := &domain.Order{
		Payload:    uuid.NewString(),
		UserID:     userID,
		Lines:      lines,
		TotalMinor: total,
		Status:     domain.OrderStatusInvoiced,
	}

	if err := s.repo.InsertOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("store order snapshot: %w", err)
	}

	prices := make([]domain.LabeledPrice, 0, len(lines))
	for _, line := range lines {
		prices = append(prices, domain.LabeledPrice{
			Label:  fmt.Sprintf("%s x%d", line.ItemName, line.Quantity),
			Amount: line.AmountMinor,
		})
	}

	return &domain.Invoice{
		Title:       invoiceTitle,
		Description: invoiceDescription,
		Payload:     order.Payload,
		Currency:    invoiceCurrency,
		Prices:      prices,
	}, nil
}
