package http

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/oxygen78/BOT.github.io/internal/domain"
	"github.com/oxygen78/BOT.github.io/internal/service"
)

type checkoutService interface {
	BuildInvoice(ctx context.Context, userID int64) (*domain.Invoice, error)
}

type CheckoutHandler struct {
	checkout checkoutService
	timeout  time.Duration
}

func NewCheckoutHandler(checkout checkoutService, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		timeout:  timeout,
	}
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	invoice, err := h.checkout.BuildInvoice(ctx, userID)
	if errors.Is(err, service.ErrEmptyCart) {
		respondError(w, http.StatusConflict, "empty_cart", "cart is empty, nothing to checkout")
		return
	}
	if err != nil {
		log.Printf("checkout failed for user %d (request %s): %v", userID, getRequestID(r.Context()), err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondJSON(w, http.StatusCreated, invoice)
}
