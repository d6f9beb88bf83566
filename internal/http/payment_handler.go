package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/oxygen78/BOT.github.io/internal/service"
)

type paymentGate interface {
	ValidatePreConfirmation(ctx context.Context, payload string, claimedAmount int64) error
	ConfirmPayment(ctx context.Context, payload string) error
}

type orderFinalizer interface {
	Finalize(ctx context.Context, payload string) (int64, error)
}

type PaymentHandler struct {
	gate      paymentGate
	finalizer orderFinalizer
	timeout   time.Duration
}

func NewPaymentHandler(gate paymentGate, finalizer orderFinalizer, timeout time.Duration) *PaymentHandler {
	return &PaymentHandler{
		gate:      gate,
		finalizer: finalizer,
		timeout:   timeout,
	}
}

type PreCheckoutRequestDTO struct {
	Payload     string `json:"payload"`
	TotalAmount int64  `json:"total_amount"`
}

// PreCheckoutResponseDTO mirrors the gateway callback answer: the callback
// always expects a reply, so rejections ride a 200 with ok=false.
type PreCheckoutResponseDTO struct {
	OK           bool   `json:"ok"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type ConfirmRequestDTO struct {
	Payload string `json:"payload"`
}

type ConfirmResponseDTO struct {
	Message      string `json:"message"`
	LinesCleared int64  `json:"lines_cleared"`
}

// POST /api/v1/payments/precheckout
func (h *PaymentHandler) PreCheckout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req PreCheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.Payload == "" {
		respondError(w, http.StatusBadRequest, "missing_payload", "payload is required")
		return
	}

	err := h.gate.ValidatePreConfirmation(ctx, req.Payload, req.TotalAmount)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, PreCheckoutResponseDTO{OK: true})
	case errors.Is(err, service.ErrUnknownOrder):
		respondJSON(w, http.StatusOK, PreCheckoutResponseDTO{OK: false, ErrorMessage: "transaction error: unknown order"})
	case errors.Is(err, service.ErrAmountMismatch):
		respondJSON(w, http.StatusOK, PreCheckoutResponseDTO{OK: false, ErrorMessage: "transaction error: amount mismatch"})
	default:
		log.Printf("precheckout failed for payload %s: %v", req.Payload, err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// POST /api/v1/payments/confirm
func (h *PaymentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ConfirmRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.Payload == "" {
		respondError(w, http.StatusBadRequest, "missing_payload", "payload is required")
		return
	}

	if err := h.gate.ConfirmPayment(ctx, req.Payload); err != nil {
		if errors.Is(err, service.ErrUnknownOrder) {
			respondError(w, http.StatusNotFound, "unknown_order", "order is unknown or already settled")
			return
		}
		log.Printf("confirm failed for payload %s: %v", req.Payload, err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	cleared, err := h.finalizer.Finalize(ctx, req.Payload)
	if err != nil {
		// settlement is recorded; finalization will not be retried by the
		// gateway, so surface the failure loudly
		log.Printf("finalize failed for payload %s: %v", req.Payload, err)
		respondError(w, http.StatusInternalServerError, "internal_error", "payment recorded but finalization failed")
		return
	}

	respondJSON(w, http.StatusOK, ConfirmResponseDTO{
		Message:      "Payment successful! Thank you for your purchase.",
		LinesCleared: cleared,
	})
}
