package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/oxygen78/BOT.github.io/internal/domain"
	"github.com/oxygen78/BOT.github.io/internal/service"
)

type cartService interface {
	AddItem(ctx context.Context, userID int64, itemName string) (*domain.CartLine, error)
	GetCart(ctx context.Context, userID int64) ([]domain.CartLine, error)
	Clear(ctx context.Context, userID int64) (int64, error)
}

type CartHandler struct {
	cart    cartService
	timeout time.Duration
}

func NewCartHandler(cart cartService, timeout time.Duration) *CartHandler {
	return &CartHandler{
		cart:    cart,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	Name string `json:"name"`
}

type CartLineDTO struct {
	ItemID   int64  `json:"item_id"`
	Name     string `json:"name"`
	Quantity int32  `json:"quantity"`
}

type CartResponseDTO struct {
	Lines []CartLineDTO `json:"lines"`
}

type ClearCartResponseDTO struct {
	Removed int64 `json:"removed"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "missing_name", "item name is required")
		return
	}

	line, err := h.cart.AddItem(ctx, userID, req.Name)
	if errors.Is(err, service.ErrItemNotFound) {
		respondError(w, http.StatusNotFound, "item_not_found", "item is not in the catalog, see /api/v1/catalog")
		return
	}
	if err != nil {
		log.Printf("add item failed for user %d: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondJSON(w, http.StatusCreated, CartLineDTO{
		ItemID:   line.ItemID,
		Name:     line.ItemName,
		Quantity: line.Quantity,
	})
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	lines, err := h.cart.GetCart(ctx, userID)
	if err != nil {
		log.Printf("get cart failed for user %d: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	resp := CartResponseDTO{Lines: make([]CartLineDTO, 0, len(lines))}
	for _, line := range lines {
		resp.Lines = append(resp.Lines, CartLineDTO{
			ItemID:   line.ItemID,
			Name:     line.ItemName,
			Quantity: line.Quantity,
		})
	}

	respondJSON(w, http.StatusOK, resp)
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	removed, err := h.cart.Clear(ctx, userID)
	if err != nil {
		log.Printf("clear cart failed for user %d: %v", userID, err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, ClearCartResponseDTO{Removed: removed})
}

func getUserIDFromContext(ctx context.Context) int64 {
	if userID, ok := ctx.Value("user_id").(int64); ok {
		return userID
	}
	return 0
}

func getRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value("request_id").(string); ok {
		return requestID
	}
	return ""
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: "",
	})
}
