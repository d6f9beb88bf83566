package http

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/oxygen78/BOT.github.io/internal/domain"
)

type catalogService interface {
	ListItems(ctx context.Context) ([]*domain.Item, error)
}

type CatalogHandler struct {
	catalog catalogService
	timeout time.Duration
}

func NewCatalogHandler(catalog catalogService, timeout time.Duration) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		timeout: timeout,
	}
}

type ItemDTO struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// GET /api/v1/catalog
func (h *CatalogHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	items, err := h.catalog.ListItems(ctx)
	if err != nil {
		log.Printf("list catalog failed: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	resp := make([]ItemDTO, 0, len(items))
	for _, item := range items {
		resp = append(resp, ItemDTO{ID: item.ID, Name: item.Name, Price: item.Price})
	}

	respondJSON(w, http.StatusOK, resp)
}
