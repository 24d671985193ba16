package catalog

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/tavolaeats/tavola/internal/domain"
)

// Provider abstracts the menu store so the handler works against postgres
// or the in-memory catalog alike.
type Provider interface {
	ListItems(ctx context.Context) ([]domain.MenuItem, error)
	ListCategories(ctx context.Context) ([]domain.MenuCategory, error)
	ItemsByCategory(ctx context.Context, categoryID int64) ([]domain.MenuItem, error)
}

type Handler struct {
	provider Provider
	logger   *slog.Logger
}

func NewHandler(provider Provider, logger *slog.Logger) *Handler {
	return &Handler{provider: provider, logger: logger}
}

func (h *Handler) HandleMenu(w http.ResponseWriter, r *http.Request) {
	items, err := h.provider.ListItems(r.Context())
	if err != nil {
		h.logger.Error("failed to list menu items", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to fetch menu")
		return
	}
	h.writeJSON(w, http.StatusOK, items)
}

func (h *Handler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.provider.ListCategories(r.Context())
	if err != nil {
		h.logger.Error("failed to list categories", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to fetch categories")
		return
	}
	h.writeJSON(w, http.StatusOK, cats)
}

func (h *Handler) HandleMenuByCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, err := strconv.ParseInt(r.PathValue("categoryID"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	items, err := h.provider.ItemsByCategory(r.Context(), categoryID)
	if err != nil {
		h.logger.Error("failed to list category items", "error", err, "category_id", categoryID)
		h.writeError(w, http.StatusInternalServerError, "failed to fetch items")
		return
	}
	h.writeJSON(w, http.StatusOK, items)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
