package promo

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/tavolaeats/tavola/internal/domain"
)

type Handler struct {
	engine *Engine
	logger *slog.Logger
}

func NewHandler(engine *Engine, logger *slog.Logger) *Handler {
	return &Handler{engine: engine, logger: logger}
}

type validateRequest struct {
	Code          string `json:"code"`
	OrderSubtotal int64  `json:"order_subtotal"`
}

// HandleValidate is the checkout preview endpoint: it validates a code
// against the cart subtotal and returns the discount it would grant.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Code == "" || len(req.Code) > 50 || req.OrderSubtotal < 0 {
		h.writeError(w, http.StatusBadRequest, "invalid promo code format")
		return
	}

	result, err := h.engine.Validate(r.Context(), req.Code, req.OrderSubtotal, time.Now().UTC())
	if err != nil {
		var minErr *domain.PromoMinimumError
		switch {
		case errors.Is(err, domain.ErrPromoNotFound), errors.As(err, &minErr):
			h.writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("promo validation failed", "error", err)
			h.writeError(w, http.StatusInternalServerError, "failed to validate promo code")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, result)
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
