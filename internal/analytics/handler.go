package analytics

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

type Handler struct {
	repo   *Repository
	logger *slog.Logger
}

// NewHandler accepts a nil repo: analytics has no in-memory equivalent,
// so a memory-backed instance serves 503 here.
func NewHandler(repo *Repository, logger *slog.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

func (h *Handler) HandleBusiness(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		h.writeError(w, http.StatusServiceUnavailable, "analytics requires a database connection")
		return
	}

	stats, err := h.repo.BusinessStats(r.Context())
	if err != nil {
		h.logger.Error("failed to compute business stats", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		h.writeError(w, http.StatusServiceUnavailable, "analytics requires a database connection")
		return
	}

	rows, err := h.repo.ExportOrders(r.Context())
	if err != nil {
		h.logger.Error("failed to export orders", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=orders-export.csv")

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"Order ID", "Date", "Type", "Status", "Total", "Promo Code", "Customer Name"})
	for _, row := range rows {
		_ = cw.Write([]string{
			fmt.Sprintf("%d", row.OrderID),
			row.CreatedAt.Format(time.RFC3339),
			string(row.OrderType),
			string(row.Status),
			fmt.Sprintf("%.2f", float64(row.TotalPrice)/100),
			row.PromoCode,
			row.CustomerName,
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.logger.Error("failed to write csv", "error", err)
	}
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
