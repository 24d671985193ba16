// Package notifier turns order status events into customer emails. It
// replaces in-page push: customer and kitchen views poll the API, while
// email is the out-of-band channel.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tavolaeats/tavola/internal/domain"
)

type Handler struct {
	emailServiceURL string
	httpClient      *http.Client
	logger          *slog.Logger
}

func NewHandler(emailServiceURL string, client *http.Client, logger *slog.Logger) *Handler {
	return &Handler{
		emailServiceURL: emailServiceURL,
		httpClient:      client,
		logger:          logger,
	}
}

func (h *Handler) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderStatusChangedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal status changed event: %w", err)
	}

	h.logger.Info("processing status change",
		"order_id", event.OrderID, "old_status", event.OldStatus, "new_status", event.NewStatus)

	if event.CustomerEmail == "" {
		h.logger.Info("no customer email on order, skipping notification", "order_id", event.OrderID)
		return nil
	}

	subject, body, notify := messageFor(event)
	if !notify {
		return nil
	}

	if err := h.sendEmail(ctx, event.CustomerEmail, subject, body); err != nil {
		h.logger.Error("failed to send notification", "error", err, "order_id", event.OrderID)
		return fmt.Errorf("send notification email: %w", err)
	}

	h.logger.Info("notification sent", "order_id", event.OrderID, "new_status", event.NewStatus)
	return nil
}

// messageFor picks the customer-facing copy per status. Intermediate
// kitchen steps stay quiet; only milestones email the customer.
func messageFor(event domain.OrderStatusChangedEvent) (subject, body string, notify bool) {
	id := event.OrderID
	switch event.NewStatus {
	case domain.OrderStatusReady:
		return fmt.Sprintf("Order #%d is ready", id),
			fmt.Sprintf("Hi %s, your order #%d is ready for pickup or out for delivery.", event.CustomerName, id),
			true
	case domain.OrderStatusCompleted:
		return fmt.Sprintf("Order #%d completed", id),
			fmt.Sprintf("Hi %s, your order #%d is complete. Thanks for ordering with us!", event.CustomerName, id),
			true
	case domain.OrderStatusCancelled:
		return fmt.Sprintf("Order #%d cancelled", id),
			fmt.Sprintf("Hi %s, your order #%d has been cancelled. If you already paid, you will be reimbursed.", event.CustomerName, id),
			true
	default:
		return "", "", false
	}
}

func (h *Handler) sendEmail(ctx context.Context, to, subject, body string) error {
	payload := map[string]string{
		"to":      to,
		"subject": subject,
		"body":    body,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.emailServiceURL+"/send", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}

	return nil
}
