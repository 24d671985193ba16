// Package payment is a thin client for the Square payments API. The rest
// of the system treats it as an opaque collaborator: it charges a nonce
// and reports the result, nothing else.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tavolaeats/tavola/internal/domain"
)

const testNoncePrefix = "TEST_"

type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

func NewClient(baseURL, accessToken string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		httpClient:  httpClient,
	}
}

type createPaymentRequest struct {
	SourceID       string `json:"source_id"`
	IdempotencyKey string `json:"idempotency_key"`
	AmountMoney    struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	} `json:"amount_money"`
	Autocomplete bool   `json:"autocomplete"`
	Note         string `json:"note,omitempty"`
}

type createPaymentResponse struct {
	Payment struct {
		ID          string `json:"id"`
		Status      string `json:"status"`
		CardDetails struct {
			Card struct {
				CardBrand string `json:"card_brand"`
				Last4     string `json:"last_4"`
			} `json:"card"`
		} `json:"card_details"`
	} `json:"payment"`
	Errors []struct {
		Category string `json:"category"`
		Code     string `json:"code"`
		Detail   string `json:"detail"`
	} `json:"errors"`
}

// Charge submits amountCents against sourceToken. Nonces prefixed TEST_
// short-circuit to a simulated completed charge so checkout can be
// exercised without processor credentials.
func (c *Client) Charge(ctx context.Context, amountCents int64, sourceToken, note string) (*domain.Charge, error) {
	if strings.HasPrefix(sourceToken, testNoncePrefix) {
		return &domain.Charge{
			TransactionID: "TEST_PAYMENT_" + uuid.New().String(),
			Status:        "COMPLETED",
			CardBrand:     "VISA",
			LastFour:      "1111",
		}, nil
	}

	reqBody := createPaymentRequest{
		SourceID:       sourceToken,
		IdempotencyKey: uuid.New().String(),
		Autocomplete:   true,
		Note:           note,
	}
	reqBody.AmountMoney.Amount = amountCents
	reqBody.AmountMoney.Currency = "USD"

	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal payment request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/payments", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create payment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call payment processor: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read payment response: %w", err)
	}

	var parsed createPaymentResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode payment response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || len(parsed.Errors) > 0 {
		detail := "processor returned status " + resp.Status
		if len(parsed.Errors) > 0 {
			detail = parsed.Errors[0].Code + ": " + parsed.Errors[0].Detail
		}
		return nil, fmt.Errorf("payment declined: %s", detail)
	}

	return &domain.Charge{
		TransactionID: parsed.Payment.ID,
		Status:        parsed.Payment.Status,
		CardBrand:     parsed.Payment.CardDetails.Card.CardBrand,
		LastFour:      parsed.Payment.CardDetails.Card.Last4,
	}, nil
}

// DefaultHTTPClient is the client used when the caller does not supply
// one. Payments are never retried here; retry policy belongs to the
// processor integration, not the order core.
func DefaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 15 * time.Second}
}
