package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"trading-contest/observability"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayoutService pays the contest winner through the payments provider:
// one call to register the payee, one to send the money. The provider
// defines no idempotency key, so a retried payout can pay twice; this
// is a documented limitation of the integration.
type PayoutService struct {
	apiKey     string
	apiSecret  string
	baseURL    string
	httpClient *http.Client
}

// NewPayoutService creates a new PayoutService instance
func NewPayoutService(apiKey, apiSecret, baseURL string) *PayoutService {
	return &PayoutService{
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type createPayeeRequest struct {
	Name      string `json:"name"`
	Reference string `json:"reference"`
}

type createPayeeResponse struct {
	ID string `json:"id"`
}

type sendPaymentRequest struct {
	PayeeID string `json:"payee_id"`
	Amount  string `json:"amount"`
	Memo    string `json:"memo"`
}

type sendPaymentResponse struct {
	Status string `json:"status"`
}

// PayWinner registers the winner as a payee and sends the payment.
func (s *PayoutService) PayWinner(ctx context.Context, contestID, winnerID uuid.UUID, winnerName string, amount decimal.Decimal) error {
	metrics := observability.GetMetrics()
	log := observability.With("contest_id", contestID, "winner_id", winnerID)

	payeeID, err := s.createPayee(ctx, winnerID, winnerName)
	if err != nil {
		metrics.RecordPayout("failed")
		return fmt.Errorf("payee creation failed: %w", err)
	}

	if err := s.sendPayment(ctx, payeeID, contestID, amount); err != nil {
		metrics.RecordPayout("failed")
		return fmt.Errorf("payment send failed: %w", err)
	}

	metrics.RecordPayout("success")
	log.Info("payout sent", "amount", amount.StringFixed(2))
	return nil
}

func (s *PayoutService) createPayee(ctx context.Context, winnerID uuid.UUID, winnerName string) (string, error) {
	metrics := observability.GetMetrics()
	metrics.RecordExternalAPIRequest(BreakerPayments, "create_payee")
	timer := metrics.NewTimer()

	// Payee creation moves no money, so it is safe to retry.
	payeeID, err := WithCircuitBreaker(ctx, BreakerPayments, func() (string, error) {
		var id string

		err := WithRetry(ctx, DefaultRetryConfig, func() error {
			var resp createPayeeResponse
			err := s.post(ctx, "/v1/payees", createPayeeRequest{
				Name:      winnerName,
				Reference: winnerID.String(),
			}, &resp)
			if err != nil {
				return err
			}
			if resp.ID == "" {
				return fmt.Errorf("provider returned no payee id")
			}
			id = resp.ID
			return nil
		})

		return id, err
	})

	timer.ObserveExternalAPI(BreakerPayments, "create_payee")
	if err != nil {
		metrics.RecordExternalAPIError(BreakerPayments, "create_payee", categorizeAPIError(err))
	}
	return payeeID, err
}

func (s *PayoutService) sendPayment(ctx context.Context, payeeID string, contestID uuid.UUID, amount decimal.Decimal) error {
	metrics := observability.GetMetrics()
	metrics.RecordExternalAPIRequest(BreakerPayments, "send_payment")
	timer := metrics.NewTimer()

	// No retry wrapper here: without an idempotency contract a blind
	// retry could double-pay the winner.
	_, err := WithCircuitBreaker(ctx, BreakerPayments, func() (struct{}, error) {
		var resp sendPaymentResponse
		err := s.post(ctx, "/v1/payments", sendPaymentRequest{
			PayeeID: payeeID,
			Amount:  amount.StringFixed(2),
			Memo:    fmt.Sprintf("Trading contest %s prize", contestID),
		}, &resp)
		if err != nil {
			return struct{}{}, err
		}
		if resp.Status != "sent" && resp.Status != "pending" {
			return struct{}{}, fmt.Errorf("unexpected payment status %q", resp.Status)
		}
		return struct{}{}, nil
	})

	timer.ObserveExternalAPI(BreakerPayments, "send_payment")
	if err != nil {
		metrics.RecordExternalAPIError(BreakerPayments, "send_payment", categorizeAPIError(err))
	}
	return err
}

func (s *PayoutService) post(ctx context.Context, path string, body, result any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(s.apiKey, s.apiSecret)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
