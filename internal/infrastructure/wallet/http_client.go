// Package wallet credits investor wallets held by an external wallet service.
package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/payout/backend/internal/domain/payout"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// IdempotencyKeyHeader carries the occurrence reference to the wallet service
const IdempotencyKeyHeader = "Idempotency-Key"

// Config configures the HTTP wallet client
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration // per attempt
	MaxRetries int
}

// HTTPClient implements payout.Wallet against the wallet service REST API:
//
//	POST {base}/v1/wallets/{userID}/credits
//	{"amount": "1500.00", "reference": "payout:<due>:<period>"}
//
// Transport errors and 5xx responses are retried with exponential backoff;
// the idempotency key makes a retried credit safe.
type HTTPClient struct {
	baseURL    *url.URL
	apiKey     string
	httpClient *http.Client
	maxRetries int
	newBackOff func() backoff.BackOff
	logger     *zap.Logger
}

// Option configures an HTTPClient
type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) { h.httpClient = c }
}

// WithLogger sets the logger used for retry warnings
func WithLogger(l *zap.Logger) Option {
	return func(h *HTTPClient) { h.logger = l }
}

// WithBackOff replaces the retry schedule, mainly for tests
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(h *HTTPClient) { h.newBackOff = newBackOff }
}

func NewHTTPClient(cfg Config, opts ...Option) (*HTTPClient, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid wallet base URL %q", cfg.BaseURL)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &HTTPClient{
		baseURL:    base,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: max(cfg.MaxRetries, 0),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			return b
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type creditRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference"`
}

type creditResponse struct {
	TransactionID string `json:"transaction_id"`
	Replayed      bool   `json:"replayed"`
}

// StatusError is returned for non-2xx responses from the wallet service
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("wallet service returned %d: %s", e.StatusCode, e.Body)
}

// Credit posts the credit, retrying transient failures
func (c *HTTPClient) Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, reference string) (*payout.WalletReceipt, error) {
	body, err := json.Marshal(creditRequest{Amount: amount, Reference: reference})
	if err != nil {
		return nil, fmt.Errorf("failed to encode wallet credit: %w", err)
	}
	endpoint := c.baseURL.JoinPath("v1", "wallets", userID.String(), "credits").String()

	var result creditResponse
	attempt := 0
	operation := func() error {
		attempt++
		r, err := c.post(ctx, endpoint, reference, body)
		if err != nil {
			return err
		}
		result = *r
		return nil
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("wallet credit failed, retrying",
			zap.String("reference", reference),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), uint64(c.maxRetries)), ctx)
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return nil, fmt.Errorf("wallet credit %s failed after %d attempt(s): %w", reference, attempt, err)
	}

	return &payout.WalletReceipt{
		TransactionID: result.TransactionID,
		Reference:     reference,
		Amount:        amount,
		Replayed:      result.Replayed,
	}, nil
}

func (c *HTTPClient) post(ctx context.Context, endpoint, reference string, body []byte) (*creditResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(IdempotencyKeyHeader, reference)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode >= 500 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, backoff.Permanent(&StatusError{StatusCode: resp.StatusCode, Body: string(raw)})
	}

	var out creditResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("invalid wallet response: %w", err))
	}
	if out.TransactionID == "" {
		return nil, backoff.Permanent(errors.New("wallet response has no transaction_id"))
	}
	return &out, nil
}

var _ payout.Wallet = (*HTTPClient)(nil)
