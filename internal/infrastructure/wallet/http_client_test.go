package wallet

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noWait() backoff.BackOff { return &backoff.ZeroBackOff{} }

func newTestClient(t *testing.T, srv *httptest.Server, retries int) *HTTPClient {
	t.Helper()
	c, err := NewHTTPClient(Config{BaseURL: srv.URL, APIKey: "secret", MaxRetries: retries, Timeout: time.Second},
		WithBackOff(noWait))
	require.NoError(t, err)
	return c
}

func TestHTTPClient_Credit(t *testing.T) {
	user := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/wallets/"+user.String()+"/credits", r.URL.Path)
		assert.Equal(t, "payout:d:1", r.Header.Get(IdempotencyKeyHeader))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "1500.5", body["amount"])
		assert.Equal(t, "payout:d:1", body["reference"])

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"transaction_id":"tx-9"}`))
	}))
	defer srv.Close()

	receipt, err := newTestClient(t, srv, 0).Credit(context.Background(), user, decimal.RequireFromString("1500.50"), "payout:d:1")
	require.NoError(t, err)
	assert.Equal(t, "tx-9", receipt.TransactionID)
	assert.Equal(t, "payout:d:1", receipt.Reference)
	assert.False(t, receipt.Replayed)
}

func TestHTTPClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"transaction_id":"tx-1","replayed":true}`))
	}))
	defer srv.Close()

	receipt, err := newTestClient(t, srv, 3).Credit(context.Background(), uuid.New(), decimal.NewFromInt(10), "ref")
	require.NoError(t, err)
	assert.True(t, receipt.Replayed)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPClient_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, 2).Credit(context.Background(), uuid.New(), decimal.NewFromInt(10), "ref")
	require.Error(t, err)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPClient_ClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"wallet frozen"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, 5).Credit(context.Background(), uuid.New(), decimal.NewFromInt(10), "ref")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wallet frozen")
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPClient_MissingTransactionID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, 3).Credit(context.Background(), uuid.New(), decimal.NewFromInt(10), "ref")
	assert.Error(t, err)
}

func TestNewHTTPClient_InvalidBaseURL(t *testing.T) {
	_, err := NewHTTPClient(Config{BaseURL: "wallet.local"})
	assert.Error(t, err)
}
