package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientConfirm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payments/confirm", r.URL.Path)
		assert.True(t, strings.HasPrefix(r.Header.Get("Authorization"), "Basic "))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "pay-key", req["paymentKey"])
		assert.Equal(t, "o1", req["orderId"])
		assert.Equal(t, float64(153000), req["amount"])

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"DONE"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test_sk_abc", 5*time.Second)
	err := c.Confirm(context.Background(), "pay-key", "o1", 153000)
	assert.NoError(t, err)
}

func TestClientConfirmVendorRefusal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"NOT_FOUND_PAYMENT","message":"unknown payment"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test_sk_abc", 5*time.Second)
	err := c.Confirm(context.Background(), "pay-key", "o1", 153000)

	var vendor *VendorError
	require.ErrorAs(t, err, &vendor)
	assert.Equal(t, "NOT_FOUND_PAYMENT", vendor.Code)
	assert.Equal(t, "unknown payment", vendor.Message)
}

func TestClientConfirmOpaqueFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("gateway timeout"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test_sk_abc", 5*time.Second)
	err := c.Confirm(context.Background(), "pay-key", "o1", 153000)

	var vendor *VendorError
	require.ErrorAs(t, err, &vendor)
	assert.Equal(t, "HTTP_500", vendor.Code)
}

func TestClientConfirmTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // closed up front so the dial fails

	c := NewClient(srv.URL, "test_sk_abc", time.Second)
	err := c.Confirm(context.Background(), "pay-key", "o1", 153000)

	require.Error(t, err)
	var vendor *VendorError
	assert.False(t, errors.As(err, &vendor), "a transport failure is not a definitive refusal")
}
