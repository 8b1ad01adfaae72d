package flutterwave

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"merchant-payment-gateway/config"
	"merchant-payment-gateway/internal/core/domain"
	"merchant-payment-gateway/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(serverURL string) *Client {
	return NewClient(config.FlutterwaveConfig{
		BaseURL: serverURL,
		Test:    config.FlutterwaveCredentials{SecretKey: "sk_test_abc"},
		Live:    config.FlutterwaveCredentials{SecretKey: "sk_live_xyz"},
	}, zerolog.Nop())
}

func TestClient_InitializePayment(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/payments", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(map[string]any{
			"status":  "success",
			"message": "Hosted Link",
			"data":    map[string]string{"link": "https://checkout.flutterwave.com/pay/abc"},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.InitializePayment(context.Background(), domain.EnvironmentLive, ports.InitializePaymentRequest{
		Reference: "TX-abc",
		Amount:    decimal.RequireFromString("10000"),
		Currency:  "NGN",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.flutterwave.com/pay/abc", result.CheckoutURL)
	assert.Equal(t, "Bearer sk_live_xyz", gotAuth, "live entity uses live credentials")
	assert.Equal(t, "TX-abc", gotBody["tx_ref"])
	assert.Equal(t, "10000", gotBody["amount"])
}

func TestClient_InitializePayment_TestEnvironmentUsesTestKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk_test_abc", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data":   map[string]string{"link": "https://checkout.flutterwave.com/pay/test"},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.InitializePayment(context.Background(), domain.EnvironmentTest, ports.InitializePaymentRequest{
		Reference: "TX-test",
		Amount:    decimal.RequireFromString("500"),
		Currency:  "NGN",
	})
	require.NoError(t, err)
}

func TestClient_InitializePayment_RejectionIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"status":  "error",
			"message": "Invalid currency",
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.InitializePayment(context.Background(), domain.EnvironmentTest, ports.InitializePaymentRequest{
		Reference: "TX-bad",
		Amount:    decimal.RequireFromString("500"),
		Currency:  "XYZ",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid currency")
}

func TestClient_InitiateTransfer(t *testing.T) {
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transfers", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]any{"status": "success", "message": "Transfer Queued"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	err := client.InitiateTransfer(context.Background(), domain.EnvironmentLive, ports.InitiateTransferRequest{
		Reference:     "PO-abc",
		Amount:        decimal.RequireFromString("5000"),
		Currency:      "NGN",
		BankCode:      "044",
		AccountNumber: "0690000031",
		Narration:     "Payout PO-abc",
		CallbackURL:   "https://gateway.example/webhooks/flutterwave/transfers",
	})
	require.NoError(t, err)
	assert.Equal(t, "044", gotBody["account_bank"])
	assert.Equal(t, "0690000031", gotBody["account_number"])
	assert.Equal(t, "PO-abc", gotBody["reference"])
	assert.Equal(t, "https://gateway.example/webhooks/flutterwave/transfers", gotBody["callback_url"])
}

func TestClient_GetTransferStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transfers", r.URL.Path)
		assert.Equal(t, "PO-abc", r.URL.Query().Get("reference"))
		json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data":   []map[string]string{{"status": "SUCCESSFUL"}},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	status, err := client.GetTransferStatus(context.Background(), domain.EnvironmentLive, "PO-abc")
	require.NoError(t, err)
	assert.Equal(t, "SUCCESSFUL", status)
}

func TestClient_ListBanks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/banks/NG", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data": []map[string]any{
				{"id": 1, "name": "Access Bank", "code": "044"},
				{"id": 2, "name": "GTBank", "code": "058"},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	banks, err := client.ListBanks(context.Background(), domain.EnvironmentTest, "NG")
	require.NoError(t, err)
	require.Len(t, banks, 2)
	assert.Equal(t, "044", banks[0].Code)
	assert.Equal(t, "GTBank", banks[1].Name)
}
