package flutterwave

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"merchant-payment-gateway/config"
	"merchant-payment-gateway/internal/core/domain"
	"merchant-payment-gateway/internal/core/ports"

	"github.com/rs/zerolog"
)

const requestTimeout = 15 * time.Second

// Client implements ports.FiatGateway against the Flutterwave v3 API.
// The secret key is selected per call from the entity's environment; TEST
// and LIVE credentials never mix.
type Client struct {
	baseURL    string
	cfg        config.FlutterwaveConfig
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a Flutterwave API client.
func NewClient(cfg config.FlutterwaveConfig, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: requestTimeout},
		log:        log.With().Str("component", "flutterwave_client").Logger(),
	}
}

func (c *Client) secretKey(env domain.Environment) string {
	if env == domain.EnvironmentLive {
		return c.cfg.Live.SecretKey
	}
	return c.cfg.Test.SecretKey
}

// apiResponse is the common Flutterwave envelope.
type apiResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// InitializePayment creates a hosted checkout session.
func (c *Client) InitializePayment(ctx context.Context, env domain.Environment, req ports.InitializePaymentRequest) (*ports.InitializePaymentResult, error) {
	payload := map[string]any{
		"tx_ref":       req.Reference,
		"amount":       req.Amount.String(),
		"currency":     req.Currency,
		"redirect_url": req.RedirectURL,
		"customer": map[string]string{
			"email": req.CustomerEmail,
			"name":  req.CustomerName,
		},
		"customizations": map[string]string{
			"title": req.Title,
		},
	}

	var data struct {
		Link string `json:"link"`
	}
	if err := c.do(ctx, env, http.MethodPost, "/payments", payload, &data); err != nil {
		return nil, err
	}
	if data.Link == "" {
		return nil, fmt.Errorf("flutterwave payments: response missing checkout link")
	}
	return &ports.InitializePaymentResult{CheckoutURL: data.Link}, nil
}

// InitiateTransfer submits an outbound bank transfer. Completion arrives by
// webhook at the callback URL, never in this response.
func (c *Client) InitiateTransfer(ctx context.Context, env domain.Environment, req ports.InitiateTransferRequest) error {
	payload := map[string]any{
		"account_bank":   req.BankCode,
		"account_number": req.AccountNumber,
		"amount":         req.Amount.String(),
		"narration":      req.Narration,
		"currency":       req.Currency,
		"reference":      req.Reference,
		"callback_url":   req.CallbackURL,
	}

	return c.do(ctx, env, http.MethodPost, "/transfers", payload, nil)
}

// GetTransferStatus fetches the processor-side status of a transfer, used by
// manual reconciliation tooling.
func (c *Client) GetTransferStatus(ctx context.Context, env domain.Environment, reference string) (string, error) {
	var data []struct {
		Status string `json:"status"`
	}
	path := "/transfers?reference=" + url.QueryEscape(reference)
	if err := c.do(ctx, env, http.MethodGet, path, nil, &data); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("flutterwave transfers: no transfer found for reference %s", reference)
	}
	return data[0].Status, nil
}

// ListBanks fetches the processor's bank directory for a country.
func (c *Client) ListBanks(ctx context.Context, env domain.Environment, country string) ([]ports.Bank, error) {
	var data []ports.Bank
	if err := c.do(ctx, env, http.MethodGet, "/banks/"+url.PathEscape(country), nil, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// do performs one authenticated API call and decodes the data envelope into
// out (when non-nil).
func (c *Client) do(ctx context.Context, env domain.Environment, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("flutterwave: marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("flutterwave: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey(env))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("flutterwave: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("flutterwave: decode response: %w", err)
	}

	if resp.StatusCode >= 400 || envelope.Status != "success" {
		c.log.Warn().
			Str("method", method).
			Str("path", path).
			Int("http_status", resp.StatusCode).
			Str("message", envelope.Message).
			Msg("Flutterwave API call rejected")
		return fmt.Errorf("flutterwave: %s %s: %s", method, path, envelope.Message)
	}

	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("flutterwave: decode data: %w", err)
		}
	}
	return nil
}
