package bybit

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"merchant-payment-gateway/config"
	"merchant-payment-gateway/internal/core/domain"
	"merchant-payment-gateway/internal/core/ports"

	"github.com/rs/zerolog"
)

const (
	requestTimeout = 15 * time.Second
	recvWindow     = "5000"
)

// Client implements ports.CryptoGateway against the Bybit v5 API. Credentials
// are selected per call from the entity's environment.
type Client struct {
	baseURL    string
	cfg        config.BybitConfig
	httpClient *http.Client
	log        zerolog.Logger

	// now is replaceable in tests for deterministic signatures.
	now func() time.Time
}

// NewClient creates a Bybit API client.
func NewClient(cfg config.BybitConfig, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: requestTimeout},
		log:        log.With().Str("component", "bybit_client").Logger(),
		now:        time.Now,
	}
}

func (c *Client) credentials(env domain.Environment) config.BybitCredentials {
	if env == domain.EnvironmentLive {
		return c.cfg.Live
	}
	return c.cfg.Test
}

// buildParamString sorts query parameters alphabetically by key. The exact
// string must appear both in the URL and in the signature origin.
func buildParamString(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	return strings.Join(pairs, "&")
}

// sign computes the v5 request signature over
// timestamp + apiKey + recvWindow + paramStr.
func sign(creds config.BybitCredentials, timestamp, paramStr string) string {
	mac := hmac.New(sha256.New, []byte(creds.APISecret))
	mac.Write([]byte(timestamp + creds.APIKey + recvWindow + paramStr))
	return hex.EncodeToString(mac.Sum(nil))
}

// GetDepositAddress fetches a chain-specific deposit address for a coin.
func (c *Client) GetDepositAddress(ctx context.Context, env domain.Environment, coin, network string) (*ports.DepositAddress, error) {
	params := map[string]string{"coin": coin}
	if network != "" {
		params["chainType"] = network
	}

	var result struct {
		Coin   string `json:"coin"`
		Chains []struct {
			ChainType      string `json:"chainType"`
			Chain          string `json:"chain"`
			AddressDeposit string `json:"addressDeposit"`
			TagDeposit     string `json:"tagDeposit"`
		} `json:"chains"`
	}
	if err := c.get(ctx, env, "/v5/asset/deposit/query-address", params, &result); err != nil {
		return nil, err
	}
	if len(result.Chains) == 0 {
		return nil, fmt.Errorf("bybit deposit address: no chain for %s/%s", coin, network)
	}

	chain := result.Chains[0]
	return &ports.DepositAddress{
		Address: chain.AddressDeposit,
		Tag:     chain.TagDeposit,
		Network: chain.Chain,
	}, nil
}

// GetCoinInfo fetches all depositable coins and their chains.
func (c *Client) GetCoinInfo(ctx context.Context, env domain.Environment) ([]ports.CoinInfo, error) {
	var result struct {
		Rows []struct {
			Coin   string `json:"coin"`
			Name   string `json:"name"`
			Chains []struct {
				Chain        string `json:"chain"`
				ChainType    string `json:"chainType"`
				ChainDeposit string `json:"chainDeposit"`
				MinDeposit   string `json:"minDeposit"`
				Confirmation string `json:"confirmation"`
			} `json:"chains"`
		} `json:"rows"`
	}
	if err := c.get(ctx, env, "/v5/asset/coin/query-info", nil, &result); err != nil {
		return nil, err
	}

	coins := make([]ports.CoinInfo, 0, len(result.Rows))
	for _, row := range result.Rows {
		info := ports.CoinInfo{Coin: row.Coin, Name: row.Name}
		for _, ch := range row.Chains {
			info.Chains = append(info.Chains, ports.CoinChain{
				Chain:          ch.Chain,
				ChainType:      ch.ChainType,
				MinDeposit:     ch.MinDeposit,
				Confirmations:  ch.Confirmation,
				DepositEnabled: ch.ChainDeposit == "1",
			})
		}
		coins = append(coins, info)
	}
	return coins, nil
}

// GetDepositRecords fetches exchange-side deposit entries for manual
// reconciliation tooling.
func (c *Client) GetDepositRecords(ctx context.Context, env domain.Environment, coin string, limit int) ([]ports.DepositRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	params := map[string]string{"limit": strconv.Itoa(limit)}
	if coin != "" {
		params["coin"] = coin
	}

	var result struct {
		List []struct {
			Coin      string `json:"coin"`
			Amount    string `json:"amount"`
			ToAddress string `json:"toAddress"`
			TxID      string `json:"txID"`
			Status    int    `json:"status"`
		} `json:"list"`
	}
	if err := c.get(ctx, env, "/v5/asset/deposit/query-record", params, &result); err != nil {
		return nil, err
	}

	records := make([]ports.DepositRecord, 0, len(result.List))
	for _, row := range result.List {
		records = append(records, ports.DepositRecord{
			Coin:    row.Coin,
			Amount:  row.Amount,
			Address: row.ToAddress,
			TxHash:  row.TxID,
			Status:  strconv.Itoa(row.Status),
		})
	}
	return records, nil
}

// get performs one signed GET call and decodes the result into out.
func (c *Client) get(ctx context.Context, env domain.Environment, path string, params map[string]string, out any) error {
	creds := c.credentials(env)
	paramStr := buildParamString(params)

	url := c.baseURL + path
	if paramStr != "" {
		url += "?" + paramStr
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("bybit: build request: %w", err)
	}

	timestamp := strconv.FormatInt(c.now().UnixMilli(), 10)
	req.Header.Set("X-BAPI-API-KEY", creds.APIKey)
	req.Header.Set("X-BAPI-SIGN", sign(creds, timestamp, paramStr))
	req.Header.Set("X-BAPI-TIMESTAMP", timestamp)
	req.Header.Set("X-BAPI-RECV-WINDOW", recvWindow)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("bybit: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	var envelope struct {
		RetCode int             `json:"retCode"`
		RetMsg  string          `json:"retMsg"`
		Result  json.RawMessage `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("bybit: decode response: %w", err)
	}

	if resp.StatusCode >= 400 || envelope.RetCode != 0 {
		c.log.Warn().
			Str("path", path).
			Int("http_status", resp.StatusCode).
			Int("ret_code", envelope.RetCode).
			Str("ret_msg", envelope.RetMsg).
			Msg("Bybit API call rejected")
		return fmt.Errorf("bybit: GET %s: retCode=%d %s", path, envelope.RetCode, envelope.RetMsg)
	}

	if out != nil {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("bybit: decode result: %w", err)
		}
	}
	return nil
}
