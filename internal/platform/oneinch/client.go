// Package oneinch is the REST client for the 1inch Fusion+ cross-chain
// order-book and quoter APIs. The client carries its credential and base URL
// explicitly; there is no package-level singleton.
package oneinch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/solverworks/fusionscan/internal/domain"
)

// DefaultBaseURL is the production Fusion+ API root.
const DefaultBaseURL = "https://api.1inch.dev/fusion-plus"

// Client talks to the Fusion+ order book and quoter. All operations are
// idempotent reads authenticated with a bearer token.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a Fusion+ client. baseURL falls back to DefaultBaseURL
// and timeout to 30s when zero-valued.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ListActiveOrders returns one page of open cross-chain auction orders.
// Items whose core fields do not parse are skipped rather than failing the
// page.
func (c *Client) ListActiveOrders(ctx context.Context, page, limit int) ([]domain.Order, error) {
	if page < 1 || limit < 1 {
		return nil, fmt.Errorf("%w: page and limit must be positive (page=%d limit=%d)",
			domain.ErrInvalidInput, page, limit)
	}

	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	respBody, err := c.doRequest(ctx, "/orders/v1.0/order/active?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("oneinch: list active orders: %w", err)
	}

	var apiResp APIActiveOrdersResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("oneinch: decode active orders: %w", err)
	}

	orders := make([]domain.Order, 0, len(apiResp.Items))
	for i := range apiResp.Items {
		order, err := apiResp.Items[i].ToDomainOrder()
		if err != nil {
			continue
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// GetOrderStatus returns the current lifecycle state of an order.
func (c *Client) GetOrderStatus(ctx context.Context, orderHash string) (domain.OrderStatusInfo, error) {
	if orderHash == "" {
		return domain.OrderStatusInfo{}, fmt.Errorf("%w: order hash must not be empty", domain.ErrInvalidInput)
	}

	respBody, err := c.doRequest(ctx, "/orders/v1.0/order/status/"+url.PathEscape(orderHash))
	if err != nil {
		return domain.OrderStatusInfo{}, fmt.Errorf("oneinch: get order status %s: %w", orderHash, err)
	}

	var apiStatus APIOrderStatus
	if err := json.Unmarshal(respBody, &apiStatus); err != nil {
		return domain.OrderStatusInfo{}, fmt.Errorf("oneinch: decode order status: %w", err)
	}
	return apiStatus.ToDomainStatus(orderHash), nil
}

// GetQuote returns a fresh market quote for swapping params.Amount of
// SrcToken on SrcChainID into DstToken on DstChainID.
func (c *Client) GetQuote(ctx context.Context, params domain.QuoteParams) (domain.Quote, error) {
	if params.Amount == nil || params.Amount.Sign() <= 0 {
		return domain.Quote{}, fmt.Errorf("%w: quote amount must be positive", domain.ErrInvalidInput)
	}

	q := url.Values{}
	q.Set("srcChain", strconv.FormatInt(params.SrcChainID, 10))
	q.Set("dstChain", strconv.FormatInt(params.DstChainID, 10))
	q.Set("srcTokenAddress", params.SrcToken)
	q.Set("dstTokenAddress", params.DstToken)
	q.Set("amount", params.Amount.String())
	q.Set("walletAddress", params.Wallet)
	q.Set("enableEstimate", "false")

	respBody, err := c.doRequest(ctx, "/quoter/v1.0/quote/receive?"+q.Encode())
	if err != nil {
		return domain.Quote{}, fmt.Errorf("oneinch: get quote: %w", err)
	}

	var apiQuote APIQuote
	if err := json.Unmarshal(respBody, &apiQuote); err != nil {
		return domain.Quote{}, fmt.Errorf("oneinch: decode quote: %w", err)
	}
	return apiQuote.ToDomainQuote(), nil
}

// doRequest builds, sends, and reads a GET request against the Fusion+ API
// and returns the raw response body.
func (c *Client) doRequest(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}
	return respBody, nil
}

// checkHTTPStatus maps non-2xx status codes to domain sentinel errors.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}
