// Package pluggy implements the client for the Pluggy aggregation API.
package pluggy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

const (
	defaultBaseURL = "https://api.pluggy.ai"
	defaultTimeout = 60 * time.Second

	// API keys issued by /auth are valid for 2 hours; refresh a bit early.
	apiKeyLifetime = 110 * time.Minute

	transactionsPageSize = 500
)

// Config holds the client credentials. BaseURL is overridable for tests.
type Config struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
}

// Client handles communication with the aggregation API. It exchanges the
// client id/secret for a short-lived API key and refreshes it transparently.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	clientID     string
	clientSecret string

	mu           sync.Mutex
	apiKey       string
	apiKeyExpiry time.Time
}

// Ensure Client implements ClientInterface
var _ ClientInterface = (*Client)(nil)

// NewClient creates a new aggregation API client.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient:   &http.Client{Timeout: defaultTimeout},
		baseURL:      baseURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
	}
}

type authRequest struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
}

type authResponse struct {
	APIKey string `json:"apiKey"`
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ensureAPIKey returns a valid API key, authenticating when the cached one
// is missing or about to expire.
func (c *Client) ensureAPIKey(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.apiKey != "" && time.Now().Before(c.apiKeyExpiry) {
		return c.apiKey, nil
	}

	body, err := json.Marshal(authRequest{ClientID: c.clientID, ClientSecret: c.clientSecret})
	if err != nil {
		return "", fmt.Errorf("failed to encode auth request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute auth request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read auth response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("auth failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var authResp authResponse
	if err := json.Unmarshal(respBody, &authResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal auth response: %w", err)
	}
	if authResp.APIKey == "" {
		return "", fmt.Errorf("auth response contained no API key")
	}

	c.apiKey = authResp.APIKey
	c.apiKeyExpiry = time.Now().Add(apiKeyLifetime)
	return c.apiKey, nil
}

// invalidateAPIKey drops the cached key so the next request re-authenticates.
func (c *Client) invalidateAPIKey() {
	c.mu.Lock()
	c.apiKey = ""
	c.mu.Unlock()
}

// get performs an authenticated GET and decodes the JSON body into out.
// A 403 invalidates the cached API key and retries once.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	status, err := c.doGet(ctx, path, query, out)
	if status == http.StatusForbidden {
		c.invalidateAPIKey()
		_, err = c.doGet(ctx, path, query, out)
	}
	return err
}

func (c *Client) doGet(ctx context.Context, path string, query url.Values, out any) (int, error) {
	apiKey, err := c.ensureAPIKey(ctx)
	if err != nil {
		return 0, err
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-API-KEY", apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if err := json.Unmarshal(body, &errResp); err != nil || errResp.Message == "" {
			return resp.StatusCode, fmt.Errorf("API request %s failed with status %d: %s", path, resp.StatusCode, string(body))
		}
		return resp.StatusCode, fmt.Errorf("API error on %s (status %d): %s", path, resp.StatusCode, errResp.Message)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to unmarshal response from %s: %w", path, err)
	}
	return resp.StatusCode, nil
}

// FetchAccount fetches one account by its provider id.
func (c *Client) FetchAccount(ctx context.Context, accountID string) (*Account, error) {
	var acc Account
	if err := c.get(ctx, "/accounts/"+accountID, nil, &acc); err != nil {
		return nil, err
	}
	return &acc, nil
}

// FetchAccounts fetches all accounts belonging to an item.
func (c *Client) FetchAccounts(ctx context.Context, itemID string) ([]Account, error) {
	query := url.Values{"itemId": {itemID}}

	var resp accountsResponse
	if err := c.get(ctx, "/accounts", query, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// FetchAllTransactions fetches the complete transaction set for an account,
// walking every page of the paginated endpoint.
func (c *Client) FetchAllTransactions(ctx context.Context, accountID string) ([]Transaction, error) {
	var all []Transaction

	page := 1
	for {
		query := url.Values{
			"accountId": {accountID},
			"pageSize":  {strconv.Itoa(transactionsPageSize)},
			"page":      {strconv.Itoa(page)},
		}

		var resp transactionsResponse
		if err := c.get(ctx, "/transactions", query, &resp); err != nil {
			return nil, fmt.Errorf("failed to fetch transactions page %d: %w", page, err)
		}

		all = append(all, resp.Results...)

		if page >= resp.TotalPages || len(resp.Results) == 0 {
			break
		}
		page++
	}

	return all, nil
}

// FetchItem fetches a connection item by id.
func (c *Client) FetchItem(ctx context.Context, itemID string) (*Item, error) {
	var item Item
	if err := c.get(ctx, "/items/"+itemID, nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// FetchConnector fetches one connector from the institution catalog.
func (c *Client) FetchConnector(ctx context.Context, connectorID int) (*Connector, error) {
	var conn Connector
	if err := c.get(ctx, "/connectors/"+strconv.Itoa(connectorID), nil, &conn); err != nil {
		return nil, err
	}
	return &conn, nil
}

// FetchConnectors fetches the full connector catalog.
func (c *Client) FetchConnectors(ctx context.Context) ([]Connector, error) {
	var resp connectorsResponse
	if err := c.get(ctx, "/connectors", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// FetchInvestments fetches the investment positions of an item. Returns
// ErrInvestmentsUnsupported when the endpoint is not available so callers
// can fall back to subtype filtering.
func (c *Client) FetchInvestments(ctx context.Context, itemID string) ([]Investment, error) {
	query := url.Values{"itemId": {itemID}}

	var resp investmentsResponse
	status, err := c.doGet(ctx, "/investments", query, &resp)
	if status == http.StatusNotFound {
		return nil, ErrInvestmentsUnsupported
	}
	if status == http.StatusForbidden {
		c.invalidateAPIKey()
		if _, err = c.doGet(ctx, "/investments", query, &resp); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}
	return resp.Results, nil
}
