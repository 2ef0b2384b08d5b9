// Package client is the TourVista marketplace API client used by the
// session engine: the credential exchange endpoints and the paginated
// transaction ledger.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultTimeout = 30 * time.Second

// TokenPair is the credential pair returned by the sign-in exchange.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Transaction is one ledger record.
type Transaction struct {
	PurchaseID string `json:"purchaseId"`
	Status     string `json:"status"`
}

// LedgerPage is one page of the caller's transaction history.
type LedgerPage struct {
	Items      []Transaction `json:"items"`
	PageIndex  int           `json:"pageIndex"`
	TotalPages int           `json:"totalPages"`
}

// Client is the TourVista API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a new API client.
func New(baseURL string, options ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// SignIn exchanges user credentials for an access/refresh token pair.
func (c *Client) SignIn(ctx context.Context, email, password string) (*TokenPair, error) {
	body := map[string]string{"email": email, "password": password}
	var pair TokenPair
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/login", "", body, &pair); err != nil {
		return nil, fmt.Errorf("client.SignIn: %w", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return nil, fmt.Errorf("client.SignIn: incomplete token pair in response")
	}
	return &pair, nil
}

// RefreshToken exchanges the refresh credential for a new access
// credential.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	body := map[string]string{"refreshToken": refreshToken}
	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/refresh", "", body, &resp); err != nil {
		return "", fmt.Errorf("client.RefreshToken: %w", err)
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("client.RefreshToken: no access token in response")
	}
	return resp.AccessToken, nil
}

// Transactions fetches one page of the caller's transaction ledger,
// newest first. The access token is passed per call because it may be
// replaced mid-scan by a refresh.
func (c *Client) Transactions(ctx context.Context, accessToken string, pageIndex, pageSize int) (*LedgerPage, error) {
	params := url.Values{}
	params.Set("pageIndex", strconv.Itoa(pageIndex))
	params.Set("pageSize", strconv.Itoa(pageSize))
	params.Set("order", "desc")

	var page LedgerPage
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/payments/transactions?"+params.Encode(), accessToken, nil, &page); err != nil {
		return nil, fmt.Errorf("client.Transactions: %w", err)
	}
	return &page, nil
}

func (c *Client) doRequest(ctx context.Context, method, path, token string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max error body
		if readErr != nil {
			return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
		}
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return &HTTPError{StatusCode: resp.StatusCode, Message: apiErr.Error}
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
