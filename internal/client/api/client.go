package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vodomat/fieldsync/pkg/api"
)

// healthProbeTimeout bounds the reachability check before a sync
const healthProbeTimeout = 5 * time.Second

// ClientAPI defines the server operations used by the client services
type ClientAPI interface {
	Health(ctx context.Context) error
	Login(ctx context.Context, req api.LoginRequest) (*api.LoginResponse, error)
	SetupTwoFactor(ctx context.Context, accessToken string) (*api.SetupTwoFactorResponse, error)
	EnableTwoFactor(ctx context.Context, accessToken string, req api.EnableTwoFactorRequest) (*api.EnableTwoFactorResponse, error)
	VerifyTwoFactor(ctx context.Context, accessToken string, req api.VerifyTwoFactorRequest) (*api.VerifyTwoFactorResponse, error)
	DisableTwoFactor(ctx context.Context, accessToken string, req api.DisableTwoFactorRequest) (*api.DisableTwoFactorResponse, error)
	PushUsers(ctx context.Context, accessToken string, req api.SyncUsersRequest) (*api.SyncUsersResponse, error)
	GetUsers(ctx context.Context, accessToken string) (*api.GetUsersResponse, error)
	PushTickets(ctx context.Context, accessToken string, req api.SyncTicketsRequest) (*api.SyncTicketsResponse, error)
	GetTickets(ctx context.Context, accessToken string) (*api.GetTicketsResponse, error)
	CloseWorkday(ctx context.Context, accessToken string, req api.CloseWorkdayRequest) (*api.CloseWorkdayResponse, error)
	OpenWorkday(ctx context.Context, accessToken string, req api.OpenWorkdayRequest) (*api.OpenWorkdayResponse, error)
	GetWorkdayAudit(ctx context.Context, accessToken string) (*api.WorkdayAuditResponse, error)
}

// Client represents the HTTP client for talking to the server
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Carry the Authorization header across redirects
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
}

// Health probes server reachability with a short deadline. Used as
// the pre-sync gate; any error means "work offline".
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
	defer cancel()

	var resp api.HealthResponse
	if err := c.doRequest(ctx, http.MethodGet, "/health", "", nil, &resp); err != nil {
		return fmt.Errorf("health probe failed: %w", err)
	}
	if resp.Status != "ok" {
		return fmt.Errorf("server unhealthy: %s", resp.Status)
	}
	return nil
}

// Login authenticates the user with username and password
func (c *Client) Login(ctx context.Context, req api.LoginRequest) (*api.LoginResponse, error) {
	var resp api.LoginResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/login", "", req, &resp); err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	return &resp, nil
}

// SetupTwoFactor requests fresh 2FA enrollment material
func (c *Client) SetupTwoFactor(ctx context.Context, accessToken string) (*api.SetupTwoFactorResponse, error) {
	var resp api.SetupTwoFactorResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/2fa/setup", accessToken, nil, &resp); err != nil {
		return nil, fmt.Errorf("2fa setup request failed: %w", err)
	}
	return &resp, nil
}

// EnableTwoFactor confirms enrollment with a first valid TOTP code
func (c *Client) EnableTwoFactor(ctx context.Context, accessToken string, req api.EnableTwoFactorRequest) (*api.EnableTwoFactorResponse, error) {
	var resp api.EnableTwoFactorResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/2fa/enable", accessToken, req, &resp); err != nil {
		return nil, fmt.Errorf("2fa enable request failed: %w", err)
	}
	return &resp, nil
}

// VerifyTwoFactor submits a TOTP or backup code
func (c *Client) VerifyTwoFactor(ctx context.Context, accessToken string, req api.VerifyTwoFactorRequest) (*api.VerifyTwoFactorResponse, error) {
	var resp api.VerifyTwoFactorResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/2fa/verify", accessToken, req, &resp); err != nil {
		return nil, fmt.Errorf("2fa verify request failed: %w", err)
	}
	return &resp, nil
}

// DisableTwoFactor turns 2FA off after a final code check
func (c *Client) DisableTwoFactor(ctx context.Context, accessToken string, req api.DisableTwoFactorRequest) (*api.DisableTwoFactorResponse, error) {
	var resp api.DisableTwoFactorResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/2fa/disable", accessToken, req, &resp); err != nil {
		return nil, fmt.Errorf("2fa disable request failed: %w", err)
	}
	return &resp, nil
}

// PushUsers uploads local user changes (admin only)
func (c *Client) PushUsers(ctx context.Context, accessToken string, req api.SyncUsersRequest) (*api.SyncUsersResponse, error) {
	var resp api.SyncUsersResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/sync/users", accessToken, req, &resp); err != nil {
		return nil, fmt.Errorf("push users request failed: %w", err)
	}
	return &resp, nil
}

// GetUsers downloads the server's user directory
func (c *Client) GetUsers(ctx context.Context, accessToken string) (*api.GetUsersResponse, error) {
	var resp api.GetUsersResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/sync/users", accessToken, nil, &resp); err != nil {
		return nil, fmt.Errorf("get users request failed: %w", err)
	}
	return &resp, nil
}

// PushTickets uploads all local tickets for server-side merge
func (c *Client) PushTickets(ctx context.Context, accessToken string, req api.SyncTicketsRequest) (*api.SyncTicketsResponse, error) {
	var resp api.SyncTicketsResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/sync/tickets", accessToken, req, &resp); err != nil {
		return nil, fmt.Errorf("push tickets request failed: %w", err)
	}
	return &resp, nil
}

// GetTickets downloads the server's resident ticket collection
func (c *Client) GetTickets(ctx context.Context, accessToken string) (*api.GetTicketsResponse, error) {
	var resp api.GetTicketsResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/sync/tickets", accessToken, nil, &resp); err != nil {
		return nil, fmt.Errorf("get tickets request failed: %w", err)
	}
	return &resp, nil
}

// CloseWorkday closes the caller's workday on the server
func (c *Client) CloseWorkday(ctx context.Context, accessToken string, req api.CloseWorkdayRequest) (*api.CloseWorkdayResponse, error) {
	var resp api.CloseWorkdayResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/workday/close", accessToken, req, &resp); err != nil {
		return nil, fmt.Errorf("close workday request failed: %w", err)
	}
	return &resp, nil
}

// OpenWorkday reopens another user's workday (admin only)
func (c *Client) OpenWorkday(ctx context.Context, accessToken string, req api.OpenWorkdayRequest) (*api.OpenWorkdayResponse, error) {
	var resp api.OpenWorkdayResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/workday/open", accessToken, req, &resp); err != nil {
		return nil, fmt.Errorf("open workday request failed: %w", err)
	}
	return &resp, nil
}

// GetWorkdayAudit downloads the reopen audit log (admin only)
func (c *Client) GetWorkdayAudit(ctx context.Context, accessToken string) (*api.WorkdayAuditResponse, error) {
	var resp api.WorkdayAuditResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/workday/open", accessToken, nil, &resp); err != nil {
		return nil, fmt.Errorf("workday audit request failed: %w", err)
	}
	return &resp, nil
}

// doRequest performs an HTTP request against the server
func (c *Client) doRequest(ctx context.Context, method, path, accessToken string, body, result interface{}) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Message != "" {
			return fmt.Errorf("server error (%d): %s", resp.StatusCode, errResp.Message)
		}
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
