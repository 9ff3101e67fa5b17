package matter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the Matter API host.
const DefaultBaseURL = "https://api.thisismatter.com"

const userTokenPath = "/elements/v1/auth/user_token"

// ErrMissingToken is returned when a 2xx response carries no token.
var ErrMissingToken = errors.New("matter: response is missing token")

// RemoteError reports a non-2xx response from the Matter API.
type RemoteError struct {
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("matter: remote error %d: %s", e.StatusCode, e.Body)
}

// HTTPConfig configures the HTTP client.
type HTTPConfig struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// HTTPClient exchanges the API key for short-lived user tokens.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPClient builds a client for the Matter elements auth endpoint.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("matter: api key is required")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		client:  httpClient,
	}, nil
}

type userTokenResponse struct {
	Token string `json:"token"`
}

// UserToken fetches a user token. The body is never logged or echoed since it
// carries a credential.
func (c *HTTPClient) UserToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+userTokenPath, nil)
	if err != nil {
		return "", fmt.Errorf("matter: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("matter: http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return "", &RemoteError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(buf.String())}
	}
	var payload userTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("matter: decode response: %w", err)
	}
	if strings.TrimSpace(payload.Token) == "" {
		return "", ErrMissingToken
	}
	return payload.Token, nil
}
