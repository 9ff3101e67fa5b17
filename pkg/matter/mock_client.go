package matter

import (
	"context"
	"sync"
)

// MockClient returns a fixed token or error and counts calls.
type MockClient struct {
	mu    sync.Mutex
	token string
	err   error
	calls int
}

// NewMockClient builds a mock that always answers with token and err.
func NewMockClient(token string, err error) *MockClient {
	return &MockClient{token: token, err: err}
}

// UserToken returns the configured response.
func (c *MockClient) UserToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if c.err != nil {
		return "", c.err
	}
	if c.token == "" {
		return "", ErrMissingToken
	}
	return c.token, nil
}

// Calls reports how many times UserToken ran.
func (c *MockClient) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}
