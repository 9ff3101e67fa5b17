package matter

import "context"

// Client fetches user tokens for the Matter elements runtime.
type Client interface {
	UserToken(ctx context.Context) (string, error)
}

var (
	_ Client = (*HTTPClient)(nil)
	_ Client = (*MockClient)(nil)
)
