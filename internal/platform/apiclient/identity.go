package apiclient

import (
	"context"
	"net/http"
)

// Identity is the user behind a bearer token.
type Identity struct {
	ID     FlexInt `json:"id"`
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	RoleID FlexInt `json:"roleId"`
}

// VerifyToken asks the backend who owns the token carried in ctx.
func (c *Client) VerifyToken(ctx context.Context) (*Identity, error) {
	var id Identity
	if err := c.Get(ctx, "/auth/verify-token", nil, &id); err != nil {
		return nil, err
	}
	return &id, nil
}

// Ping checks that the backend answers at all. Any HTTP response, even an
// authentication failure, counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Do(ctx, http.MethodGet, "/auth/verify-token", nil, nil, nil)
	if err == nil {
		return nil
	}
	if apiErr, ok := err.(*Error); ok && apiErr.StatusCode != 0 {
		return nil
	}
	return err
}
