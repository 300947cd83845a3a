package gateway

import (
	"context"
	"net/http"

	"github.com/coffeeclub/coffeeclub-client/pkg/types"
)

// Login exchanges credentials for an access token and identity.
func (c *Client) Login(ctx context.Context, email, password string) (*types.LoginResponse, error) {
	var out types.LoginResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", types.LoginRequest{Email: email, Password: password}, false, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account and signs it in.
func (c *Client) Register(ctx context.Context, email, password string) (*types.LoginResponse, error) {
	var out types.LoginResponse
	err := c.do(ctx, http.MethodPost, "/auth/register", types.LoginRequest{Email: email, Password: password}, false, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
