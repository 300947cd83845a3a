package gateway

import (
	"context"
	"net/http"

	"github.com/coffeeclub/coffeeclub-client/pkg/types"
)

// FetchProfile returns the signed-in user's profile.
func (c *Client) FetchProfile(ctx context.Context) (*types.UserProfile, error) {
	var out types.UserProfile
	if err := c.do(ctx, http.MethodGet, "/profile", nil, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile patches the changed fields and returns the updated profile.
func (c *Client) UpdateProfile(ctx context.Context, req types.UpdateProfileRequest) (*types.UserProfile, error) {
	var out types.UserProfile
	if err := c.do(ctx, http.MethodPatch, "/profile", req, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChangePassword rotates the password for the signed-in user.
func (c *Client) ChangePassword(ctx context.Context, req types.ChangePasswordRequest) error {
	return c.do(ctx, http.MethodPatch, "/profile/password", req, true, nil)
}
