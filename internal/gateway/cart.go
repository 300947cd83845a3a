package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coffeeclub/coffeeclub-client/pkg/types"
)

// FetchCart returns the current server cart.
func (c *Client) FetchCart(ctx context.Context) ([]types.CartItemPayload, error) {
	var out []types.CartItemPayload
	if err := c.do(ctx, http.MethodGet, "/cart", nil, true, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddCartItem adds a line (or increments a matching one server-side) and
// returns the full replacement snapshot.
func (c *Client) AddCartItem(ctx context.Context, req types.AddCartItemRequest) ([]types.CartItemPayload, error) {
	var out []types.CartItemPayload
	if err := c.do(ctx, http.MethodPost, "/cart/items", req, true, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateCartItemQuantity sets a line's quantity and returns the snapshot.
func (c *Client) UpdateCartItemQuantity(ctx context.Context, lineID int64, quantity int) ([]types.CartItemPayload, error) {
	var out []types.CartItemPayload
	req := types.UpdateCartItemRequest{Quantity: &quantity}
	path := fmt.Sprintf("/cart/items/%d", lineID)
	if err := c.do(ctx, http.MethodPatch, path, req, true, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetCartItemFreeDrink applies or removes a free-drink redemption on a line
// and returns the snapshot.
func (c *Client) SetCartItemFreeDrink(ctx context.Context, lineID int64, apply bool) ([]types.CartItemPayload, error) {
	var out []types.CartItemPayload
	req := types.UpdateCartItemRequest{IsFreeDrink: &apply}
	path := fmt.Sprintf("/cart/items/%d", lineID)
	if err := c.do(ctx, http.MethodPatch, path, req, true, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RemoveCartItem deletes a line and returns the snapshot.
func (c *Client) RemoveCartItem(ctx context.Context, lineID int64) ([]types.CartItemPayload, error) {
	var out []types.CartItemPayload
	path := fmt.Sprintf("/cart/items/%d", lineID)
	if err := c.do(ctx, http.MethodDelete, path, nil, true, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ClearCart empties the cart and returns the (empty) snapshot.
func (c *Client) ClearCart(ctx context.Context) ([]types.CartItemPayload, error) {
	var out []types.CartItemPayload
	if err := c.do(ctx, http.MethodDelete, "/cart", nil, true, &out); err != nil {
		return nil, err
	}
	return out, nil
}
