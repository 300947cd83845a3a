package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/coffeeclub/coffeeclub-client/pkg/enums"
	"github.com/coffeeclub/coffeeclub-client/pkg/types"
)

// FetchMenu returns the catalog for one category.
func (c *Client) FetchMenu(ctx context.Context, category enums.MenuCategory) ([]types.MenuItem, error) {
	var out []types.MenuItem
	path := "/menu?category=" + url.QueryEscape(string(category))
	if err := c.do(ctx, http.MethodGet, path, nil, true, &out); err != nil {
		return nil, err
	}
	return out, nil
}
