package gateway

import (
	"context"
	"net/http"

	"github.com/coffeeclub/coffeeclub-client/pkg/types"
)

// FetchRewards returns the current rewards summary snapshot.
func (c *Client) FetchRewards(ctx context.Context) (*types.RewardSummary, error) {
	var out types.RewardSummary
	if err := c.do(ctx, http.MethodGet, "/rewards", nil, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReportRefill reports a confirmed gift-card reload. This is the crediting
// step: a captured payment that never reaches this call leaves the balance
// unchanged.
func (c *Client) ReportRefill(ctx context.Context, req types.RefillRequest) (*types.RewardSummary, error) {
	var out types.RewardSummary
	if err := c.do(ctx, http.MethodPost, "/rewards/refill", req, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
