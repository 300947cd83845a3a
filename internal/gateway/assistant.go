package gateway

import (
	"context"
	"net/http"

	"github.com/coffeeclub/coffeeclub-client/pkg/types"
)

// SendAssistantMessage posts one chat turn with trimmed history and optional
// weather context.
func (c *Client) SendAssistantMessage(ctx context.Context, req types.AssistantRequest) (*types.AssistantResponse, error) {
	var out types.AssistantResponse
	if err := c.do(ctx, http.MethodPost, "/assistant/chat", req, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
