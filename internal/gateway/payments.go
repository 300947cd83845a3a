package gateway

import (
	"context"
	"net/http"

	"github.com/coffeeclub/coffeeclub-client/pkg/types"
)

// OrderConfirmation acknowledges a completed order.
type OrderConfirmation struct {
	OrderID string `json:"orderId"`
}

// CreatePaymentIntent asks the server for a payment intent. A zero amount
// sizes the intent from the current cart subtotal.
func (c *Client) CreatePaymentIntent(ctx context.Context, req types.CreatePaymentIntentRequest) (*types.PaymentIntent, error) {
	var out types.PaymentIntent
	if err := c.do(ctx, http.MethodPost, "/payments/intent", req, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChargeGiftCard settles the current cart against the gift-card balance with
// no external payment sheet involved.
func (c *Client) ChargeGiftCard(ctx context.Context) (*OrderConfirmation, error) {
	var out OrderConfirmation
	if err := c.do(ctx, http.MethodPost, "/payments/gift-card", nil, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CompleteFreeOrder settles a zero-subtotal cart.
func (c *Client) CompleteFreeOrder(ctx context.Context) (*OrderConfirmation, error) {
	var out OrderConfirmation
	if err := c.do(ctx, http.MethodPost, "/orders/free", nil, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
