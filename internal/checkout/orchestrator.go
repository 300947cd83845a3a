package checkout

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/coffeeclub/coffeeclub-client/internal/gateway"
	pkgerrors "github.com/coffeeclub/coffeeclub-client/pkg/errors"
	"github.com/coffeeclub/coffeeclub-client/pkg/logger"
	"github.com/coffeeclub/coffeeclub-client/pkg/types"
)

// PaymentMethod selects how a non-free order settles.
type PaymentMethod string

const (
	PaymentMethodCard     PaymentMethod = "CARD"
	PaymentMethodGiftCard PaymentMethod = "GIFT_CARD"
)

// Status is the terminal state of a checkout attempt.
type Status string

const (
	StatusPlaced   Status = "PLACED"
	StatusCanceled Status = "CANCELED"
)

// Result reports how a checkout attempt ended. OrderID is set only for
// placed orders.
type Result struct {
	Status  Status
	OrderID string
}

// Gateway is the slice of the API client checkout drives.
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, req types.CreatePaymentIntentRequest) (*types.PaymentIntent, error)
	ChargeGiftCard(ctx context.Context) (*gateway.OrderConfirmation, error)
	CompleteFreeOrder(ctx context.Context) (*gateway.OrderConfirmation, error)
}

// Carts is what checkout needs from the cart store.
type Carts interface {
	Subtotal() decimal.Decimal
	TotalQuantity() int
	Clear(ctx context.Context) error
}

// Rewards is what checkout needs from the rewards store.
type Rewards interface {
	Balance() decimal.Decimal
	Refresh(ctx context.Context) error
}

// PaymentPresenter runs the external payment confirmation step. A user
// cancellation surfaces as a CodeCanceled error.
type PaymentPresenter interface {
	Present(ctx context.Context, intent types.PaymentIntent) error
}

// Orchestrator places orders. It owns the branch choice between the
// free-order path, the gift-card path, and the card path, and the
// post-placement bookkeeping (clear the cart, refresh rewards) that every
// successful branch shares.
type Orchestrator struct {
	gateway   Gateway
	carts     Carts
	rewards   Rewards
	presenter PaymentPresenter
	logg      *logger.Logger
}

// NewOrchestrator wires the checkout flow.
func NewOrchestrator(gw Gateway, carts Carts, rewards Rewards, presenter PaymentPresenter, logg *logger.Logger) *Orchestrator {
	return &Orchestrator{gateway: gw, carts: carts, rewards: rewards, presenter: presenter, logg: logg}
}

// Checkout settles the current cart. A zero subtotal (every line a redeemed
// free drink) settles through the free-order path regardless of method; a
// user cancellation on the card path is a clean no-op that leaves the cart
// intact.
func (o *Orchestrator) Checkout(ctx context.Context, method PaymentMethod) (*Result, error) {
	if o.carts.TotalQuantity() == 0 {
		return nil, pkgerrors.New(pkgerrors.CodePrecondition, "cart is empty")
	}

	subtotal := o.carts.Subtotal()
	if subtotal.LessThanOrEqual(decimal.Zero) {
		return o.placeFreeOrder(ctx)
	}

	switch method {
	case PaymentMethodGiftCard:
		return o.placeGiftCardOrder(ctx, subtotal)
	case PaymentMethodCard:
		return o.placeCardOrder(ctx)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}
}

func (o *Orchestrator) placeFreeOrder(ctx context.Context) (*Result, error) {
	confirmation, err := o.gateway.CompleteFreeOrder(ctx)
	if err != nil {
		return nil, err
	}
	o.settle(ctx)
	return &Result{Status: StatusPlaced, OrderID: confirmation.OrderID}, nil
}

func (o *Orchestrator) placeGiftCardOrder(ctx context.Context, subtotal decimal.Decimal) (*Result, error) {
	if o.rewards.Balance().LessThan(subtotal) {
		return nil, pkgerrors.New(pkgerrors.CodePrecondition, "gift-card balance does not cover the order")
	}
	confirmation, err := o.gateway.ChargeGiftCard(ctx)
	if err != nil {
		return nil, err
	}
	o.settle(ctx)
	return &Result{Status: StatusPlaced, OrderID: confirmation.OrderID}, nil
}

func (o *Orchestrator) placeCardOrder(ctx context.Context) (*Result, error) {
	if o.presenter == nil {
		return nil, pkgerrors.New(pkgerrors.CodePrecondition, "no payment method available")
	}

	// Zero cents: the server sizes the intent from the live cart subtotal,
	// so a cart that changed since the local snapshot still charges right.
	intent, err := o.gateway.CreatePaymentIntent(ctx, types.CreatePaymentIntentRequest{Purpose: "order"})
	if err != nil {
		return nil, err
	}

	if err := o.presenter.Present(ctx, *intent); err != nil {
		if pkgerrors.IsCanceled(err) {
			return &Result{Status: StatusCanceled}, nil
		}
		return nil, err
	}

	o.settle(ctx)
	return &Result{Status: StatusPlaced, OrderID: intent.ID}, nil
}

// settle runs the shared post-placement bookkeeping. The order is already
// placed at this point, so failures here are logged rather than surfaced.
func (o *Orchestrator) settle(ctx context.Context) {
	if err := o.carts.Clear(ctx); err != nil && o.logg != nil {
		o.logg.Warn(ctx, "clearing cart after placed order failed")
	}
	if err := o.rewards.Refresh(ctx); err != nil && o.logg != nil {
		o.logg.Warn(ctx, "refreshing rewards after placed order failed")
	}
}
