package checkout

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/coffeeclub/coffeeclub-client/internal/gateway"
	pkgerrors "github.com/coffeeclub/coffeeclub-client/pkg/errors"
	"github.com/coffeeclub/coffeeclub-client/pkg/types"
)

type stubGateway struct {
	intent        *types.PaymentIntent
	intentErr     error
	giftCardErr   error
	freeOrderErr  error
	intentCalls   int
	giftCardCalls int
	freeCalls     int
}

func (g *stubGateway) CreatePaymentIntent(context.Context, types.CreatePaymentIntentRequest) (*types.PaymentIntent, error) {
	g.intentCalls++
	if g.intentErr != nil {
		return nil, g.intentErr
	}
	return g.intent, nil
}

func (g *stubGateway) ChargeGiftCard(context.Context) (*gateway.OrderConfirmation, error) {
	g.giftCardCalls++
	if g.giftCardErr != nil {
		return nil, g.giftCardErr
	}
	return &gateway.OrderConfirmation{OrderID: "order-gc"}, nil
}

func (g *stubGateway) CompleteFreeOrder(context.Context) (*gateway.OrderConfirmation, error) {
	g.freeCalls++
	if g.freeOrderErr != nil {
		return nil, g.freeOrderErr
	}
	return &gateway.OrderConfirmation{OrderID: "order-free"}, nil
}

type stubCart struct {
	subtotal   decimal.Decimal
	quantity   int
	clearCalls int
}

func (c *stubCart) Subtotal() decimal.Decimal { return c.subtotal }
func (c *stubCart) TotalQuantity() int        { return c.quantity }
func (c *stubCart) Clear(context.Context) error {
	c.clearCalls++
	return nil
}

type stubRewards struct {
	balance      decimal.Decimal
	refreshCalls int
}

func (r *stubRewards) Balance() decimal.Decimal { return r.balance }
func (r *stubRewards) Refresh(context.Context) error {
	r.refreshCalls++
	return nil
}

type stubPresenter struct {
	err   error
	calls int
}

func (p *stubPresenter) Present(context.Context, types.PaymentIntent) error {
	p.calls++
	return p.err
}

func dollars(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCheckoutEmptyCart(t *testing.T) {
	orch := NewOrchestrator(&stubGateway{}, &stubCart{}, &stubRewards{}, &stubPresenter{}, nil)
	_, err := orch.Checkout(context.Background(), PaymentMethodCard)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodePrecondition {
		t.Fatalf("expected precondition error, got %v", err)
	}
}

func TestCheckoutFreeOrderPath(t *testing.T) {
	gw := &stubGateway{}
	cart := &stubCart{subtotal: decimal.Zero, quantity: 1}
	rewards := &stubRewards{}
	presenter := &stubPresenter{}
	orch := NewOrchestrator(gw, cart, rewards, presenter, nil)

	// Method is irrelevant when the subtotal is zero.
	result, err := orch.Checkout(context.Background(), PaymentMethodCard)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if result.Status != StatusPlaced || result.OrderID != "order-free" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if gw.freeCalls != 1 || gw.intentCalls != 0 || presenter.calls != 0 {
		t.Fatalf("free path should bypass payments: free=%d intent=%d present=%d", gw.freeCalls, gw.intentCalls, presenter.calls)
	}
	if cart.clearCalls != 1 || rewards.refreshCalls != 1 {
		t.Fatalf("settlement bookkeeping missing: clear=%d refresh=%d", cart.clearCalls, rewards.refreshCalls)
	}
}

func TestCheckoutGiftCardPath(t *testing.T) {
	gw := &stubGateway{}
	cart := &stubCart{subtotal: dollars("8.50"), quantity: 2}
	rewards := &stubRewards{balance: dollars("20.00")}
	orch := NewOrchestrator(gw, cart, rewards, nil, nil)

	result, err := orch.Checkout(context.Background(), PaymentMethodGiftCard)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if result.Status != StatusPlaced || result.OrderID != "order-gc" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if gw.giftCardCalls != 1 || gw.intentCalls != 0 {
		t.Fatalf("gift card path should charge directly: giftcard=%d intent=%d", gw.giftCardCalls, gw.intentCalls)
	}
	if cart.clearCalls != 1 || rewards.refreshCalls != 1 {
		t.Fatalf("settlement bookkeeping missing: clear=%d refresh=%d", cart.clearCalls, rewards.refreshCalls)
	}
}

func TestCheckoutGiftCardInsufficientBalance(t *testing.T) {
	gw := &stubGateway{}
	cart := &stubCart{subtotal: dollars("8.50"), quantity: 2}
	rewards := &stubRewards{balance: dollars("3.00")}
	orch := NewOrchestrator(gw, cart, rewards, nil, nil)

	_, err := orch.Checkout(context.Background(), PaymentMethodGiftCard)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodePrecondition {
		t.Fatalf("expected precondition error, got %v", err)
	}
	if gw.giftCardCalls != 0 || cart.clearCalls != 0 {
		t.Fatal("short balance must not charge or clear")
	}
}

func TestCheckoutCardPath(t *testing.T) {
	gw := &stubGateway{intent: &types.PaymentIntent{ID: "pi_9", ClientSecret: "cs_9", AmountCents: 850}}
	cart := &stubCart{subtotal: dollars("8.50"), quantity: 2}
	rewards := &stubRewards{}
	presenter := &stubPresenter{}
	orch := NewOrchestrator(gw, cart, rewards, presenter, nil)

	result, err := orch.Checkout(context.Background(), PaymentMethodCard)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if result.Status != StatusPlaced || result.OrderID != "pi_9" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if presenter.calls != 1 {
		t.Fatalf("presenter should run once, ran %d", presenter.calls)
	}
	if cart.clearCalls != 1 || rewards.refreshCalls != 1 {
		t.Fatalf("settlement bookkeeping missing: clear=%d refresh=%d", cart.clearCalls, rewards.refreshCalls)
	}
}

func TestCheckoutCardCancelLeavesCartIntact(t *testing.T) {
	gw := &stubGateway{intent: &types.PaymentIntent{ID: "pi_9"}}
	cart := &stubCart{subtotal: dollars("8.50"), quantity: 2}
	rewards := &stubRewards{}
	presenter := &stubPresenter{err: pkgerrors.New(pkgerrors.CodeCanceled, "payment canceled")}
	orch := NewOrchestrator(gw, cart, rewards, presenter, nil)

	result, err := orch.Checkout(context.Background(), PaymentMethodCard)
	if err != nil {
		t.Fatalf("cancel should not error: %v", err)
	}
	if result.Status != StatusCanceled || result.OrderID != "" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if cart.clearCalls != 0 || rewards.refreshCalls != 0 {
		t.Fatal("canceled checkout must not touch cart or rewards")
	}
}

func TestCheckoutCardPresenterFailure(t *testing.T) {
	gw := &stubGateway{intent: &types.PaymentIntent{ID: "pi_9"}}
	cart := &stubCart{subtotal: dollars("8.50"), quantity: 2}
	presenter := &stubPresenter{err: pkgerrors.New(pkgerrors.CodeServer, "card declined")}
	orch := NewOrchestrator(gw, cart, &stubRewards{}, presenter, nil)

	_, err := orch.Checkout(context.Background(), PaymentMethodCard)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeServer {
		t.Fatalf("expected server error, got %v", err)
	}
	if cart.clearCalls != 0 {
		t.Fatal("failed payment must not clear the cart")
	}
}

func TestCheckoutUnknownMethod(t *testing.T) {
	cart := &stubCart{subtotal: dollars("5.00"), quantity: 1}
	orch := NewOrchestrator(&stubGateway{}, cart, &stubRewards{}, nil, nil)
	_, err := orch.Checkout(context.Background(), PaymentMethod("CASH"))
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
