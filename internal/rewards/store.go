package rewards

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/coffeeclub/coffeeclub-client/pkg/errors"
	"github.com/coffeeclub/coffeeclub-client/pkg/logger"
	"github.com/coffeeclub/coffeeclub-client/pkg/types"
)

// Reload bounds. Reloads run in whole five-dollar steps between the floor
// and the per-load cap.
var (
	reloadFloor = decimal.NewFromInt(10)
	reloadStep  = decimal.NewFromInt(5)
	reloadCap   = decimal.NewFromInt(100)
)

// QuickReloadAmounts are the preset reload choices, in dollars.
var QuickReloadAmounts = []int64{15, 25, 50, 100}

// Gateway is the slice of the API client the rewards store drives.
type Gateway interface {
	FetchRewards(ctx context.Context) (*types.RewardSummary, error)
	CreatePaymentIntent(ctx context.Context, req types.CreatePaymentIntentRequest) (*types.PaymentIntent, error)
	ReportRefill(ctx context.Context, req types.RefillRequest) (*types.RewardSummary, error)
}

// PaymentPresenter runs the external payment confirmation step. A user
// cancellation surfaces as a CodeCanceled error.
type PaymentPresenter interface {
	Present(ctx context.Context, intent types.PaymentIntent) error
}

// ReloadStatus is the terminal state of a reload attempt.
type ReloadStatus string

const (
	ReloadCompleted ReloadStatus = "COMPLETED"
	ReloadCanceled  ReloadStatus = "CANCELED"
)

// ReloadResult reports how a reload attempt ended.
type ReloadResult struct {
	Status  ReloadStatus
	Summary *types.RewardSummary
}

// Store holds the rewards summary snapshot and runs gift-card reloads. The
// summary is server-owned: the store only ever replaces it wholesale with a
// fresh server payload, never edits it in place.
type Store struct {
	gateway   Gateway
	presenter PaymentPresenter
	logg      *logger.Logger

	mu      sync.RWMutex
	summary *types.RewardSummary
}

// NewStore builds the rewards store. presenter may be nil when reloads are
// not offered (the view-only surfaces).
func NewStore(gw Gateway, presenter PaymentPresenter, logg *logger.Logger) *Store {
	return &Store{gateway: gw, presenter: presenter, logg: logg}
}

// Refresh replaces the summary from the server.
func (s *Store) Refresh(ctx context.Context) error {
	summary, err := s.gateway.FetchRewards(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.summary = summary
	s.mu.Unlock()
	return nil
}

// Summary returns the current snapshot, or nil before the first refresh.
func (s *Store) Summary() *types.RewardSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.summary == nil {
		return nil
	}
	copied := *s.summary
	return &copied
}

// Reset drops the snapshot, for sign-out.
func (s *Store) Reset() {
	s.mu.Lock()
	s.summary = nil
	s.mu.Unlock()
}

// Balance returns the gift-card balance, zero before the first refresh.
func (s *Store) Balance() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.summary == nil {
		return decimal.Zero
	}
	return s.summary.GiftCardBalance
}

// FreeCoffeeCredits returns the earned free-drink credits.
func (s *Store) FreeCoffeeCredits() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.summary == nil {
		return 0
	}
	return s.summary.FreeCoffeeCredits
}

// DisplayedFreeDrinks is the credit count shown to the user: earned credits
// minus the ones already committed to cart lines, floored at zero.
func (s *Store) DisplayedFreeDrinks(pendingInCart int) int {
	available := s.FreeCoffeeCredits() - pendingInCart
	if available < 0 {
		return 0
	}
	return available
}

// Deficit is how far the gift-card balance falls short of the subtotal,
// floored at zero.
func (s *Store) Deficit(subtotal decimal.Decimal) decimal.Decimal {
	deficit := subtotal.Sub(s.Balance())
	if deficit.IsNegative() {
		return decimal.Zero
	}
	return deficit
}

// ReloadSuggestion is the smallest valid reload that covers the deficit: a
// whole five-dollar multiple, never under the floor. A $23 deficit suggests
// $25.
func ReloadSuggestion(deficit decimal.Decimal) decimal.Decimal {
	if deficit.LessThanOrEqual(reloadFloor) {
		return reloadFloor
	}
	steps := deficit.Div(reloadStep).Ceil()
	return steps.Mul(reloadStep)
}

// ValidateReloadAmount enforces the reload bounds: at least the floor, whole
// five-dollar steps, and no more than the cap per load.
func ValidateReloadAmount(amount decimal.Decimal) error {
	if amount.LessThan(reloadFloor) {
		return pkgerrors.New(pkgerrors.CodeValidation, "reload amount must be at least $10")
	}
	if amount.GreaterThan(reloadCap) {
		return pkgerrors.New(pkgerrors.CodeValidation, "reload amount cannot exceed $100")
	}
	if !amount.Mod(reloadStep).IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "reload amount must be a multiple of $5")
	}
	return nil
}

// Reload runs the two-phase gift-card load: create a payment intent for the
// amount, confirm it through the presenter, then report the capture so the
// server credits the balance. A user cancellation between intent and capture
// is a clean no-op. A capture that fails to report comes back as
// CodeUncredited: money moved, balance did not, and only the report call
// retried out-of-band can settle it.
func (s *Store) Reload(ctx context.Context, amount decimal.Decimal) (*ReloadResult, error) {
	if s.presenter == nil {
		return nil, pkgerrors.New(pkgerrors.CodePrecondition, "no payment method available")
	}
	if err := ValidateReloadAmount(amount); err != nil {
		return nil, err
	}

	cents := amount.Mul(decimal.NewFromInt(100)).IntPart()
	intent, err := s.gateway.CreatePaymentIntent(ctx, types.CreatePaymentIntentRequest{
		AmountCents: cents,
		Purpose:     "gift_card_reload",
	})
	if err != nil {
		return nil, err
	}

	if err := s.presenter.Present(ctx, *intent); err != nil {
		if pkgerrors.IsCanceled(err) {
			return &ReloadResult{Status: ReloadCanceled}, nil
		}
		return nil, err
	}

	summary, err := s.gateway.ReportRefill(ctx, types.RefillRequest{
		Amount:     amount,
		PaymentRef: intent.ID,
	})
	if err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "reload captured but crediting failed", err)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeUncredited, err, "reload captured but balance not yet updated")
	}

	s.mu.Lock()
	s.summary = summary
	s.mu.Unlock()

	return &ReloadResult{Status: ReloadCompleted, Summary: summary}, nil
}
