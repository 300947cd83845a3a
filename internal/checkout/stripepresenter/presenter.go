package stripepresenter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v84"

	"github.com/coffeeclub/coffeeclub-client/pkg/config"
	pkgerrors "github.com/coffeeclub/coffeeclub-client/pkg/errors"
	"github.com/coffeeclub/coffeeclub-client/pkg/logger"
	"github.com/coffeeclub/coffeeclub-client/pkg/types"
)

const (
	testEnv = "test"
	liveEnv = "live"
)

var (
	errAPIKeyRequired   = errors.New("stripe api key is required")
	errInvalidStripeEnv = fmt.Errorf("stripe environment must be %q or %q", testEnv, liveEnv)
)

// Presenter is the headless stand-in for a mobile payment sheet: it confirms
// payment intents directly against Stripe with the configured payment
// method. An optional approval hook lets an interactive shell offer the
// cancel affordance a real sheet would have.
type Presenter struct {
	api           *stripe.Client
	environment   string
	paymentMethod string
	approve       ApproveFunc
	logg          *logger.Logger
}

// ApproveFunc is consulted before confirming. Returning false cancels the
// payment without charging.
type ApproveFunc func(ctx context.Context, intent types.PaymentIntent) (bool, error)

// Option configures optional presenter behavior.
type Option func(*Presenter)

// WithApproval installs the pre-confirmation approval hook.
func WithApproval(approve ApproveFunc) Option {
	return func(p *Presenter) { p.approve = approve }
}

// NewPresenter initializes Stripe once with the configured key and env.
func NewPresenter(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger, opts ...Option) (*Presenter, error) {
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	if err := validateAPIKey(env, apiKey); err != nil {
		return nil, err
	}

	presenter := &Presenter{
		api:           stripe.NewClient(apiKey),
		environment:   env,
		paymentMethod: strings.TrimSpace(cfg.TestPaymentMethod),
		logg:          logg,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(presenter)
		}
	}

	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("stripe presenter initialized (%s)", env))
	}
	return presenter, nil
}

// Environment reports the normalized Stripe environment in use.
func (p *Presenter) Environment() string {
	if p == nil {
		return ""
	}
	return p.environment
}

// Present confirms the intent. A declined approval hook comes back as
// CodeCanceled so callers treat it exactly like a dismissed payment sheet.
func (p *Presenter) Present(ctx context.Context, intent types.PaymentIntent) error {
	if intent.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent id is required")
	}

	if p.approve != nil {
		approved, err := p.approve(ctx, intent)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "payment approval hook")
		}
		if !approved {
			return pkgerrors.New(pkgerrors.CodeCanceled, "payment canceled")
		}
	}

	params := &stripe.PaymentIntentConfirmParams{}
	if p.paymentMethod != "" {
		params.PaymentMethod = stripe.String(p.paymentMethod)
	}

	confirmed, err := p.api.V1PaymentIntents.Confirm(ctx, intent.ID, params)
	if err != nil {
		return mapStripeError(err)
	}

	switch confirmed.Status {
	case stripe.PaymentIntentStatusSucceeded, stripe.PaymentIntentStatusProcessing:
		return nil
	case stripe.PaymentIntentStatusCanceled:
		return pkgerrors.New(pkgerrors.CodeCanceled, "payment canceled")
	default:
		return pkgerrors.New(pkgerrors.CodeServer,
			fmt.Sprintf("payment not completed (status %s)", confirmed.Status))
	}
}

func mapStripeError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		message := stripeErr.Msg
		if message == "" {
			message = "payment failed"
		}
		if stripeErr.Type == stripe.ErrorTypeCard {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, message)
		}
		return pkgerrors.Wrap(pkgerrors.CodeServer, err, message)
	}
	return pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "reaching payment processor")
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = testEnv
	}
	switch env {
	case testEnv, liveEnv:
		return env, nil
	default:
		return "", errInvalidStripeEnv
	}
}

func validateAPIKey(env, key string) error {
	switch env {
	case testEnv:
		if strings.HasPrefix(key, "sk_test") || strings.HasPrefix(key, "rk_test") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a test secret key (sk_test/rk_test)", testEnv)
	case liveEnv:
		if strings.HasPrefix(key, "sk_live") || strings.HasPrefix(key, "rk_live") {
			return nil
		}
		return fmt.Errorf("stripe environment %q requires a live secret key (sk_live/rk_live)", liveEnv)
	default:
		return errInvalidStripeEnv
	}
}
