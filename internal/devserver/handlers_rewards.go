package devserver

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/coffeeclub/coffeeclub-client/pkg/errors"
	"github.com/coffeeclub/coffeeclub-client/pkg/types"
)

var (
	refillFloor = decimal.NewFromInt(10)
	refillStep  = decimal.NewFromInt(5)
	refillCap   = decimal.NewFromInt(100)
)

func (s *Server) handleGetRewards(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	writeSuccess(w, s.state.rewardSummary(userID))
}

func (s *Server) handleRefill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := userIDFromContext(ctx)

	var req types.RefillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, s.logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body"))
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(ctx, s.logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "amount and paymentRef are required"))
		return
	}
	if err := validateRefillAmount(req.Amount); err != nil {
		writeError(ctx, s.logg, w, err)
		return
	}

	summary := s.state.refillGiftCard(userID, req.Amount, "Reload "+req.PaymentRef)
	writeSuccess(w, summary)
}

func validateRefillAmount(amount decimal.Decimal) error {
	switch {
	case amount.LessThan(refillFloor):
		return pkgerrors.New(pkgerrors.CodeValidation, "minimum reload is $10")
	case amount.GreaterThan(refillCap):
		return pkgerrors.New(pkgerrors.CodeValidation, "maximum reload is $100")
	case !amount.Mod(refillStep).IsZero():
		return pkgerrors.New(pkgerrors.CodeValidation, "reload amounts move in $5 steps")
	default:
		return nil
	}
}

func (s *Server) handleCreateIntent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := userIDFromContext(ctx)

	var req types.CreatePaymentIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, s.logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body"))
		return
	}
	if req.AmountCents < 0 {
		writeError(ctx, s.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "amount must not be negative"))
		return
	}

	intent, err := s.state.createIntent(userID, req.AmountCents, req.Purpose)
	if err != nil {
		writeError(ctx, s.logg, w, err)
		return
	}
	writeSuccess(w, intent)
}

func (s *Server) handleChargeGiftCard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := userIDFromContext(ctx)

	orderID, err := s.state.chargeGiftCard(userID)
	if err != nil {
		writeError(ctx, s.logg, w, err)
		return
	}

	s.reqMetrics.IncOrdersPlaced()
	writeSuccess(w, map[string]string{"orderId": orderID})
}

func (s *Server) handleFreeOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, _ := userIDFromContext(ctx)

	orderID, err := s.state.completeFreeOrder(userID)
	if err != nil {
		writeError(ctx, s.logg, w, err)
		return
	}

	s.reqMetrics.IncOrdersPlaced()
	writeSuccess(w, map[string]string{"orderId": orderID})
}
