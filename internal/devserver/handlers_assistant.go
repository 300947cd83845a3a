package devserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/coffeeclub/coffeeclub-client/pkg/enums"
	pkgerrors "github.com/coffeeclub/coffeeclub-client/pkg/errors"
	"github.com/coffeeclub/coffeeclub-client/pkg/types"
)

// guardrailKeywords routes risky phrasing to a canned redirect instead of a
// generated reply, mirroring production's policy layer.
var guardrailKeywords = []struct {
	kind  enums.Guardrail
	terms []string
}{
	{enums.GuardrailTransaction, []string{"pay", "charge", "card", "checkout", "purchase"}},
	{enums.GuardrailFreebie, []string{"free", "discount", "coupon", "comp"}},
	{enums.GuardrailSupport, []string{"help", "support", "refund", "complaint"}},
}

var guardrailReplies = map[enums.Guardrail]string{
	enums.GuardrailTransaction: "I can't move money around, but the payments tab can.",
	enums.GuardrailFreebie:     "Free drinks come from your punch card, not from me.",
	enums.GuardrailSupport:     "For account or order issues, support@coffeeclub.example is the fastest route.",
}

var assistantSuggestions = []string{
	"What should I order on a cold day?",
	"How do punch cards work?",
	"Recommend a pastry pairing",
	"What's the strongest drink on the menu?",
}

func (s *Server) handleAssistantChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req types.AssistantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(ctx, s.logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body"))
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(ctx, s.logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "message is required"))
		return
	}

	writeSuccess(w, composeAssistantReply(req))
}

func composeAssistantReply(req types.AssistantRequest) types.AssistantResponse {
	lowered := strings.ToLower(req.Message)
	for _, rule := range guardrailKeywords {
		for _, term := range rule.terms {
			if strings.Contains(lowered, term) {
				return types.AssistantResponse{
					Reply:       guardrailReplies[rule.kind],
					Guardrail:   rule.kind,
					Suggestions: assistantSuggestions,
				}
			}
		}
	}

	reply := "A cappuccino never misses. Want something sweeter, try the mocha with two pumps."
	if req.Weather != nil {
		if req.Weather.Temperature <= 50 {
			reply = fmt.Sprintf("It's %.0f°%s out there — a hot latte or a mocha would hit the spot.",
				req.Weather.Temperature, unitsLetter(req.Weather.Units))
		} else if req.Weather.Temperature >= 75 {
			reply = fmt.Sprintf("At %.0f°%s, go iced. Cold brew over ice with oat milk is the move.",
				req.Weather.Temperature, unitsLetter(req.Weather.Units))
		}
	}

	return types.AssistantResponse{
		Reply:       reply,
		Suggestions: assistantSuggestions,
	}
}

func unitsLetter(units string) string {
	if strings.EqualFold(units, "metric") {
		return "C"
	}
	return "F"
}
