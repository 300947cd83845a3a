package assistant

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/coffeeclub/coffeeclub-client/pkg/enums"
	pkgerrors "github.com/coffeeclub/coffeeclub-client/pkg/errors"
	"github.com/coffeeclub/coffeeclub-client/pkg/logger"
	"github.com/coffeeclub/coffeeclub-client/pkg/types"
)

// historyLimit caps how many settled turns are sent for context.
const historyLimit = 8

const (
	greeting  = "I'm the Coffee Companion. Ask me about drinks, rewards, or anything coffee — I just can't handle payments."
	thinking  = "Thinking…"
	retryCopy = "I lost the connection for a moment. Please try sending that again."
)

// guardrailCopy is the fixed note shown under a redirected reply.
var guardrailCopy = map[enums.Guardrail]string{
	enums.GuardrailFreebie:     "Policy reminder: no freebies or discounts can be issued here.",
	enums.GuardrailTransaction: "Security reminder: payments stay in the payments tab.",
	enums.GuardrailSupport:     "Need more help? Email support so a human can assist.",
	enums.GuardrailConfig:      "Assistant is warming up. Try again soon.",
	enums.GuardrailError:       "Something went sideways. Please try again.",
}

// defaultSuggestions seed the quick prompts until the assistant supplies its
// own rotation.
var defaultSuggestions = []string{
	"Recommend a drink for this weather",
	"What pastry pairs with a latte?",
	"Remind me how rewards work",
}

// Message is one rendered chat turn. Pending marks the placeholder that
// holds the assistant's slot while a send is in flight.
type Message struct {
	ID            string
	Role          types.ChatRole
	Content       string
	Pending       bool
	GuardrailNote string
}

// Gateway is the slice of the API client the chat session drives.
type Gateway interface {
	SendAssistantMessage(ctx context.Context, req types.AssistantRequest) (*types.AssistantResponse, error)
}

// WeatherSource supplies local conditions for drink recommendations; nil
// payloads are fine and simply omit the context.
type WeatherSource interface {
	AssistantPayload() *types.AssistantWeatherPayload
}

// Session is one assistant conversation. Sends are strictly one at a time:
// each appends the user turn plus a pending placeholder, and the placeholder
// always resolves, to the reply on success or to retry copy on failure, so
// the transcript never wedges on a dead request.
type Session struct {
	gateway Gateway
	weather WeatherSource
	logg    *logger.Logger

	mu          sync.Mutex
	messages    []Message
	suggestions []string
	sending     bool
}

// NewSession opens a conversation seeded with the greeting.
func NewSession(gw Gateway, weather WeatherSource, logg *logger.Logger) *Session {
	return &Session{
		gateway: gw,
		weather: weather,
		logg:    logg,
		messages: []Message{{
			ID:      uuid.NewString(),
			Role:    types.ChatRoleAssistant,
			Content: greeting,
		}},
		suggestions: append([]string(nil), defaultSuggestions...),
	}
}

// Messages returns a copy of the transcript.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

// Suggestions returns the current quick prompts.
func (s *Session) Suggestions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.suggestions...)
}

// Sending reports whether a turn is in flight.
func (s *Session) Sending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sending
}

// Send posts one user turn and resolves the assistant's reply into the
// transcript. The returned error reports a failed round-trip; the transcript
// already carries the retry copy by then.
func (s *Session) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "message is required")
	}

	pendingID, history, err := s.begin(text)
	if err != nil {
		return err
	}

	req := types.AssistantRequest{Message: text, History: history}
	if s.weather != nil {
		req.Weather = s.weather.AssistantPayload()
	}

	resp, err := s.gateway.SendAssistantMessage(ctx, req)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(ctx, "assistant request failed")
		}
		s.resolve(pendingID, retryCopy, "", nil)
		return err
	}

	note := ""
	if resp.Guardrail != "" {
		note = guardrailCopy[resp.Guardrail]
	}
	s.resolve(pendingID, strings.TrimSpace(resp.Reply), note, resp.Suggestions)
	return nil
}

// begin appends the user turn and the pending placeholder, and snapshots the
// history payload for the request.
func (s *Session) begin(text string) (pendingID string, history []types.AssistantHistoryMessage, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sending {
		return "", nil, pkgerrors.New(pkgerrors.CodePrecondition, "a message is already in flight")
	}
	s.sending = true

	s.messages = append(s.messages, Message{
		ID:      uuid.NewString(),
		Role:    types.ChatRoleUser,
		Content: text,
	})

	history = buildHistory(s.messages)

	pendingID = uuid.NewString()
	s.messages = append(s.messages, Message{
		ID:      pendingID,
		Role:    types.ChatRoleAssistant,
		Content: thinking,
		Pending: true,
	})
	return pendingID, history, nil
}

// resolve fills the pending placeholder in place.
func (s *Session) resolve(pendingID, content, note string, suggestions []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sending = false
	for i := range s.messages {
		if s.messages[i].ID == pendingID {
			s.messages[i].Content = content
			s.messages[i].Pending = false
			s.messages[i].GuardrailNote = note
			break
		}
	}
	if len(suggestions) > 0 {
		s.suggestions = append([]string(nil), suggestions...)
	}
}

// buildHistory takes the newest settled turns, up to the limit. Pending
// placeholders never ship.
func buildHistory(messages []Message) []types.AssistantHistoryMessage {
	settled := make([]types.AssistantHistoryMessage, 0, len(messages))
	for _, msg := range messages {
		if msg.Pending {
			continue
		}
		settled = append(settled, types.AssistantHistoryMessage{Role: msg.Role, Content: msg.Content})
	}
	if len(settled) > historyLimit {
		settled = settled[len(settled)-historyLimit:]
	}
	return settled
}
