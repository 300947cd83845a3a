package types

import "github.com/coffeeclub/coffeeclub-client/pkg/enums"

// ChatRole distinguishes the two sides of an assistant conversation.
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// AssistantHistoryMessage is one prior turn sent for context.
type AssistantHistoryMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// AssistantWeatherPayload gives the assistant local conditions for drink
// recommendations.
type AssistantWeatherPayload struct {
	Description  string  `json:"description"`
	Temperature  float64 `json:"temperature"`
	FeelsLike    float64 `json:"feelsLike"`
	Units        string  `json:"units"`
	LocationName string  `json:"locationName,omitempty"`
}

// AssistantRequest is the POST /assistant/chat body.
type AssistantRequest struct {
	Message string                    `json:"message" validate:"required"`
	History []AssistantHistoryMessage `json:"history"`
	Weather *AssistantWeatherPayload  `json:"weather,omitempty"`
}

// AssistantResponse is the assistant's reply.
type AssistantResponse struct {
	Reply       string          `json:"reply"`
	Guardrail   enums.Guardrail `json:"guardrail,omitempty"`
	Suggestions []string        `json:"suggestions"`
}
