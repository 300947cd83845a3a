package enums

// Guardrail marks assistant replies that were redirected by policy.
type Guardrail string

const (
	GuardrailTransaction Guardrail = "transaction"
	GuardrailFreebie     Guardrail = "freebie"
	GuardrailSupport     Guardrail = "support"
	GuardrailConfig      Guardrail = "config"
	GuardrailError       Guardrail = "error"
)

// IsValid reports whether the guardrail kind is recognized.
func (g Guardrail) IsValid() bool {
	switch g {
	case GuardrailTransaction, GuardrailFreebie, GuardrailSupport, GuardrailConfig, GuardrailError:
		return true
	default:
		return false
	}
}
