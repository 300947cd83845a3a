package types

// PaymentIntent is returned by POST /payments/intent. Amounts are whole
// cents; everything display-facing stays decimal dollars.
type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"clientSecret"`
	AmountCents  int64  `json:"amountCents"`
}

// CreatePaymentIntentRequest sizes an intent. A zero AmountCents asks the
// server to size it from the current cart subtotal.
type CreatePaymentIntentRequest struct {
	AmountCents int64  `json:"amountCents,omitempty"`
	Purpose     string `json:"purpose,omitempty"`
}
