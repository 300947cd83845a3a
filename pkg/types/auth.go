package types

// Identity is the minimal user identity carried in the session, decoded from
// the access token's claims.
type Identity struct {
	Email string `json:"email"`
	Sub   int64  `json:"sub"`
}

// LoginRequest is the POST /auth/login and /auth/register body.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginResponse is returned by both auth endpoints.
type LoginResponse struct {
	AccessToken           string `json:"access_token"`
	Email                 string `json:"email"`
	Sub                   int64  `json:"sub"`
	RequiresPasswordReset bool   `json:"requiresPasswordReset,omitempty"`
}
