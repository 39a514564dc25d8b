package model

// Credential is the email/password pair a session token is minted from.
// The pair lives only inside requests and the signed token payload; there
// is no user store backing it.
type Credential struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" example:"user@example.com"`
	Password string `json:"password" example:"SecurePassword123"`
}

// SignupRequest represents signup credentials
type SignupRequest struct {
	Email    string `json:"email" example:"user@example.com"`
	Password string `json:"password" example:"SecurePassword123"`
}

// MessageResponse is the single-field body every auth endpoint responds with
type MessageResponse struct {
	Message string `json:"message"`
}
