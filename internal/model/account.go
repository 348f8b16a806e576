package model

// Account represents a registered identity in the database.
type Account struct {
	ID            int64
	Username      string
	PasswordHash  string
	TokenHash     string // empty until first login
	TokenIssuedAt int64  // unix seconds, zero until first login
}

// CredentialsRequest carries a username/password pair for registration and JSON login.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is returned by every successful login.
type TokenResponse struct {
	Token string `json:"token"`
}

// AccountResponse represents account data safe for API responses.
type AccountResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// MessageResponse is a plain confirmation message.
type MessageResponse struct {
	Message string `json:"message"`
}
