package notification

// TokenTypeExpo is the only token type eligible for push delivery.
const TokenTypeExpo = "expo"

// Device is a registered push target.
type Device struct {
	ID        string
	Token     string
	TokenType string
	UserID    string
}
