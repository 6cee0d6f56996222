package payments

// CreateTokenJSONRequestBody defines body for CreateToken.
type CreateTokenJSONRequestBody struct {
	Source string `json:"source"`
	Email  string `json:"email,omitempty"`
}

// Token defines model for Token.
type Token struct {
	ID string `json:"id"`
}

// ChargeMetadata is echoed back by the processor on webhooks.
type ChargeMetadata struct {
	HeadshotID string `json:"headshot_id,omitempty"`
	SessionID  string `json:"session_id,omitempty"`
}

// CreateChargeJSONRequestBody defines body for CreateCharge. Amount is in minor units.
type CreateChargeJSONRequestBody struct {
	Token    string         `json:"token"`
	Amount   int64          `json:"amount"`
	Currency string         `json:"currency"`
	Metadata ChargeMetadata `json:"metadata"`
}

// Charge defines model for Charge.
type Charge struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Paid   bool   `json:"paid"`
}

// Error defines model for Error.
type Error struct {
	Message *string `json:"message,omitempty"`
	Code    *string `json:"code,omitempty"`
}
