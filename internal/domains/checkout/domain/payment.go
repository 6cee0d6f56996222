package domain

import "github.com/shopspring/decimal"

// PaymentRequest is what the card processor needs to charge a draft headshot.
type PaymentRequest struct {
	SessionID  string
	HeadshotID string
	Email      string
	Amount     decimal.Decimal
	Currency   string
	// Source is the client-side card reference handed to tokenization.
	Source string
}

// PaymentToken is returned by tokenization and consumed by confirmation.
type PaymentToken struct {
	ID string
}

// PaymentConfirmation is the processor's answer to a charge.
type PaymentConfirmation struct {
	ID     string
	Status string
	Paid   bool
}

// MinorUnits converts a decimal amount to cents, rounding half away from zero.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
