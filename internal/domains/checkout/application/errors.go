package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/headshot-checkout/internal/domains/checkout/domain"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid checkout input")
	// ErrBusy rejects transitions while a gateway call is outstanding.
	ErrBusy = errors.New("checkout session is waiting on a gateway call")
	// ErrClosed rejects operations on a detached wizard.
	ErrClosed = errors.New("checkout session is closed")
	// ErrPaymentRequired is returned when advancing past review without paying.
	ErrPaymentRequired = errors.New("payment is required to leave the review step")
	// ErrAlreadyPaid rejects backward moves once the order is paid.
	ErrAlreadyPaid = errors.New("order is already paid")
	// ErrMissingDraft rejects payment when no draft headshot exists.
	ErrMissingDraft = errors.New("no draft headshot to pay for")
	// ErrInvalidStep rejects an operation that does not belong to the current step.
	ErrInvalidStep = errors.New("operation not allowed on the current step")
	// ErrUnknownField rejects SetField with a name the order does not carry.
	ErrUnknownField = errors.New("unknown order field")
	// ErrNotLoaded rejects transitions before the production is available.
	ErrNotLoaded = errors.New("production is not loaded")
	// ErrPaymentPending rejects changes while the processor is charging the card.
	ErrPaymentPending = errors.New("payment is being processed")
	// ErrGatewayUnavailable is returned when a required gateway was not configured.
	ErrGatewayUnavailable = errors.New("checkout gateway not configured")
)

// CheckoutError wraps a gateway failure with its kind and the session it hit.
type CheckoutError struct {
	Kind      domain.ErrorKind
	SessionID string
	Err       error
}

func (e *CheckoutError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *CheckoutError) Unwrap() error { return e.Err }

// KindOf extracts the ErrorKind from err, if any.
func KindOf(err error) (domain.ErrorKind, bool) {
	var ce *CheckoutError
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return "", false
}

func newCheckoutError(kind domain.ErrorKind, sessionID string, err error) *CheckoutError {
	return &CheckoutError{Kind: kind, SessionID: sessionID, Err: err}
}

func gatewayUnavailable(name string) error {
	return fmt.Errorf("%w: %s", ErrGatewayUnavailable, name)
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrEmptyProductionID) ||
		errors.Is(err, domain.ErrPaidBeforeFinish) ||
		errors.Is(err, ErrUnknownField) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
