package domain

import "time"

// ErrorKind classifies gateway failures surfaced by the wizard.
type ErrorKind string

const (
	ErrorKindFetchFailed       ErrorKind = "FetchFailed"
	ErrorKindDraftCreateFailed ErrorKind = "DraftCreateFailed"
	ErrorKindDraftDeleteFailed ErrorKind = "DraftDeleteFailed"
	ErrorKindPaymentFailed     ErrorKind = "PaymentFailed"
)

// ErrorInfo records the last gateway failure on the order so hosts can show it.
type ErrorInfo struct {
	Kind       ErrorKind
	Message    string
	OccurredAt time.Time
}
