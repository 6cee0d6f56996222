// Package errors renders API failures as RFC 7807 problem documents.
package errors

import (
	"fmt"
	"net/http"
)

// ProblemDetail is the application/problem+json body (RFC 7807).
type ProblemDetail struct {
	Type       string         `json:"type"`
	Title      string         `json:"title"`
	Status     int            `json:"status"`
	Detail     string         `json:"detail,omitempty"`
	Instance   string         `json:"instance,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (p ProblemDetail) Error() string {
	if p.Detail == "" {
		return p.Title
	}
	return fmt.Sprintf("%s: %s", p.Title, p.Detail)
}

// WithDetail returns a copy describing this occurrence.
func (p ProblemDetail) WithDetail(detail string) ProblemDetail {
	p.Detail = detail
	return p
}

// WithExtension returns a copy carrying one more extension member.
func (p ProblemDetail) WithExtension(key string, value any) ProblemDetail {
	ext := make(map[string]any, len(p.Extensions)+1)
	for k, v := range p.Extensions {
		ext[k] = v
	}
	ext[key] = value
	p.Extensions = ext
	return p
}

// Problem type references served by the checkout API.
const (
	TypeValidation     = "/problems/validation-error"
	TypeNotFound       = "/problems/not-found"
	TypeConflict       = "/problems/conflict"
	TypeInternal       = "/problems/internal-error"
	TypeBadRequest     = "/problems/bad-request"
	TypeUpstream       = "/problems/upstream-failure"
	TypePaymentFailed  = "/problems/payment-failed"
	TypeServiceUnavail = "/problems/service-unavailable"
)

func template(typ, title string, status int) ProblemDetail {
	return ProblemDetail{Type: typ, Title: title, Status: status}
}

var (
	ErrNotFound   = template(TypeNotFound, "Resource Not Found", http.StatusNotFound)
	ErrValidation = template(TypeValidation, "Validation Error", http.StatusBadRequest)
	ErrBadRequest = template(TypeBadRequest, "Bad Request", http.StatusBadRequest)
	// ErrConflict means the session cannot take the transition in its current state.
	ErrConflict = template(TypeConflict, "Conflict", http.StatusConflict)
	// ErrUpstream means the production API failed.
	ErrUpstream = template(TypeUpstream, "Upstream Failure", http.StatusBadGateway)
	// ErrPaymentFailed means the card processor refused or failed the charge.
	ErrPaymentFailed = template(TypePaymentFailed, "Payment Failed", http.StatusPaymentRequired)
	// ErrServiceUnavailable means a gateway the operation needs is not configured.
	ErrServiceUnavailable = template(TypeServiceUnavail, "Service Unavailable", http.StatusServiceUnavailable)
	ErrInternal           = template(TypeInternal, "Internal Server Error", http.StatusInternalServerError)
)
