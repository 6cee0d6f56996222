package http

import (
	"errors"

	checkoutapp "github.com/Apurer/headshot-checkout/internal/domains/checkout/application"
	"github.com/Apurer/headshot-checkout/internal/domains/checkout/domain"
	"github.com/Apurer/headshot-checkout/internal/domains/checkout/ports"
	apierrors "github.com/Apurer/headshot-checkout/internal/shared/errors"
)

var conflictErrors = []error{
	checkoutapp.ErrBusy,
	checkoutapp.ErrPaymentPending,
	checkoutapp.ErrClosed,
	checkoutapp.ErrPaymentRequired,
	checkoutapp.ErrAlreadyPaid,
	checkoutapp.ErrMissingDraft,
	checkoutapp.ErrInvalidStep,
	checkoutapp.ErrNotLoaded,
}

// checkoutProblem maps application errors to problem details.
func checkoutProblem(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, ports.ErrSessionNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()), true
	case errors.Is(err, checkoutapp.ErrInvalidInput):
		return apierrors.ErrValidation.WithDetail(err.Error()), true
	case errors.Is(err, checkoutapp.ErrGatewayUnavailable):
		return withSession(apierrors.ErrServiceUnavailable.WithDetail(err.Error()), err), true
	}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return apierrors.ErrConflict.WithDetail(err.Error()), true
		}
	}
	kind, ok := checkoutapp.KindOf(err)
	if !ok {
		return apierrors.ProblemDetail{}, false
	}
	problem := apierrors.ErrUpstream
	if kind == domain.ErrorKindPaymentFailed {
		problem = apierrors.ErrPaymentFailed
	}
	return withSession(problem.WithDetail(err.Error()).WithExtension("kind", string(kind)), err), true
}

// withSession exposes the session a gateway failure belongs to, so a failed
// start can still be retried by id.
func withSession(problem apierrors.ProblemDetail, err error) apierrors.ProblemDetail {
	var cerr *checkoutapp.CheckoutError
	if errors.As(err, &cerr) && cerr.SessionID != "" {
		return problem.WithExtension("sessionId", cerr.SessionID)
	}
	return problem
}
