package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

var errMissing = errors.New("missing")

func serve(t *testing.T, handler gin.HandlerFunc) (*httptest.ResponseRecorder, ProblemDetail) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/v1/checkout/sessions/s1", handler)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/checkout/sessions/s1", nil))
	var problem ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	return rec, problem
}

func TestResponder_UsesFirstMatchingMapper(t *testing.T) {
	responder := NewResponder("https://errors.example",
		func(err error) (ProblemDetail, bool) {
			if errors.Is(err, errMissing) {
				return ErrNotFound.WithDetail("checkout session s1").WithExtension("sessionId", "s1"), true
			}
			return ProblemDetail{}, false
		},
		func(error) (ProblemDetail, bool) { return ErrConflict, true },
	)

	rec, problem := serve(t, func(c *gin.Context) { responder.RespondError(c, fmt.Errorf("lookup: %w", errMissing)) })

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, ContentTypeProblemJSON, rec.Header().Get("Content-Type"))
	require.Equal(t, "https://errors.example"+TypeNotFound, problem.Type)
	require.Equal(t, "/v1/checkout/sessions/s1", problem.Instance)
	require.Equal(t, "s1", problem.Extensions["sessionId"])
}

func TestResponder_FallsBackToInternal(t *testing.T) {
	responder := NewResponder("")

	rec, problem := serve(t, func(c *gin.Context) { responder.RespondError(c, errors.New("boom")) })

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "boom", problem.Detail)
}

func TestResponder_BadRequest(t *testing.T) {
	responder := NewResponder("")

	rec, problem := serve(t, func(c *gin.Context) { responder.BadRequest(c, "sessionId is required") })

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, TypeBadRequest, problem.Type)
}

func TestResolve_PassesProblemDetailsThrough(t *testing.T) {
	problem := NewResponder("").Resolve(ErrPaymentFailed.WithDetail("card declined"))

	require.Equal(t, http.StatusPaymentRequired, problem.Status)
	require.Equal(t, "Payment Failed: card declined", problem.Error())
}

func TestWithExtension_DoesNotShareTemplateMap(t *testing.T) {
	first := ErrUpstream.WithExtension("kind", "FetchFailed")
	second := first.WithExtension("sessionId", "s1")

	require.Len(t, first.Extensions, 1)
	require.Len(t, second.Extensions, 2)
	require.Nil(t, ErrUpstream.Extensions)
}
