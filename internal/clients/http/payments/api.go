package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/oapi-codegen/runtime"
)

// HttpRequestDoer performs HTTP requests.
type HttpRequestDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RequestEditorFn is the function signature for the RequestEditor callback function.
type RequestEditorFn func(ctx context.Context, req *http.Request) error

// ClientOption allows setting custom parameters during construction.
type ClientOption func(*ClientWithResponses) error

// WithHTTPClient allows overriding the default Doer.
func WithHTTPClient(doer HttpRequestDoer) ClientOption {
	return func(c *ClientWithResponses) error {
		c.Client = doer
		return nil
	}
}

// WithRequestEditorFn registers a callback run right before each request is sent.
func WithRequestEditorFn(fn RequestEditorFn) ClientOption {
	return func(c *ClientWithResponses) error {
		c.RequestEditors = append(c.RequestEditors, fn)
		return nil
	}
}

// CreateChargeParams defines parameters for CreateCharge.
type CreateChargeParams struct {
	IdempotencyKey *string `json:"Idempotency-Key,omitempty"`
}

// ClientWithResponses issues requests against the card processor and decodes the answers.
type ClientWithResponses struct {
	Server         string
	Client         HttpRequestDoer
	RequestEditors []RequestEditorFn
}

func NewClientWithResponses(server string, opts ...ClientOption) (*ClientWithResponses, error) {
	client := ClientWithResponses{Server: server}
	for _, o := range opts {
		if err := o(&client); err != nil {
			return nil, err
		}
	}
	if !strings.HasSuffix(client.Server, "/") {
		client.Server += "/"
	}
	if client.Client == nil {
		client.Client = &http.Client{}
	}
	return &client, nil
}

type CreateTokenResponse struct {
	Body         []byte
	HTTPResponse *http.Response
	JSON200      *Token
	JSONDefault  *Error
}

type CreateChargeResponse struct {
	Body         []byte
	HTTPResponse *http.Response
	JSON200      *Charge
	JSON402      *Error
	JSONDefault  *Error
}

func (r CreateTokenResponse) StatusCode() int  { return statusCode(r.HTTPResponse) }
func (r CreateTokenResponse) Status() string   { return status(r.HTTPResponse) }
func (r CreateChargeResponse) StatusCode() int { return statusCode(r.HTTPResponse) }
func (r CreateChargeResponse) Status() string  { return status(r.HTTPResponse) }

func (c *ClientWithResponses) CreateTokenWithResponse(ctx context.Context, body CreateTokenJSONRequestBody, reqEditors ...RequestEditorFn) (*CreateTokenResponse, error) {
	req, err := c.newJSONRequest(http.MethodPost, "/v1/tokens", body)
	if err != nil {
		return nil, err
	}
	rsp, payload, err := c.do(ctx, req, reqEditors)
	if err != nil {
		return nil, err
	}
	response := &CreateTokenResponse{Body: payload, HTTPResponse: rsp}
	switch {
	case isJSON(rsp) && rsp.StatusCode == http.StatusOK:
		var dest Token
		if err := json.Unmarshal(payload, &dest); err != nil {
			return nil, err
		}
		response.JSON200 = &dest
	case isJSON(rsp) && rsp.StatusCode >= http.StatusBadRequest:
		response.JSONDefault = decodeError(payload)
	}
	return response, nil
}

func (c *ClientWithResponses) CreateChargeWithResponse(ctx context.Context, params *CreateChargeParams, body CreateChargeJSONRequestBody, reqEditors ...RequestEditorFn) (*CreateChargeResponse, error) {
	req, err := c.newJSONRequest(http.MethodPost, "/v1/charges", body)
	if err != nil {
		return nil, err
	}
	if params != nil && params.IdempotencyKey != nil {
		headerParam0, err := runtime.StyleParamWithLocation("simple", false, "Idempotency-Key", runtime.ParamLocationHeader, *params.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Idempotency-Key", headerParam0)
	}
	rsp, payload, err := c.do(ctx, req, reqEditors)
	if err != nil {
		return nil, err
	}
	response := &CreateChargeResponse{Body: payload, HTTPResponse: rsp}
	switch {
	case isJSON(rsp) && rsp.StatusCode == http.StatusOK:
		var dest Charge
		if err := json.Unmarshal(payload, &dest); err != nil {
			return nil, err
		}
		response.JSON200 = &dest
	case isJSON(rsp) && rsp.StatusCode == http.StatusPaymentRequired:
		response.JSON402 = decodeError(payload)
	case isJSON(rsp) && rsp.StatusCode >= http.StatusBadRequest:
		response.JSONDefault = decodeError(payload)
	}
	return response, nil
}

func (c *ClientWithResponses) newJSONRequest(method, operationPath string, body any) (*http.Request, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	serverURL, err := url.Parse(c.Server)
	if err != nil {
		return nil, err
	}
	queryURL, err := serverURL.Parse("." + operationPath)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(method, queryURL.String(), bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *ClientWithResponses) do(ctx context.Context, req *http.Request, additionalEditors []RequestEditorFn) (*http.Response, []byte, error) {
	req = req.WithContext(ctx)
	for _, editors := range [][]RequestEditorFn{c.RequestEditors, additionalEditors} {
		for _, r := range editors {
			if err := r(ctx, req); err != nil {
				return nil, nil, err
			}
		}
	}
	rsp, err := c.Client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = rsp.Body.Close() }()
	payload, err := io.ReadAll(rsp.Body)
	if err != nil {
		return nil, nil, err
	}
	return rsp, payload, nil
}

func status(resp *http.Response) string {
	if resp != nil {
		return resp.Status
	}
	return http.StatusText(0)
}

func statusCode(resp *http.Response) int {
	if resp != nil {
		return resp.StatusCode
	}
	return 0
}

func isJSON(rsp *http.Response) bool {
	return strings.Contains(rsp.Header.Get("Content-Type"), "json")
}

func decodeError(body []byte) *Error {
	var dest Error
	if err := json.Unmarshal(body, &dest); err != nil {
		return nil
	}
	return &dest
}
