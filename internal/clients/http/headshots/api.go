package headshots

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
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

// APIClient issues raw requests against the headshot API.
type APIClient struct {
	Server         string
	Client         HttpRequestDoer
	RequestEditors []RequestEditorFn
}

// ClientOption allows setting custom parameters during construction.
type ClientOption func(*APIClient) error

// NewAPIClient creates a new APIClient with reasonable defaults.
func NewAPIClient(server string, opts ...ClientOption) (*APIClient, error) {
	client := APIClient{Server: server}
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

// WithHTTPClient allows overriding the default Doer.
func WithHTTPClient(doer HttpRequestDoer) ClientOption {
	return func(c *APIClient) error {
		c.Client = doer
		return nil
	}
}

// WithRequestEditorFn allows setting up a callback function, which will be
// called right before sending the request.
func WithRequestEditorFn(fn RequestEditorFn) ClientOption {
	return func(c *APIClient) error {
		c.RequestEditors = append(c.RequestEditors, fn)
		return nil
	}
}

func (c *APIClient) GetProduction(ctx context.Context, id string, reqEditors ...RequestEditorFn) (*http.Response, error) {
	req, err := NewGetProductionRequest(c.Server, id)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, req, reqEditors)
}

func (c *APIClient) CreateHeadshot(ctx context.Context, body CreateHeadshotJSONRequestBody, reqEditors ...RequestEditorFn) (*http.Response, error) {
	req, err := NewCreateHeadshotRequest(c.Server, body)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, req, reqEditors)
}

func (c *APIClient) DeleteHeadshot(ctx context.Context, id string, reqEditors ...RequestEditorFn) (*http.Response, error) {
	req, err := NewDeleteHeadshotRequest(c.Server, id)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, req, reqEditors)
}

func (c *APIClient) do(ctx context.Context, req *http.Request, additionalEditors []RequestEditorFn) (*http.Response, error) {
	req = req.WithContext(ctx)
	for _, r := range c.RequestEditors {
		if err := r(ctx, req); err != nil {
			return nil, err
		}
	}
	for _, r := range additionalEditors {
		if err := r(ctx, req); err != nil {
			return nil, err
		}
	}
	return c.Client.Do(req)
}

// NewGetProductionRequest generates requests for GetProduction.
func NewGetProductionRequest(server string, id string) (*http.Request, error) {
	pathParam0, err := runtime.StyleParamWithLocation("simple", false, "id", runtime.ParamLocationPath, id)
	if err != nil {
		return nil, err
	}
	queryURL, err := operationURL(server, fmt.Sprintf("/productions/%s", pathParam0))
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodGet, queryURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// NewCreateHeadshotRequest generates requests for CreateHeadshot with a JSON body.
func NewCreateHeadshotRequest(server string, body CreateHeadshotJSONRequestBody) (*http.Request, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	queryURL, err := operationURL(server, "/headshots")
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost, queryURL, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// NewDeleteHeadshotRequest generates requests for DeleteHeadshot.
func NewDeleteHeadshotRequest(server string, id string) (*http.Request, error) {
	pathParam0, err := runtime.StyleParamWithLocation("simple", false, "id", runtime.ParamLocationPath, id)
	if err != nil {
		return nil, err
	}
	queryURL, err := operationURL(server, fmt.Sprintf("/headshots/%s", pathParam0))
	if err != nil {
		return nil, err
	}
	return http.NewRequest(http.MethodDelete, queryURL, nil)
}

func operationURL(server, operationPath string) (string, error) {
	serverURL, err := url.Parse(server)
	if err != nil {
		return "", err
	}
	if operationPath[0] == '/' {
		operationPath = "." + operationPath
	}
	queryURL, err := serverURL.Parse(operationPath)
	if err != nil {
		return "", err
	}
	return queryURL.String(), nil
}

// ClientWithResponses builds on APIClient to offer response payloads.
type ClientWithResponses struct {
	ClientInterface *APIClient
}

// NewClientWithResponses creates a new ClientWithResponses, which wraps
// APIClient with return type handling.
func NewClientWithResponses(server string, opts ...ClientOption) (*ClientWithResponses, error) {
	client, err := NewAPIClient(server, opts...)
	if err != nil {
		return nil, err
	}
	return &ClientWithResponses{client}, nil
}

type GetProductionResponse struct {
	Body         []byte
	HTTPResponse *http.Response
	JSON200      *Production
	JSONDefault  *Error
}

type CreateHeadshotResponse struct {
	Body         []byte
	HTTPResponse *http.Response
	JSON200      *Headshot
	JSON201      *Headshot
	JSONDefault  *Error
}

type DeleteHeadshotResponse struct {
	Body         []byte
	HTTPResponse *http.Response
	JSONDefault  *Error
}

func (r GetProductionResponse) Status() string   { return status(r.HTTPResponse) }
func (r GetProductionResponse) StatusCode() int  { return statusCode(r.HTTPResponse) }
func (r CreateHeadshotResponse) Status() string  { return status(r.HTTPResponse) }
func (r CreateHeadshotResponse) StatusCode() int { return statusCode(r.HTTPResponse) }
func (r DeleteHeadshotResponse) Status() string  { return status(r.HTTPResponse) }
func (r DeleteHeadshotResponse) StatusCode() int { return statusCode(r.HTTPResponse) }

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

func (c *ClientWithResponses) GetProductionWithResponse(ctx context.Context, id string, reqEditors ...RequestEditorFn) (*GetProductionResponse, error) {
	rsp, err := c.ClientInterface.GetProduction(ctx, id, reqEditors...)
	if err != nil {
		return nil, err
	}
	body, err := readBody(rsp)
	if err != nil {
		return nil, err
	}
	response := &GetProductionResponse{Body: body, HTTPResponse: rsp}
	switch {
	case isJSON(rsp) && rsp.StatusCode == http.StatusOK:
		var dest Production
		if err := json.Unmarshal(body, &dest); err != nil {
			return nil, err
		}
		response.JSON200 = &dest
	case isJSON(rsp) && rsp.StatusCode >= http.StatusBadRequest:
		response.JSONDefault = decodeError(body)
	}
	return response, nil
}

func (c *ClientWithResponses) CreateHeadshotWithResponse(ctx context.Context, body CreateHeadshotJSONRequestBody, reqEditors ...RequestEditorFn) (*CreateHeadshotResponse, error) {
	rsp, err := c.ClientInterface.CreateHeadshot(ctx, body, reqEditors...)
	if err != nil {
		return nil, err
	}
	payload, err := readBody(rsp)
	if err != nil {
		return nil, err
	}
	response := &CreateHeadshotResponse{Body: payload, HTTPResponse: rsp}
	switch {
	case isJSON(rsp) && (rsp.StatusCode == http.StatusOK || rsp.StatusCode == http.StatusCreated):
		var dest Headshot
		if err := json.Unmarshal(payload, &dest); err != nil {
			return nil, err
		}
		if rsp.StatusCode == http.StatusCreated {
			response.JSON201 = &dest
		} else {
			response.JSON200 = &dest
		}
	case isJSON(rsp) && rsp.StatusCode >= http.StatusBadRequest:
		response.JSONDefault = decodeError(payload)
	}
	return response, nil
}

func (c *ClientWithResponses) DeleteHeadshotWithResponse(ctx context.Context, id string, reqEditors ...RequestEditorFn) (*DeleteHeadshotResponse, error) {
	rsp, err := c.ClientInterface.DeleteHeadshot(ctx, id, reqEditors...)
	if err != nil {
		return nil, err
	}
	body, err := readBody(rsp)
	if err != nil {
		return nil, err
	}
	response := &DeleteHeadshotResponse{Body: body, HTTPResponse: rsp}
	if isJSON(rsp) && rsp.StatusCode >= http.StatusBadRequest {
		response.JSONDefault = decodeError(body)
	}
	return response, nil
}

func readBody(rsp *http.Response) ([]byte, error) {
	defer func() { _ = rsp.Body.Close() }()
	return io.ReadAll(rsp.Body)
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
