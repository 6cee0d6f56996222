package payments

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrDeclined is returned when the processor refuses the charge.
var ErrDeclined = errors.New("card declined")

// Client wraps the card processor API.
type Client struct {
	api *ClientWithResponses
}

// ChargeOption configures CreateCharge behavior.
type ChargeOption func(*chargeOptions)

type chargeOptions struct {
	idempotencyKey string
}

// WithIdempotencyKey sets the Idempotency-Key header for the charge.
func WithIdempotencyKey(key string) ChargeOption {
	return func(opts *chargeOptions) {
		opts.idempotencyKey = strings.TrimSpace(key)
	}
}

// NewPaymentClient instantiates the processor client. apiKey, when set, is sent as a bearer token.
func NewPaymentClient(baseURL, apiKey string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("payment API base URL is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	opts := []ClientOption{WithHTTPClient(httpClient)}
	if key := strings.TrimSpace(apiKey); key != "" {
		opts = append(opts, WithRequestEditorFn(func(_ context.Context, req *http.Request) error {
			req.Header.Set("Authorization", "Bearer "+key)
			return nil
		}))
	}
	api, err := NewClientWithResponses(baseURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("build payment client: %w", err)
	}
	return &Client{api: api}, nil
}

// CreateToken exchanges a client-side card source for a single-use token.
func (c *Client) CreateToken(ctx context.Context, body CreateTokenJSONRequestBody) (*Token, error) {
	if c == nil || c.api == nil {
		return nil, errors.New("payment client not configured")
	}
	if strings.TrimSpace(body.Source) == "" {
		return nil, errors.New("card source is required")
	}
	resp, err := c.api.CreateTokenWithResponse(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("call payment API: %w", err)
	}
	if code := resp.StatusCode(); code != http.StatusOK {
		return nil, fmt.Errorf("payment API error: %s", errorMessage(resp.JSONDefault, resp.Status()))
	}
	if resp.JSON200 == nil || resp.JSON200.ID == "" {
		return nil, errors.New("payment API returned no token")
	}
	return resp.JSON200, nil
}

// CreateCharge charges a token.
func (c *Client) CreateCharge(ctx context.Context, body CreateChargeJSONRequestBody, optFns ...ChargeOption) (*Charge, error) {
	if c == nil || c.api == nil {
		return nil, errors.New("payment client not configured")
	}
	if body.Amount < 0 {
		return nil, errors.New("charge amount must not be negative")
	}
	var opts chargeOptions
	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}
	var params *CreateChargeParams
	if opts.idempotencyKey != "" {
		params = &CreateChargeParams{IdempotencyKey: &opts.idempotencyKey}
	}
	resp, err := c.api.CreateChargeWithResponse(ctx, params, body)
	if err != nil {
		return nil, fmt.Errorf("call payment API: %w", err)
	}
	switch code := resp.StatusCode(); {
	case code == http.StatusOK:
	case code == http.StatusPaymentRequired:
		return nil, fmt.Errorf("%w: %s", ErrDeclined, errorMessage(resp.JSON402, resp.Status()))
	case code >= http.StatusBadRequest:
		return nil, fmt.Errorf("payment API error: %s", errorMessage(resp.JSONDefault, resp.Status()))
	default:
		return nil, fmt.Errorf("payment API unexpected status: %s", resp.Status())
	}
	if resp.JSON200 == nil || resp.JSON200.ID == "" {
		return nil, errors.New("payment API returned no charge")
	}
	return resp.JSON200, nil
}

func errorMessage(body *Error, fallback string) string {
	if body == nil {
		return fallback
	}
	if body.Message != nil {
		if msg := strings.TrimSpace(*body.Message); msg != "" {
			return msg
		}
	}
	if body.Code != nil {
		if msg := strings.TrimSpace(*body.Code); msg != "" {
			return msg
		}
	}
	return fallback
}
