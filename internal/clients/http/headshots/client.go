package headshots

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrNotFound is returned when the API answers 404.
var ErrNotFound = errors.New("headshot API resource not found")

// Client wraps ClientWithResponses with typed helpers for the checkout flow.
type Client struct {
	api *ClientWithResponses
}

// NewHeadshotClient instantiates the headshot client with sane defaults.
func NewHeadshotClient(baseURL string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("headshot API base URL is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	api, err := NewClientWithResponses(baseURL, WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("build headshot client: %w", err)
	}
	return &Client{api: api}, nil
}

// GetProduction loads a production and its quantity tiers.
func (c *Client) GetProduction(ctx context.Context, id string) (*Production, error) {
	if err := c.ensure(); err != nil {
		return nil, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("production id is required")
	}
	resp, err := c.api.GetProductionWithResponse(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("call headshot API: %w", err)
	}
	if err := checkStatus(resp.StatusCode(), resp.Status(), resp.JSONDefault); err != nil {
		return nil, err
	}
	if resp.JSON200 == nil {
		return nil, fmt.Errorf("headshot API returned no production for %s", id)
	}
	return resp.JSON200, nil
}

// CreateHeadshot registers a draft headshot for the order.
func (c *Client) CreateHeadshot(ctx context.Context, body CreateHeadshotJSONRequestBody) (*Headshot, error) {
	if err := c.ensure(); err != nil {
		return nil, err
	}
	resp, err := c.api.CreateHeadshotWithResponse(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("call headshot API: %w", err)
	}
	if err := checkStatus(resp.StatusCode(), resp.Status(), resp.JSONDefault); err != nil {
		return nil, err
	}
	created := resp.JSON201
	if created == nil {
		created = resp.JSON200
	}
	if created == nil || created.ID == "" {
		return nil, errors.New("headshot API returned no headshot")
	}
	return created, nil
}

// DeleteHeadshot removes a draft headshot.
func (c *Client) DeleteHeadshot(ctx context.Context, id string) error {
	if err := c.ensure(); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("headshot id is required")
	}
	resp, err := c.api.DeleteHeadshotWithResponse(ctx, id)
	if err != nil {
		return fmt.Errorf("call headshot API: %w", err)
	}
	return checkStatus(resp.StatusCode(), resp.Status(), resp.JSONDefault)
}

func (c *Client) ensure() error {
	if c == nil || c.api == nil {
		return errors.New("headshot client not configured")
	}
	return nil
}

func checkStatus(code int, status string, body *Error) error {
	switch {
	case code == 0:
		return errors.New("headshot API returned an empty response")
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, errorMessage(body, status))
	case code >= http.StatusBadRequest:
		return fmt.Errorf("headshot API error: %s", errorMessage(body, status))
	case code >= http.StatusMultipleChoices:
		return fmt.Errorf("headshot API unexpected status: %s", status)
	default:
		return nil
	}
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
	if body.Status != nil {
		if msg := strings.TrimSpace(*body.Status); msg != "" {
			return msg
		}
	}
	return fallback
}
