// Package client talks to the phone tracker HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"phone-tracker/internal/models"
	"phone-tracker/internal/service"

	"github.com/google/uuid"
)

// APIError is a non-success answer from the API. Message is empty when the response carried no
// usable error payload.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("client: api returned %d: %s", e.Status, msg)
}

// Client is an API client. The zero value is not usable; use New.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the API at baseURL. A nil httpClient uses http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// ListPhones returns every tracked phone, most recently updated first.
func (c *Client) ListPhones(ctx context.Context) ([]models.TrackedPhone, error) {
	var phones []models.TrackedPhone
	if err := c.do(ctx, http.MethodGet, "/api/phones", nil, nil, &phones); err != nil {
		return nil, err
	}
	return phones, nil
}

// GetPhone returns one tracked phone.
func (c *Client) GetPhone(ctx context.Context, id string) (*models.TrackedPhone, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("client: invalid phone id %q: %w", id, err)
	}

	var phone models.TrackedPhone
	if err := c.do(ctx, http.MethodGet, "/api/phones/"+id, nil, nil, &phone); err != nil {
		return nil, err
	}
	return &phone, nil
}

// InsertPhone starts tracking a phone and returns the stored row.
func (c *Client) InsertPhone(ctx context.Context, phone models.NewTrackedPhone) (*models.TrackedPhone, error) {
	var created models.TrackedPhone
	if err := c.do(ctx, http.MethodPost, "/api/phones", nil, phone, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// DeletePhone stops tracking a phone.
func (c *Client) DeletePhone(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("client: invalid phone id %q: %w", id, err)
	}
	return c.do(ctx, http.MethodDelete, "/api/phones/"+id, nil, nil, nil)
}

// Geolocate asks the geolocation proxy for coordinates of phoneNumber.
func (c *Client) Geolocate(ctx context.Context, phoneNumber string) (models.GeolocationResult, error) {
	var result models.GeolocationResult
	body := map[string]string{"phoneNumber": phoneNumber}
	if err := c.do(ctx, http.MethodPost, "/functions/v1/geolocate_phone", nil, body, &result); err != nil {
		return models.GeolocationResult{}, err
	}
	return result, nil
}

// ListDevices returns a page of devices. query carries search, ordering, limit and offset.
func (c *Client) ListDevices(ctx context.Context, query url.Values) (models.Page[models.Device], error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/devices/", query, nil, &raw); err != nil {
		return models.Page[models.Device]{}, err
	}
	return decodePage[models.Device](raw)
}

// CreateDevice registers a device.
func (c *Client) CreateDevice(ctx context.Context, in service.DeviceInput) (*models.Device, error) {
	var device models.Device
	if err := c.do(ctx, http.MethodPost, "/api/devices/", nil, in, &device); err != nil {
		return nil, err
	}
	return &device, nil
}

// ListLocations returns a page of location logs. query carries device, ordering, limit and offset.
func (c *Client) ListLocations(ctx context.Context, query url.Values) (models.Page[models.LocationLog], error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/locations/", query, nil, &raw); err != nil {
		return models.Page[models.LocationLog]{}, err
	}
	return decodePage[models.LocationLog](raw)
}

// CreateLocation records a location log.
func (c *Client) CreateLocation(ctx context.Context, in service.LocationInput) (*models.LocationLog, error) {
	var entry models.LocationLog
	if err := c.do(ctx, http.MethodPost, "/api/locations/", nil, in, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// decodePage accepts both a bare JSON array and a {count, results} envelope.
func decodePage[T any](raw json.RawMessage) (models.Page[T], error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var results []T
		if err := json.Unmarshal(trimmed, &results); err != nil {
			return models.Page[T]{}, fmt.Errorf("client: failed to decode list: %w", err)
		}
		return models.Page[T]{Count: int64(len(results)), Results: results}, nil
	}

	var page models.Page[T]
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return models.Page[T]{}, fmt.Errorf("client: failed to decode page: %w", err)
	}
	if page.Results == nil {
		page.Results = []T{}
	}
	return page, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("client: failed to encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("client: failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: failed to decode response: %w", err)
	}
	return nil
}

// decodeAPIError builds an APIError from an error payload. The error, details and suggestion
// fields are joined; a field-keyed validation payload is flattened.
func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
		var parts []string
		for _, key := range []string{"error", "details", "suggestion"} {
			if s, ok := payload[key].(string); ok && s != "" {
				parts = append(parts, s)
			}
		}
		if len(parts) == 0 {
			parts = fieldMessages(payload)
		}
		apiErr.Message = strings.Join(parts, " ")
	}
	return apiErr
}

func fieldMessages(payload map[string]any) []string {
	fields := make([]string, 0, len(payload))
	for field := range payload {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var parts []string
	for _, field := range fields {
		msgs, ok := payload[field].([]any)
		if !ok {
			continue
		}
		texts := make([]string, 0, len(msgs))
		for _, m := range msgs {
			if s, ok := m.(string); ok {
				texts = append(texts, s)
			}
		}
		if len(texts) > 0 {
			parts = append(parts, field+": "+strings.Join(texts, " "))
		}
	}
	return parts
}
