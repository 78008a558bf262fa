package geocoder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// ErrUpstreamStatus is returned when a geocoding service answers with a non-success status.
var ErrUpstreamStatus = errors.New("geocoder: upstream returned non-success status")

// getJSON performs a GET request and decodes a JSON response body into dest.
func getJSON(ctx context.Context, client *http.Client, endpoint string, query url.Values, header http.Header, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("geocoder: failed to build request: %w", err)
	}
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("geocoder: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s", ErrUpstreamStatus, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("geocoder: failed to decode response: %w", err)
	}

	return nil
}
