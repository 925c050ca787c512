package square

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultBaseURL    = "https://connect.squareup.com"
	DefaultAPIVersion = "2024-10-17"
)

type Config struct {
	BaseURL     string
	AccessToken string
	APIVersion  string
	Timeout     time.Duration
	// InventoryConcurrency caps in-flight inventory batch requests.
	InventoryConcurrency int
}

type Client struct {
	config     Config
	httpClient *http.Client
}

func NewClient(config Config, httpClient *http.Client) *Client {
	if strings.TrimSpace(config.BaseURL) == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(strings.TrimSpace(config.BaseURL), "/")
	if strings.TrimSpace(config.APIVersion) == "" {
		config.APIVersion = DefaultAPIVersion
	}
	if config.InventoryConcurrency <= 0 {
		config.InventoryConcurrency = 4
	}
	if httpClient == nil {
		timeout := config.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{config: config, httpClient: httpClient}
}

type ErrorDetail struct {
	Category string `json:"category"`
	Code     string `json:"code"`
	Detail   string `json:"detail,omitempty"`
	Field    string `json:"field,omitempty"`
}

// APIError is returned for any non-2xx Square response.
type APIError struct {
	StatusCode int
	Status     string
	Errors     []ErrorDetail
	Body       string
}

func (e *APIError) Error() string {
	if len(e.Errors) > 0 {
		parts := make([]string, 0, len(e.Errors))
		for _, d := range e.Errors {
			if d.Detail != "" {
				parts = append(parts, d.Code+": "+d.Detail)
			} else {
				parts = append(parts, d.Code)
			}
		}
		return fmt.Sprintf("square request failed: %s: %s", e.Status, strings.Join(parts, "; "))
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("square request failed: %s", e.Status)
	}
	return fmt.Sprintf("square request failed: %s: %s", e.Status, e.Body)
}

// IsUnauthorized reports whether err is a Square 401.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	if strings.TrimSpace(c.config.AccessToken) == "" {
		return errors.New("square access token is empty")
	}

	endpoint := c.config.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal square request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create square request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.AccessToken)
	req.Header.Set("Square-Version", c.config.APIVersion)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read square response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Status: resp.Status}
		var envelope struct {
			Errors []ErrorDetail `json:"errors"`
		}
		if json.Unmarshal(raw, &envelope) == nil && len(envelope.Errors) > 0 {
			apiErr.Errors = envelope.Errors
		} else {
			apiErr.Body = strings.TrimSpace(string(raw))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode square response: %w", err)
	}
	return nil
}
