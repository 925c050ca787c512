package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultAPIVersion = "2024-10"

type Config struct {
	StoreDomain     string
	StorefrontToken string
	APIVersion      string
	Timeout         time.Duration
}

// Client talks to the Storefront GraphQL API of one shop.
type Client struct {
	config     Config
	httpClient *http.Client
}

func NewClient(config Config, httpClient *http.Client) *Client {
	if strings.TrimSpace(config.APIVersion) == "" {
		config.APIVersion = DefaultAPIVersion
	}
	if httpClient == nil {
		timeout := config.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{config: config, httpClient: httpClient}
}

// Configured reports whether the shop credentials are set.
func (c *Client) Configured() bool {
	return strings.TrimSpace(c.config.StoreDomain) != "" && strings.TrimSpace(c.config.StorefrontToken) != ""
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors,omitempty"`
}

type GraphQLError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

type UserError struct {
	Field   []string `json:"field,omitempty"`
	Message string   `json:"message"`
	Code    string   `json:"code,omitempty"`
}

// UserErrorsError is returned when a cart mutation reports userErrors.
type UserErrorsError struct {
	Action string
	Errors []UserError
}

func (e *UserErrorsError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, ue := range e.Errors {
		msg := strings.TrimSpace(ue.Message)
		if msg == "" {
			continue
		}
		if len(ue.Field) > 0 {
			msg = fmt.Sprintf("%s: %s", strings.Join(ue.Field, "."), msg)
		}
		parts = append(parts, msg)
	}
	if len(parts) == 0 {
		return fmt.Sprintf("shopify %s failed with user errors", e.Action)
	}
	return fmt.Sprintf("shopify %s failed: %s", e.Action, strings.Join(parts, "; "))
}

func userErrorsToError(action string, errs []UserError) error {
	if len(errs) == 0 {
		return nil
	}
	return &UserErrorsError{Action: action, Errors: errs}
}

func (c *Client) endpoint() (string, error) {
	domain := strings.TrimSpace(c.config.StoreDomain)
	if domain == "" {
		return "", errors.New("shopify store domain is empty")
	}
	if !strings.HasPrefix(domain, "http://") && !strings.HasPrefix(domain, "https://") {
		domain = "https://" + domain
	}
	domain = strings.TrimRight(domain, "/")
	return domain + "/api/" + c.config.APIVersion + "/graphql.json", nil
}

// graphqlRequest posts one query, retrying throttles and transient HTTP
// failures with exponential backoff.
func (c *Client) graphqlRequest(ctx context.Context, query string, variables map[string]any, out any) error {
	endpoint, err := c.endpoint()
	if err != nil {
		return err
	}
	body, err := json.Marshal(graphQLRequest{Query: strings.TrimSpace(query), Variables: variables})
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt < graphqlRetryMax; attempt++ {
		if attempt > 0 {
			if err := sleepWithContext(ctx, retryDelay(attempt-1)); err != nil {
				return err
			}
		}

		raw, err := c.post(ctx, endpoint, body)
		if err != nil {
			if isRetryableHTTPError(err) {
				lastErr = err
				continue
			}
			return err
		}

		var resp graphQLResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			return fmt.Errorf("decode shopify response: %w", err)
		}
		if len(resp.Errors) > 0 {
			err := fmt.Errorf("shopify graphql errors: %s", formatGraphQLErrors(resp.Errors))
			if isThrottleGraphQLError(resp.Errors) {
				lastErr = err
				continue
			}
			return err
		}
		if out == nil {
			return nil
		}
		if len(resp.Data) == 0 || bytes.Equal(resp.Data, []byte("null")) {
			return errors.New("shopify graphql response missing data")
		}
		return json.Unmarshal(resp.Data, out)
	}
	return fmt.Errorf("shopify request gave up after %d attempts: %w", graphqlRetryMax, lastErr)
}

func (c *Client) post(ctx context.Context, endpoint string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Shopify-Storefront-Access-Token", c.config.StorefrontToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newHTTPStatusError(resp.StatusCode, resp.Status, respBody)
	}
	return respBody, nil
}

func formatGraphQLErrors(errs []GraphQLError) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		if msg := strings.TrimSpace(e.Message); msg != "" {
			parts = append(parts, msg)
		}
	}
	if len(parts) == 0 {
		return "unknown error"
	}
	return strings.Join(parts, "; ")
}
