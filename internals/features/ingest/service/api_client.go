// file: internals/features/ingest/service/api_client.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"schoolsync_backend/internals/configs"
)

// APIClient talks to the school-platform REST API: bearer login, windowed
// GETs, bounded retry on throttle/5xx. Retry lives here, not in the engine.
type APIClient struct {
	BaseURL  string
	Email    string
	Password string
	Limit    int

	HTTP  *http.Client
	token string
}

func NewAPIClientFromEnv() *APIClient {
	return &APIClient{
		BaseURL:  strings.TrimRight(configs.GetEnv("SOURCE_BASE_URL"), "/"),
		Email:    configs.GetEnv("SOURCE_EMAIL"),
		Password: configs.GetEnv("SOURCE_PASSWORD"),
		Limit:    5000,
		HTTP:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *APIClient) login(ctx context.Context) error {
	body := strings.NewReader(fmt.Sprintf(`{"email":%q,"password":%q}`, c.Email, c.Password))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/login", body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login: status %d", resp.StatusCode)
	}

	var parsed struct {
		Data struct {
			AccessToken string `json:"access_token"`
			Token       string `json:"token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("login: decode: %w", err)
	}
	c.token = parsed.Data.AccessToken
	if c.token == "" {
		c.token = parsed.Data.Token
	}
	if c.token == "" {
		return fmt.Errorf("login: token missing in response")
	}
	return nil
}

var retriableStatus = map[int]bool{429: true, 500: true, 502: true, 503: true, 504: true}

// GetItems fetches path with params and returns data.items. 401 triggers one
// relogin; throttle and transient statuses retry with exponential backoff.
func (c *APIClient) GetItems(ctx context.Context, path string, params url.Values) ([]map[string]any, error) {
	if c.token == "" {
		if err := c.login(ctx); err != nil {
			return nil, err
		}
	}
	params.Set("response_type", "json")

	backoff := 500 * time.Millisecond
	for attempt := 0; ; attempt++ {
		raw, status, err := c.get(ctx, path, params)
		if err != nil {
			return nil, err
		}
		switch {
		case status == http.StatusOK:
			return parseItems(raw)
		case status == http.StatusUnauthorized && attempt == 0:
			if err := c.login(ctx); err != nil {
				return nil, err
			}
		case retriableStatus[status] && attempt < 5:
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= 2
		default:
			return nil, fmt.Errorf("GET %s: status %d", path, status)
		}
	}
}

func (c *APIClient) get(ctx context.Context, path string, params url.Values) ([]byte, int, error) {
	u := c.BaseURL + "/" + strings.TrimLeft(path, "/") + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	return raw, resp.StatusCode, err
}

// parseItems accepts both {"data":{"items":[...]}} and {"data":[...]}.
func parseItems(raw []byte) ([]map[string]any, error) {
	var wrapped struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	var withItems struct {
		Items []map[string]any `json:"items"`
	}
	if err := json.Unmarshal(wrapped.Data, &withItems); err == nil && withItems.Items != nil {
		return withItems.Items, nil
	}
	var plain []map[string]any
	if err := json.Unmarshal(wrapped.Data, &plain); err == nil {
		return plain, nil
	}
	return nil, fmt.Errorf("decode response: unexpected data shape")
}
