package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const defaultHTTPTimeout = 10 * time.Second

// Paths checked, in order, for a human readable message in provider error
// bodies. Cielo answers with a top-level array.
var errorMessagePaths = []string{
	"message",
	"error_description",
	"error.message",
	"errors.0.message",
	"details.0.description",
	"0.Message",
	"cause.0.description",
	"error",
}

type jsonClient struct {
	provider string
	baseURL  string
	client   *http.Client
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &http.Client{Timeout: timeout}
}

func (c *jsonClient) do(ctx context.Context, method, path string, headers map[string]string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: encode request: %w", c.provider, err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.baseURL, "/")+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", c.provider, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", c.provider, err)
	}
	if resp.StatusCode >= 400 {
		return nil, &Error{
			Provider:   c.provider,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(respBody, resp.StatusCode),
			Details:    rawDetails(respBody),
		}
	}

	return respBody, nil
}

func errorMessage(body []byte, status int) string {
	if gjson.ValidBytes(body) {
		for _, path := range errorMessagePaths {
			if v := gjson.GetBytes(body, path); v.Type == gjson.String && strings.TrimSpace(v.String()) != "" {
				return strings.TrimSpace(v.String())
			}
		}
	}
	return fmt.Sprintf("request failed with status %d", status)
}

func formatDecimal(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
