package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"leadpilot_backend/platform/apperr"
	"leadpilot_backend/platform/logger"
)

// maxResponseBytes bounds provider response bodies.
const maxResponseBytes = 10 << 20

// client is the shared HTTP plumbing for provider adapters. Each adapter
// owns its timeout; everything else is common.
type client struct {
	http *http.Client
	log  *logger.Logger
}

func newClient(log *logger.Logger, timeout time.Duration) *client {
	return &client{
		http: &http.Client{Timeout: timeout},
		log:  log,
	}
}

// fetchRecords performs a GET against endpoint, decodes the JSON body and
// returns the record list. wrapperKey selects the list inside an object
// response; empty means the response root is the array itself.
func (c *client) fetchRecords(ctx context.Context, provider, endpoint string, params url.Values, headers map[string]string, wrapperKey string) ([]map[string]any, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, apperr.Provider(fmt.Sprintf("%s: invalid endpoint", provider), err)
	}
	query := u.Query()
	for key, values := range params {
		for _, value := range values {
			query.Add(key, value)
		}
	}
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, apperr.Provider(fmt.Sprintf("%s: build request", provider), err)
	}
	req.Header.Set("Accept", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperr.Provider(fmt.Sprintf("%s: request failed", provider), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, apperr.Provider(fmt.Sprintf("%s: read response", provider), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperr.Provider(
			fmt.Sprintf("%s: unexpected status %d", provider, resp.StatusCode),
			fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body, 200)),
		)
	}

	return decodeRecords(provider, body, wrapperKey)
}

func decodeRecords(provider string, body []byte, wrapperKey string) ([]map[string]any, error) {
	if wrapperKey == "" {
		var records []map[string]any
		if err := json.Unmarshal(body, &records); err != nil {
			return nil, apperr.Provider(fmt.Sprintf("%s: decode response", provider), err)
		}
		return records, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, apperr.Provider(fmt.Sprintf("%s: decode response", provider), err)
	}
	raw, ok := wrapper[wrapperKey]
	if !ok {
		// Some providers omit the wrapper entirely when there are no
		// results.
		return nil, nil
	}
	var records []map[string]any
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, apperr.Provider(fmt.Sprintf("%s: decode %s list", provider, wrapperKey), err)
	}
	return records, nil
}

func truncate(body []byte, limit int) string {
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit]) + "..."
}
