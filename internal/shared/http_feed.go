package shared

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPFeed publishes aggregates to an HTTP collector endpoint. Used when the
// lab's queue proxy is available instead of a direct Redis connection.
type HTTPFeed struct {
	baseURL string
	client  *http.Client
}

// NewHTTPFeed creates an HTTP feed client for the given collector base URL.
func NewHTTPFeed(baseURL string) *HTTPFeed {
	return &HTTPFeed{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Publish POSTs one aggregate to the collector's produce endpoint, retrying
// with a linear backoff. The sampling loop only logs failures, so a collector
// outage costs feed updates but never data on disk.
func (f *HTTPFeed) Publish(topic string, body []byte) error {
	url := fmt.Sprintf("%s/produce?topic=%s", f.baseURL, topic)

	reqBody, err := json.Marshal(map[string]string{"payload": string(body)})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	const maxRetries = 3
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * time.Second)
		}

		resp, err := f.client.Post(url, "application/json", bytes.NewReader(reqBody))
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode == http.StatusOK {
			resp.Body.Close()
			return nil
		}
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		lastErr = fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
	}
	return fmt.Errorf("publish failed after %d attempts: %w", maxRetries, lastErr)
}

// Close is a no-op; the HTTP client holds no connection state worth tearing
// down.
func (f *HTTPFeed) Close() error {
	return nil
}
