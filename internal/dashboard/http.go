package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPSink posts record batches as JSON to a dashboard endpoint.
type HTTPSink struct {
	URL    string
	Client *http.Client
}

// NewHTTPSink creates a sink posting to url with the default client.
func NewHTTPSink(url string) *HTTPSink {
	return &HTTPSink{URL: url, Client: http.DefaultClient}
}

type payload struct {
	Source  string   `json:"source"`
	Records []Record `json:"records"`
}

// Send implements Sink. Any non-2xx response is an error.
func (s *HTTPSink) Send(ctx context.Context, records []Record) error {
	body, err := json.Marshal(payload{Source: "promptwatch", Records: records})
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("post records: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("dashboard returned %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	return nil
}
