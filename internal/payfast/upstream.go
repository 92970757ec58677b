package payfast

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// maxValidateResponse bounds how much of the validate response is read.
const maxValidateResponse = 4 << 10

// Confirmer asks the gateway whether it really sent a notification.
type Confirmer interface {
	Confirm(ctx context.Context, validateURL string, payload Payload) error
}

// HTTPConfirmer posts the notification back to the gateway's validate
// endpoint. There is no retry: a failed call rejects the notification and
// the gateway redelivers on its own schedule.
type HTTPConfirmer struct {
	client  *http.Client
	timeout time.Duration
}

func NewHTTPConfirmer(client *http.Client, timeout time.Duration) *HTTPConfirmer {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPConfirmer{client: client, timeout: timeout}
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// Confirm posts payload, minus its signature, to validateURL and requires a
// response starting with VALID.
func (c *HTTPConfirmer) Confirm(ctx context.Context, validateURL string, payload Payload) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body := payload.WithoutSignature().Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, validateURL, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxValidateResponse))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(raw))
	}

	result := lineBreaks.Replace(string(raw))
	if !strings.HasPrefix(result, "VALID") {
		return fmt.Errorf("gateway answered %q", result)
	}
	return nil
}
