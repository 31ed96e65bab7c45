package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aravindh-murugesan/waitsentry-go/internal/retry"
)

// Enabled reports whether a webhook URL is configured.
func (w *Webhook) Enabled() bool {
	return w != nil && w.URL != ""
}

// Notify posts the failure as JSON. Throttling, 5xx responses and network
// errors are retried under w.Policy; other responses fail immediately.
func (w *Webhook) Notify(ctx context.Context, notification WaitFailure) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return err
	}

	client := w.Client
	if client == nil {
		client = &http.Client{
			Timeout: 30 * time.Second,
		}
	}

	return retry.Execute(ctx, w.Policy, "webhook.notify", func(ctx context.Context) error {
		return w.send(ctx, client, payload)
	})
}

func (w *Webhook) send(ctx context.Context, client *http.Client, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(payload))
	if err != nil {
		return retry.Permanent(err)
	}

	req.Header.Set("Content-Type", "application/json")

	if w.Username != "" || w.Password != "" {
		req.SetBasicAuth(w.Username, w.Password)
	}

	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return retry.Permanent(fmt.Errorf("failed to send notification via webhook: %w", err))
		}
		return retry.Transient(fmt.Errorf("failed to send notification via webhook: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &retry.Error{
			Kind:       retry.KindForStatus(resp.StatusCode),
			Op:         "webhook.notify",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("failed to send notification via webhook: %d", resp.StatusCode),
		}
	}

	return nil
}
