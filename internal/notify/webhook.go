package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type WebhookSender struct {
	URL    string
	Format string
	Client *http.Client
}

func NewWebhookSender(url, format string) *WebhookSender {
	if url == "" {
		return nil
	}
	return &WebhookSender{
		URL:    url,
		Format: format,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

// SendLockoutAlert posts a lockout notification to the configured
// Discord or Slack webhook.
func (ws *WebhookSender) SendLockoutAlert(username string, attempts int, ip string) error {
	var payload []byte
	var err error

	switch ws.Format {
	case "slack":
		payload, err = json.Marshal(map[string]string{
			"text": fmt.Sprintf("*%s* locked after %d failed login attempts\nLast attempt from: %s", username, attempts, ip),
		})
	default:
		payload, err = json.Marshal(map[string]interface{}{
			"embeds": []map[string]interface{}{
				{
					"title":       fmt.Sprintf("Account locked: %s", username),
					"description": fmt.Sprintf("%d failed login attempts\n\nLast attempt from: %s", attempts, ip),
					"color":       16711680,
					"timestamp":   time.Now().UTC().Format(time.RFC3339),
				},
			},
		})
	}
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	resp, err := ws.Client.Post(ws.URL, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// SendUnlockNotice posts a manual-unlock notification.
func (ws *WebhookSender) SendUnlockNotice(username, admin string) error {
	var payload []byte
	var err error

	switch ws.Format {
	case "slack":
		payload, err = json.Marshal(map[string]string{
			"text": fmt.Sprintf("*%s* was unlocked by %s", username, admin),
		})
	default:
		payload, err = json.Marshal(map[string]interface{}{
			"embeds": []map[string]interface{}{
				{
					"title":       fmt.Sprintf("Account unlocked: %s", username),
					"description": fmt.Sprintf("Manually unlocked by %s", admin),
					"color":       65280,
					"timestamp":   time.Now().UTC().Format(time.RFC3339),
				},
			},
		})
	}
	if err != nil {
		return err
	}

	resp, err := ws.Client.Post(ws.URL, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}
