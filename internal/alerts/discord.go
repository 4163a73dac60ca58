package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/liamashdown/polytools/internal/httpclient"
)

// DiscordSender sends alerts to Discord via webhook
type DiscordSender struct {
	webhookURL string
	httpClient *http.Client
}

// NewDiscordSender creates a new Discord sender. The client carries the
// process proxy and timeout.
func NewDiscordSender(webhookURL string, httpClient *http.Client) *DiscordSender {
	return &DiscordSender{
		webhookURL: webhookURL,
		httpClient: httpClient,
	}
}

// Send posts the event as a webhook embed
func (s *DiscordSender) Send(ctx context.Context, event *OrderEvent) error {
	webhookPayload := map[string]interface{}{
		"embeds": []interface{}{s.buildEmbed(event)},
	}

	body, err := json.Marshal(webhookPayload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if _, err := httpclient.Do(s.httpClient, req, "discord"); err != nil {
		return fmt.Errorf("discord webhook: %w", err)
	}
	return nil
}

func (s *DiscordSender) buildEmbed(event *OrderEvent) map[string]interface{} {
	var title string
	var color int
	switch {
	case event.Action == ActionCancelled:
		title = "🗑️ Order cancelled"
		color = 0x808080 // Grey
	case event.Side == "SELL":
		title = "📉 Sell order placed"
		color = 0xFF0000 // Red
	default:
		title = "📈 Buy order placed"
		color = 0x00AA00 // Green
	}

	fields := []map[string]interface{}{
		{
			"name":   "Wallet",
			"value":  fmt.Sprintf("`%s`", shorten(event.Wallet)),
			"inline": true,
		},
		{
			"name":   "Order",
			"value":  fmt.Sprintf("`%s`", shorten(event.OrderID)),
			"inline": true,
		},
	}

	var description string
	if event.Action == ActionPlaced {
		description = fmt.Sprintf("**%s %.2f** shares @ **%.2f** (**$%.2f**)",
			event.Side, event.Size, event.Price, event.NotionalUSD())
		fields = append(fields,
			map[string]interface{}{
				"name":   "Token",
				"value":  fmt.Sprintf("`%s`", shorten(event.TokenID)),
				"inline": true,
			},
			map[string]interface{}{
				"name":   "Status",
				"value":  event.Status,
				"inline": true,
			},
		)
	}

	return map[string]interface{}{
		"title":       title,
		"description": description,
		"color":       color,
		"fields":      fields,
		"footer": map[string]interface{}{
			"text": fmt.Sprintf("polytools • %s", event.Timestamp.UTC().Format("2006-01-02 15:04:05 UTC")),
		},
		"timestamp": event.Timestamp.Format(time.RFC3339),
	}
}

// shorten keeps the head and tail of long hex ids
func shorten(s string) string {
	if len(s) <= 14 {
		return s
	}
	return s[:8] + "..." + s[len(s)-4:]
}
