package homeassistant

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"AuctionMonitor/internal/gate"
	"AuctionMonitor/internal/ports"
)

// Notifier sends auction notifications via the Home Assistant service API.
// Non-urgent deliveries are checked against the active time gate and come
// back as ports.ErrNotificationGated when the window is closed; urgent ones
// always go out.
type Notifier struct {
	baseURL string
	token   string
	service string
	gates   func() gate.Gate
	client  *http.Client
	logger  *slog.Logger
	now     func() time.Time
}

var _ ports.Notifier = (*Notifier)(nil)

// New registers the Home Assistant endpoint and the gate provider. The gate
// is re-read on every delivery so window changes apply without rebuilding
// the notifier.
func New(baseURL, token, service string, gates func() gate.Gate, log *slog.Logger) *Notifier {
	return &Notifier{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		service: service,
		gates:   gates,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  log,
		now:     time.Now,
	}
}

// Deliver posts one notification through the configured notify service.
func (n *Notifier) Deliver(ctx context.Context, notification ports.Notification) error {
	if n.token == "" || n.baseURL == "" {
		return fmt.Errorf("home assistant notifier misconfigured")
	}

	if !notification.Urgent && n.gates != nil && !n.gates().Allows(n.now()) {
		return ports.ErrNotificationGated
	}

	domain, service, err := splitService(n.service)
	if err != nil {
		return err
	}

	payload := map[string]any{
		"title":   notification.Title,
		"message": notification.Message,
	}
	if strings.Contains(domain, "mobile_app") || strings.Contains(service, "mobile_app") {
		data := map[string]any{
			"url":   notification.Auction.URL,
			"group": "auction_notifications",
			"tag":   fmt.Sprintf("auction_%s", notification.Auction.Key()),
		}
		if notification.Urgent {
			data["priority"] = "high"
			data["interruption-level"] = "time-sensitive"
		}
		payload["data"] = data
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal service payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/services/%s/%s", n.baseURL, domain, service)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+n.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("call notify service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("home assistant error %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}

	n.debug("notification delivered", "auction", notification.Auction.Key(), "urgent", notification.Urgent)
	return nil
}

// TestConnection verifies the API is reachable with the configured token.
func (n *Notifier) TestConnection(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/api/", nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+n.token)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("reach home assistant: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("home assistant returned %s", resp.Status)
	}
	return nil
}

func splitService(service string) (string, string, error) {
	parts := strings.SplitN(service, ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid service %q, expected domain.service", service)
	}
	return parts[0], parts[1], nil
}

func (n *Notifier) debug(msg string, args ...any) {
	if n.logger != nil {
		n.logger.Debug(msg, args...)
	}
}
