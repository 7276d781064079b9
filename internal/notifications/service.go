package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"anistrm/internal/config"
)

// Event identifies a notification type.
type Event string

const (
	EventSyncCompleted Event = "sync_completed"
	EventSyncFailed    Event = "sync_failed"
	EventTest          Event = "test"
)

// Payload carries event-specific values. Known keys: mode, trigger, created,
// fetched, failed, duration, error, titles.
type Payload map[string]any

// Service publishes sync events to the configured transport.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:      topic,
		userAgent:     cfg.Source.UserAgent,
		client:        &http.Client{Timeout: timeout},
		syncCompleted: cfg.Notifications.SyncCompleted,
		errors:        cfg.Notifications.Errors,
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint      string
	userAgent     string
	client        *http.Client
	syncCompleted bool
	errors        bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if n == nil || n.client == nil {
		return nil
	}
	msg, ok := n.render(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) render(event Event, payload Payload) (message, bool) {
	switch event {
	case EventSyncCompleted:
		if !n.syncCompleted {
			return message{}, false
		}
		created := payloadInt(payload, "created")
		if created <= 0 {
			return message{}, false
		}
		mode := payloadString(payload, "mode", "incremental")
		var b strings.Builder
		fmt.Fprintf(&b, "📺 Created %d strm file(s) (%s)", created, mode)
		if titles, ok := payload["titles"].([]string); ok && len(titles) > 0 {
			const maxListed = 10
			for i, title := range titles {
				if i == maxListed {
					fmt.Fprintf(&b, "\n… and %d more", len(titles)-maxListed)
					break
				}
				b.WriteString("\n")
				b.WriteString(title)
			}
		}
		return message{
			title: "anistrm - Sync Complete",
			body:  b.String(),
			tags:  []string{"anistrm", "sync", mode},
		}, true
	case EventSyncFailed:
		if !n.errors {
			return message{}, false
		}
		mode := payloadString(payload, "mode", "incremental")
		reason := payloadString(payload, "error", "unknown")
		return message{
			title:    "anistrm - Sync Failed",
			body:     fmt.Sprintf("❌ %s sync failed: %s", mode, reason),
			tags:     []string{"anistrm", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "anistrm - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"anistrm", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	if n.userAgent != "" {
		req.Header.Set("User-Agent", n.userAgent)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func payloadString(p Payload, key, fallback string) string {
	if v, ok := p[key]; ok {
		if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
			return s
		}
	}
	return fallback
}

func payloadInt(p Payload, key string) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
