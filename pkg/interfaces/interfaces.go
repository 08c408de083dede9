package interfaces

import (
	"context"
	"net/http"
	"time"

	"github.com/haytac/emote-relay/internal/database"
)

// MessagePart is one message sent to a relay target.
type MessagePart struct {
	Text      string
	ParseMode string
}

// Notifier relays text to a chat.
type Notifier interface {
	Send(ctx context.Context, chatID string, parts []MessagePart, proxy *database.Proxy) error
	Name() string
}

// Scheduler runs a task per channel at a fixed interval.
type Scheduler interface {
	Add(channel *database.Channel, interval time.Duration, task func(c *database.Channel)) error
	Start(ctx context.Context)
	Stop()
}

// ProxyValidator checks if a proxy is working.
type ProxyValidator interface {
	Validate(ctx context.Context, proxy *database.Proxy, targetURL string) error
}

// HTTPClientFactory creates HTTP clients.
type HTTPClientFactory interface {
	GetClient(proxy *database.Proxy) (*http.Client, error)
}
